package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"renderbot/internal/render"
	"renderbot/internal/storage"
)

const maxEstimatedSeconds = 600

// maxEstimated is the largest estimated_seconds a blocking poll may use.
func (a *App) maxEstimated() int {
	limit := maxEstimatedSeconds
	if budget := int(a.PollBudget / time.Second); a.PollBudget > 0 && budget < limit {
		limit = budget
	}
	return limit
}

// SubmitJob registers a job and returns its id without waiting for the image.
func (a *App) SubmitJob(w http.ResponseWriter, r *http.Request) {
	req, err := decodePrompt(w, r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	sub, err := a.Renderer.Submit(r.Context(), req.Prompt, req.Style)
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, sub)
}

// JobImage polls a submitted job until the image is ready. The request blocks
// for up to estimated_seconds; disconnecting cancels the poll.
func (a *App) JobImage(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(chi.URLParam(r, "job_id"))
	if _, err := uuid.Parse(jobID); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id must be a UUID")
		return
	}
	limit := a.maxEstimated()
	if limit <= 0 {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "server write timeout leaves no time to poll")
		return
	}
	estimated := min(render.DefaultParameters().EstimatedSeconds(), limit)
	if raw := r.URL.Query().Get("estimated_seconds"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > limit {
			a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("estimated_seconds must be between 1 and %d", limit))
			return
		}
		estimated = v
	}

	log := zerolog.Ctx(r.Context())
	data, err := a.Renderer.Poll(r.Context(), jobID, estimated, func(percent int) {
		log.Debug().Str("job_id", jobID).Int("progress", percent).Msg("render progress")
	})
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.persist(r, jobID, data)
	a.image(w, jobID, data)
}

func (a *App) persist(r *http.Request, jobID string, data []byte) {
	if a.Store == nil {
		return
	}
	if _, err := a.Store.Write(r.Context(), storage.ImageKey(jobID, data), data); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("job_id", jobID).Msg("persist image failed")
	}
}
