package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"renderbot/internal/pipeline"
)

// Render runs the whole job (health, submit, poll) and answers with the image.
// It is what the chat layer calls once the user has picked a style and typed
// a prompt.
func (a *App) Render(w http.ResponseWriter, r *http.Request) {
	req, err := decodePrompt(w, r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	log := zerolog.Ctx(r.Context())
	res := a.Runner.Run(r.Context(), req.Prompt, req.Style, func(percent int) {
		log.Debug().Int("progress", percent).Msg("render progress")
	})

	switch res.Status {
	case pipeline.StatusReady:
		a.persist(r, res.JobID, res.Image)
		a.image(w, res.JobID, res.Image)
	case pipeline.StatusUnavailable:
		a.error(w, http.StatusServiceUnavailable, "unavailable", res.Message)
	case pipeline.StatusInvalid:
		a.error(w, http.StatusBadRequest, "validation", res.Message)
	case pipeline.StatusTimedOut:
		a.error(w, http.StatusGatewayTimeout, "timed_out", res.Message)
	case pipeline.StatusExhausted:
		a.error(w, http.StatusBadGateway, "exhausted_retries", res.Message)
	case pipeline.StatusMalformed:
		a.error(w, http.StatusBadGateway, "malformed_response", res.Message)
	case pipeline.StatusCancelled:
		w.WriteHeader(statusClientClosedRequest)
	default:
		a.error(w, http.StatusBadGateway, "render_failed", res.Message)
	}
}
