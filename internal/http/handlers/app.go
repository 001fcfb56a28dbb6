package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"renderbot/internal/pipeline"
	"renderbot/internal/render"
	"renderbot/internal/storage"
)

// App carries the collaborators shared by all handlers.
type App struct {
	Renderer pipeline.Renderer
	Runner   *pipeline.Runner
	// Store is optional; when set, finished images are also written to disk.
	Store *storage.FileStore
	// PollBudget caps how long a blocking image request may poll. It must stay
	// below the server write timeout; zero means maxEstimatedSeconds.
	PollBudget time.Duration
}

func NewApp(renderer pipeline.Renderer, runner *pipeline.Runner, store *storage.FileStore) *App {
	return &App{Renderer: renderer, Runner: runner, Store: store}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	a.json(w, status, body)
}

func (a *App) image(w http.ResponseWriter, jobID string, data []byte) {
	w.Header().Set("Content-Type", storage.DetectMIME(data))
	w.Header().Set("X-Job-ID", jobID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// renderError maps a render failure onto an HTTP status and error code.
func (a *App) renderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, render.ErrValidation):
		a.error(w, http.StatusBadRequest, "validation", render.Message(err))
	case errors.Is(err, render.ErrTimedOut):
		a.error(w, http.StatusGatewayTimeout, "timed_out", render.Message(err))
	case errors.Is(err, render.ErrCancelled):
		// client went away; nobody is left to read the body
		w.WriteHeader(statusClientClosedRequest)
	case errors.Is(err, render.ErrExhaustedRetries):
		a.error(w, http.StatusBadGateway, "exhausted_retries", render.Message(err))
	case errors.Is(err, render.ErrMalformedResponse):
		a.error(w, http.StatusBadGateway, "malformed_response", render.Message(err))
	default:
		a.error(w, http.StatusBadGateway, "render_failed", render.Message(err))
	}
}

const statusClientClosedRequest = 499

type promptRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
}

func decodePrompt(w http.ResponseWriter, r *http.Request) (promptRequest, error) {
	var req promptRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return promptRequest{}, err
	}
	return req, nil
}
