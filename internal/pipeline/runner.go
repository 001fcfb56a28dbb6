package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"renderbot/internal/infra"
	"renderbot/internal/render"
)

// Status is the terminal state of a pipeline run.
type Status string

const (
	StatusReady       Status = "ready"
	StatusUnavailable Status = "unavailable"
	StatusFailed      Status = "failed"
	StatusTimedOut    Status = "timed_out"
	StatusCancelled   Status = "cancelled"
	StatusInvalid     Status = "invalid"
	StatusExhausted   Status = "exhausted_retries"
	StatusMalformed   Status = "malformed_response"
)

// Renderer is the render service surface the pipeline drives.
type Renderer interface {
	CheckHealth(ctx context.Context) render.ServiceHealth
	Submit(ctx context.Context, prompt, style string) (*render.Submission, error)
	Poll(ctx context.Context, jobID string, estimatedSeconds int, onProgress render.ProgressFunc) ([]byte, error)
}

// Result is everything the presentation layer needs to answer the user.
type Result struct {
	Status   Status
	JobID    string
	Image    []byte
	Message  string
	Health   render.ServiceHealth
	Duration time.Duration
}

// Runner executes one job end to end: health check, submission, polling.
// It keeps no per-job state, so one Runner serves any number of concurrent
// conversations.
type Runner struct {
	renderer Renderer
	logger   *infra.Logger
}

// NewRunner wires a renderer with an optional logger.
func NewRunner(renderer Renderer, logger *infra.Logger) *Runner {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Runner{renderer: renderer, logger: logger}
}

// Run blocks until the job produces an image or fails. Cancelling ctx aborts
// the job at the next wait or in-flight request.
func (r *Runner) Run(ctx context.Context, prompt, style string, onProgress render.ProgressFunc) Result {
	start := time.Now()
	res := r.run(ctx, prompt, style, onProgress)
	res.Duration = time.Since(start)
	if r == nil || r.logger == nil {
		return res
	}

	event := r.logger.Info()
	if res.Status != StatusReady {
		event = r.logger.Warn()
	}
	event.Str("job_id", res.JobID).
		Str("status", string(res.Status)).
		Dur("duration", res.Duration).
		Int("bytes", len(res.Image)).
		Msg("pipeline: job finished")
	return res
}

func (r *Runner) run(ctx context.Context, prompt, style string, onProgress render.ProgressFunc) Result {
	if r == nil || r.renderer == nil {
		return Result{Status: StatusFailed, Message: "render service not configured"}
	}
	health := r.renderer.CheckHealth(ctx)
	if !health.Available {
		return Result{Status: StatusUnavailable, Health: health, Message: health.Summary()}
	}

	sub, err := r.renderer.Submit(ctx, prompt, style)
	if err != nil {
		return Result{Status: statusFor(err), Health: health, Message: render.Message(err)}
	}
	if onProgress != nil {
		onProgress(0)
	}

	image, err := r.renderer.Poll(ctx, sub.JobID, sub.EstimatedSeconds, onProgress)
	if err != nil {
		return Result{Status: statusFor(err), JobID: sub.JobID, Health: health, Message: render.Message(err)}
	}
	return Result{Status: StatusReady, JobID: sub.JobID, Image: image, Health: health}
}

func statusFor(err error) Status {
	switch {
	case errors.Is(err, render.ErrValidation):
		return StatusInvalid
	case errors.Is(err, render.ErrTimedOut):
		return StatusTimedOut
	case errors.Is(err, render.ErrCancelled), errors.Is(err, context.Canceled):
		return StatusCancelled
	case errors.Is(err, render.ErrExhaustedRetries):
		return StatusExhausted
	case errors.Is(err, render.ErrMalformedResponse):
		return StatusMalformed
	default:
		return StatusFailed
	}
}

// Err converts a non-ready result into an error for callers that prefer one.
func (res Result) Err() error {
	if res.Status == StatusReady {
		return nil
	}
	return fmt.Errorf("pipeline: %s: %s", res.Status, res.Message)
}
