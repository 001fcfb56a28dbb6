package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Submission identifies an accepted job.
type Submission struct {
	JobID            string `json:"job_id"`
	EstimatedSeconds int    `json:"estimated_seconds"`
}

// Estimated returns the estimate as a duration.
func (s Submission) Estimated() time.Duration {
	return time.Duration(s.EstimatedSeconds) * time.Second
}

// Submit builds a request from the client parameters, the prompt and the
// style, and registers it with the service. The caller is expected to have
// checked health beforehand.
func (c *Client) Submit(ctx context.Context, prompt, style string) (*Submission, error) {
	return c.SubmitRequest(ctx, NewGenerationRequest(prompt, style, c.params))
}

// SubmitRequest validates req and POSTs it, retrying failed attempts with a
// fixed back-off.
func (c *Client) SubmitRequest(ctx context.Context, req GenerationRequest) (*Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, newError(ErrValidation, "encode request", err)
	}

	log := c.logger.With().Str("job_id", req.TaskID).Logger()
	for attempt := 1; attempt <= c.submitAttempts; attempt++ {
		err := c.postRender(ctx, body)
		if err == nil {
			log.Info().Int("attempt", attempt).Int("steps", req.Steps).Msg("render: job submitted")
			return &Submission{JobID: req.TaskID, EstimatedSeconds: req.EstimatedSeconds()}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newError(ErrCancelled, "generation cancelled", ctxErr)
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("render: submit attempt failed")

		if attempt < c.submitAttempts {
			if err := sleep(ctx, c.retryDelay); err != nil {
				return nil, newError(ErrCancelled, "generation cancelled", err)
			}
		}
	}
	return nil, newError(
		ErrExhaustedRetries,
		fmt.Sprintf("failed to start generation after %d attempts", c.submitAttempts),
		nil,
	)
}

func (c *Client) postRender(ctx context.Context, body []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.browserHeaders(httpReq.Header)
	httpReq.Header.Set("Content-Type", "application/json")

	status, respBody, err := c.do(ctx, c.requestTimeout, httpReq)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return newError(ErrService, fmt.Sprintf("status %d: %s", status, truncateBody(respBody)), nil)
	}
	return nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRetryable reports whether err is a per-attempt failure that the client
// absorbs rather than surfaces.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConnectivity) || errors.Is(err, ErrService) || errors.Is(err, ErrMalformedResponse)
}
