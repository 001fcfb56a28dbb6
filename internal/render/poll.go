package render

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Schedule yields the wait before each poll attempt for a job estimated to
// take estimated. The number of waits is the number of attempts.
type Schedule func(estimated time.Duration) []time.Duration

// FixedSchedule spreads attempts evenly over the estimate, so the whole loop
// lasts about as long as the estimate.
func FixedSchedule(attempts int) Schedule {
	if attempts <= 0 {
		attempts = defaultPollAttempts
	}
	return func(estimated time.Duration) []time.Duration {
		if estimated < 0 {
			estimated = 0
		}
		step := estimated / time.Duration(attempts)
		waits := make([]time.Duration, attempts)
		for i := range waits {
			waits[i] = step
		}
		return waits
	}
}

// ProgressFunc receives the share of the poll budget used so far, 0-100.
type ProgressFunc func(percent int)

type streamResponse struct {
	Output []struct {
		Data string `json:"data"`
	} `json:"output"`
}

// Poll waits for the job to finish and returns the decoded image. Individual
// failed or malformed polls are absorbed; running out of attempts yields
// ErrTimedOut.
func (c *Client) Poll(ctx context.Context, jobID string, estimatedSeconds int, onProgress ProgressFunc) ([]byte, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, newError(ErrValidation, "job id is required", nil)
	}
	waits := c.schedule(time.Duration(estimatedSeconds) * time.Second)
	total := len(waits)
	log := c.logger.With().Str("job_id", jobID).Logger()

	malformed := 0
	for i, wait := range waits {
		attempt := i + 1
		if err := sleep(ctx, wait); err != nil {
			return nil, newError(ErrCancelled, "generation cancelled", err)
		}

		data, err := c.fetchImage(ctx, jobID)
		if err == nil {
			log.Info().Int("attempt", attempt).Int("bytes", len(data)).Msg("render: image ready")
			return data, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newError(ErrCancelled, "generation cancelled", ctxErr)
		}
		if !IsRetryable(err) {
			log.Error().Err(err).Int("attempt", attempt).Msg("render: poll aborted")
			return nil, err
		}

		if errors.Is(err, ErrMalformedResponse) {
			malformed++
			log.Debug().Err(err).Int("attempt", attempt).Int("malformed", malformed).Msg("render: image not ready")
			if c.maxMalformed > 0 && malformed >= c.maxMalformed {
				return nil, newError(
					ErrMalformedResponse,
					fmt.Sprintf("service returned %d malformed results in a row", malformed),
					err,
				)
			}
		} else {
			malformed = 0
			log.Warn().Err(err).Int("attempt", attempt).Msg("render: poll attempt failed")
		}

		if onProgress != nil {
			onProgress(attempt * 100 / total)
		}
	}
	return nil, newError(ErrTimedOut, "timed out waiting for the image", nil)
}

// fetchImage performs one poll. ErrMalformedResponse means the job is not
// ready yet as far as the caller can tell.
func (c *Client) fetchImage(ctx context.Context, jobID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/image/stream/%s/0", c.baseURL, url.PathEscape(jobID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("render: build poll request: %w", err)
	}
	c.browserHeaders(req.Header)

	status, body, err := c.do(ctx, c.requestTimeout, req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, newError(ErrService, fmt.Sprintf("status %d: %s", status, truncateBody(body)), nil)
	}
	return decodeStream(body)
}

func decodeStream(body []byte) ([]byte, error) {
	var decoded streamResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, newError(ErrMalformedResponse, "decode result", err)
	}
	if len(decoded.Output) == 0 {
		return nil, newError(ErrMalformedResponse, "result has no output", nil)
	}
	data := strings.TrimSpace(decoded.Output[0].Data)
	if data == "" {
		return nil, newError(ErrMalformedResponse, "result output has no data", nil)
	}
	img, err := DecodeImageData(data)
	if err != nil {
		return nil, newError(ErrMalformedResponse, "decode image data", err)
	}
	if len(img) == 0 {
		return nil, newError(ErrMalformedResponse, "decoded image is empty", nil)
	}
	return img, nil
}

// DecodeImageData decodes base64 image text, with or without a
// "data:image/...;base64," prefix.
func DecodeImageData(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "data:") {
		_, payload, ok := strings.Cut(data, ",")
		if !ok {
			return nil, errors.New("data uri without payload")
		}
		data = payload
	}
	img, err := base64.StdEncoding.DecodeString(data)
	if err == nil {
		return img, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, err
}
