package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"renderbot/internal/infra"
)

const (
	defaultRequestTimeout = 60 * time.Second
	defaultHealthTimeout  = 5 * time.Second
	defaultSubmitAttempts = 3
	defaultRetryDelay     = 2 * time.Second
	defaultPollAttempts   = 10

	// maxErrorBody bounds how much of a failed response body ends up in logs.
	maxErrorBody = 2048
)

// Options configures a Client. Zero values fall back to the defaults of the
// render service contract.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
	HealthTimeout  time.Duration
	SubmitAttempts int
	// RetryDelay is the fixed back-off between submissions; negative means none.
	RetryDelay time.Duration
	// Schedule paces the poll loop; nil means FixedSchedule(PollAttempts).
	Schedule     Schedule
	PollAttempts int
	// MaxConsecutiveMalformed fails a poll early after that many malformed
	// 200 responses in a row. Zero disables the check.
	MaxConsecutiveMalformed int
	Parameters              Parameters
}

// Client talks to the render service. It carries only immutable
// configuration and is safe for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	logger         *infra.Logger
	requestTimeout time.Duration
	healthTimeout  time.Duration
	submitAttempts int
	retryDelay     time.Duration
	schedule       Schedule
	maxMalformed   int
	params         Parameters
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("render: base url is required")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("render: base url must be http(s): %s", baseURL)
	}
	requestTimeout := opts.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	healthTimeout := opts.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = defaultHealthTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	attempts := opts.SubmitAttempts
	if attempts <= 0 {
		attempts = defaultSubmitAttempts
	}
	retryDelay := opts.RetryDelay
	if retryDelay < 0 {
		retryDelay = 0
	} else if retryDelay == 0 {
		retryDelay = defaultRetryDelay
	}
	schedule := opts.Schedule
	if schedule == nil {
		pollAttempts := opts.PollAttempts
		if pollAttempts <= 0 {
			pollAttempts = defaultPollAttempts
		}
		schedule = FixedSchedule(pollAttempts)
	}
	maxMalformed := opts.MaxConsecutiveMalformed
	if maxMalformed < 0 {
		maxMalformed = 0
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		baseURL:        baseURL,
		httpClient:     httpClient,
		logger:         logger,
		requestTimeout: requestTimeout,
		healthTimeout:  healthTimeout,
		submitAttempts: attempts,
		retryDelay:     retryDelay,
		schedule:       schedule,
		maxMalformed:   maxMalformed,
		params:         opts.Parameters.withDefaults(),
	}, nil
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Parameters returns the parameter set used by Submit.
func (c *Client) Parameters() Parameters {
	return c.params
}

// browserHeaders makes requests pass the service's origin/referer check.
func (c *Client) browserHeaders(h http.Header) {
	h.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	h.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Referer", c.baseURL+"/")
	h.Set("Origin", c.baseURL)
}

// do performs one request bounded by timeout and returns status and body.
// Transport failures come back wrapped in ErrConnectivity.
func (c *Client) do(ctx context.Context, timeout time.Duration, req *http.Request) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	resp, err := c.httpClient.Do(req.WithContext(reqCtx))
	if err != nil {
		return 0, nil, newError(ErrConnectivity, fmt.Sprintf("connection error: %v", err), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, newError(ErrConnectivity, fmt.Sprintf("read response: %v", err), err)
	}
	return resp.StatusCode, body, nil
}

func truncateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		return text[:maxErrorBody] + "..."
	}
	return text
}
