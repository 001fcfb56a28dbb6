package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	StoragePath      string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	RenderBaseURL          string
	RenderRequestTimeout   time.Duration
	RenderHealthTimeout    time.Duration
	RenderSubmitAttempts   int
	RenderRetryDelay       time.Duration
	RenderPollAttempts     int
	RenderPollMaxMalformed int
	RenderModel            string
	RenderSteps            int
	RenderWidth            int
	RenderHeight           int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		StoragePath:      getEnv("STORAGE_PATH", "./storage"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),

		RenderBaseURL:          strings.TrimRight(os.Getenv("RENDER_API_BASE_URL"), "/"),
		RenderRequestTimeout:   time.Second * time.Duration(getEnvInt("RENDER_REQUEST_TIMEOUT_SECONDS", 60)),
		RenderHealthTimeout:    time.Second * time.Duration(getEnvInt("RENDER_HEALTH_TIMEOUT_SECONDS", 5)),
		RenderSubmitAttempts:   getEnvInt("RENDER_SUBMIT_ATTEMPTS", 3),
		RenderRetryDelay:       time.Second * time.Duration(getEnvInt("RENDER_SUBMIT_RETRY_DELAY_SECONDS", 2)),
		RenderPollAttempts:     getEnvInt("RENDER_POLL_ATTEMPTS", 10),
		RenderPollMaxMalformed: getEnvInt("RENDER_POLL_MAX_MALFORMED", 0),
		RenderModel:            os.Getenv("RENDER_MODEL"),
		RenderSteps:            getEnvInt("RENDER_STEPS", 25),
		RenderWidth:            getEnvInt("RENDER_WIDTH", 512),
		RenderHeight:           getEnvInt("RENDER_HEIGHT", 512),
	}

	if cfg.RenderBaseURL == "" {
		return nil, fmt.Errorf("RENDER_API_BASE_URL is required")
	}
	if cfg.RenderSubmitAttempts <= 0 {
		return nil, fmt.Errorf("RENDER_SUBMIT_ATTEMPTS must be positive, got %d", cfg.RenderSubmitAttempts)
	}
	if cfg.RenderPollAttempts <= 0 {
		return nil, fmt.Errorf("RENDER_POLL_ATTEMPTS must be positive, got %d", cfg.RenderPollAttempts)
	}
	if cfg.PollBudget() <= 0 {
		return nil, fmt.Errorf("HTTP_WRITE_TIMEOUT_SECONDS (%s) must exceed RENDER_REQUEST_TIMEOUT_SECONDS (%s)",
			cfg.HTTPWriteTimeout, cfg.RenderRequestTimeout)
	}

	return cfg, nil
}

// PollBudget is how long a blocking image request may poll so that it still
// answers, after one slow render request, before the write deadline.
func (c *Config) PollBudget() time.Duration {
	return c.HTTPWriteTimeout - c.RenderRequestTimeout
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
