package render

import "renderbot/internal/infra"

// OptionsFromConfig maps environment configuration onto client options.
func OptionsFromConfig(cfg *infra.Config, logger *infra.Logger) Options {
	return Options{
		BaseURL:                 cfg.RenderBaseURL,
		Logger:                  logger,
		RequestTimeout:          cfg.RenderRequestTimeout,
		HealthTimeout:           cfg.RenderHealthTimeout,
		SubmitAttempts:          cfg.RenderSubmitAttempts,
		RetryDelay:              cfg.RenderRetryDelay,
		PollAttempts:            cfg.RenderPollAttempts,
		MaxConsecutiveMalformed: cfg.RenderPollMaxMalformed,
		Parameters: Parameters{
			Model:  cfg.RenderModel,
			Steps:  cfg.RenderSteps,
			Width:  cfg.RenderWidth,
			Height: cfg.RenderHeight,
		},
	}
}
