package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"renderbot/internal/http/handlers"
	httpapi "renderbot/internal/http/httpapi"
	"renderbot/internal/infra"
	"renderbot/internal/pipeline"
	"renderbot/internal/render"
	"renderbot/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	client, err := render.NewClient(render.OptionsFromConfig(cfg, &logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure render client")
	}

	var store *storage.FileStore
	if cfg.StoragePath != "" {
		store, err = storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure storage")
		}
		logger.Info().Str("path", store.BasePath()).Msg("saving rendered images")
	}

	params := client.Parameters()
	logger.Info().
		Str("model", params.Model).
		Int("steps", params.Steps).
		Int("width", params.Width).
		Int("height", params.Height).
		Msg("render parameters")

	app := handlers.NewApp(client, pipeline.NewRunner(client, &logger), store)
	app.PollBudget = cfg.PollBudget()
	router := httpapi.NewRouter(app, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("render_api", client.BaseURL()).Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
