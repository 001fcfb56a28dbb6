package httpapi

import (
	stdhttp "net/http"

	"renderbot/internal/http/handlers"
	"renderbot/internal/infra"
	appmw "renderbot/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *handlers.App, logger infra.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(appmw.RequestID, middleware.RealIP, appmw.Logger(logger), middleware.Recoverer)

	// Health
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/service/health", app.ServiceHealth)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/", app.SubmitJob)
		r.Get("/{job_id}/image", app.JobImage)
	})

	r.Post("/v1/renders", app.Render)

	return r
}
