package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/slide-explainer/internal/api"
	apiMiddleware "github.com/phrazzld/slide-explainer/internal/api/middleware"
)

// setupRouter creates the router with the standard middleware and every API route.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	jobHandler := api.NewJobHandler(app.jobService, app.maxUploadBytes(), app.logger)
	healthHandler := api.NewHealthHandler(app.registry.db)

	api.RegisterRoutes(r, jobHandler, healthHandler)

	return r
}
