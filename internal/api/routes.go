package api

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the API endpoints on r.
func RegisterRoutes(r chi.Router, jobs *JobHandler, health *HealthHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/jobs", jobs.SubmitJob)
		r.Get("/jobs/latest", jobs.GetLatestJob)
		r.Get("/jobs/{id}", jobs.GetJob)
	})

	r.Get("/health", health.Health)
}
