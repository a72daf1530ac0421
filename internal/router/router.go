// Package router sets up the HTTP routes and middleware chain for the
// WaveCMS category API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"wavecms/internal/handlers"
	"wavecms/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(categories *handlers.Categories, ops *handlers.Ops) chi.Router {
	r := chi.NewRouter()

	// Global middleware applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	// Health check.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categories.List)
			r.Post("/", categories.Create)
			r.Post("/batch", categories.Batch)
			r.Put("/{id}", categories.Update)
			r.Delete("/{id}", categories.Delete)
		})

		// Operator endpoints. Authentication is enforced upstream by
		// the deployment's gateway, not inside this service.
		r.Route("/admin", func(r chi.Router) {
			r.Get("/diagnostic", ops.Diagnostic)
			r.Get("/drift", ops.Drift)
			r.Post("/repair", ops.Repair)
			r.Post("/audios/{id}/sync", ops.SyncAudio)

			r.Route("/cache", func(r chi.Router) {
				r.Get("/stats", ops.CacheStats)
				r.Post("/warm", ops.WarmCache)
				r.Post("/benchmark", ops.BenchmarkCache)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
