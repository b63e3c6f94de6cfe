package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds the database ping made by /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// A bad token is rejected everywhere, public routes included.
		r.Use(s.identityMiddleware)

		r.Get("/health", s.handleHealth)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireIdentity)

			r.Get("/metrics", s.handleMetrics)

			r.Route("/account", func(r chi.Router) {
				r.Get("/", s.handleGetAccount)
				r.Get("/activity", s.handleAccountActivity)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", s.handleListProjects)
				r.Post("/", s.handleCreateProject)

				r.Route("/{projectID}", func(r chi.Router) {
					r.Get("/", s.handleGetProject)
					r.Put("/", s.handleUpdateProject)
					r.Delete("/", s.handleDeleteProject)

					r.Route("/tasks", func(r chi.Router) {
						r.Get("/", s.handleListTasks)
						r.Post("/", s.handleCreateTask)

						r.Route("/{taskID}", func(r chi.Router) {
							r.Get("/", s.handleGetTask)
							r.Put("/", s.handleUpdateTask)
							r.Delete("/", s.handleDeleteTask)
						})
					})
				})
			})
		})
	})

	return r
}

// handleHealth reports ok, or 503 when the database does not answer.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.db.HealthCheck(ctx); err != nil {
			s.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":  "unhealthy",
				"version": s.version,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
