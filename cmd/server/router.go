package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/atlas-api/internal/api"
	apiMiddleware "github.com/phrazzld/atlas-api/internal/api/middleware"
)

// setupRouter wires the HTTP surface: open session endpoint, JWT-guarded
// job endpoints, and a health check outside the /api tree.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	authHandler := api.NewAuthHandler(
		app.config.Auth.TokenHash,
		app.jwtService,
		app.tokenVerifier,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	jobHandler := api.NewJobHandler(app.tracker, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/session", authHandler.CreateSession)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/jobs", jobHandler.ListJobs)
			r.Route("/jobs/{subjectID}", func(r chi.Router) {
				r.Get("/", jobHandler.GetJob)
				r.Post("/", jobHandler.StartJob)
				r.Patch("/", jobHandler.UpdateJob)
				r.Delete("/", jobHandler.CompleteJob)
				r.Post("/reports", jobHandler.StartReportsJob)
				r.Post("/resume", jobHandler.ResumeJob)
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
