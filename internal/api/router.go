package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// WS ticket requires authentication - user must be logged in to request a ticket
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Profile endpoints
			r.Route("/profiles", func(r chi.Router) {
				r.Get("/", s.handleListProfiles)
				r.Post("/", s.handleCreateProfile)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetProfile)
					r.Put("/", s.handleUpdateProfile)
					r.Delete("/", s.handleDeleteProfile)

					r.Get("/schedule", s.handleGetSchedule)
					r.Post("/schedule/regenerate", s.handleRegenerate)
					r.Get("/preferences", s.handleGetPreferences)
					r.Get("/runs", s.handleListRuns)

					r.Route("/suggestions", func(r chi.Router) {
						r.Get("/", s.handleListSuggestions)
						r.Post("/{itemID}/approve", s.handleApproveSuggestion)
						r.Post("/{itemID}/reject", s.handleRejectSuggestion)
					})
				})
			})

			// Controller endpoints
			r.Route("/controllers", func(r chi.Router) {
				r.Get("/", s.handleListControllers)
				r.Post("/", s.handleCreateController)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetController)
					r.Patch("/", s.handleUpdateController)
					r.Delete("/", s.handleDeleteController)
				})
			})

			// WebSocket (auth via ticket, validated in handler)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
