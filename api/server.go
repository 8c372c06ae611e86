/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/requests/*    Request submission, decisions, overrides
  /api/hierarchy/*   Manager-change hook and blanket transfers
  /api/users/*       Directory administration
  /api/pto-types/*   Type administration
  /api/blackouts/*   Blackout catalog administration
  /api/holidays/*    Company holiday administration

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Request routes
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.SubmitRequest)
			r.Post("/validate", h.ValidateRequest)
			r.Get("/{id}", h.GetRequest)
			r.Get("/{id}/progress", h.GetProgress)
			r.Post("/{id}/decision", h.DecideApproval)
			r.Post("/{id}/acknowledge", h.AcknowledgeWarnings)
			r.Post("/{id}/override", h.RequestOverride)
			r.Post("/{id}/override/decision", h.DecideOverride)
		})

		// Hierarchy routes
		r.Route("/hierarchy", func(r chi.Router) {
			r.Post("/manager-changed", h.ManagerChanged)
			r.Post("/transfers", h.TransferApprovals)
		})

		// Directory routes
		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.UpsertUser)
			r.Get("/{id}", h.GetUser)
		})

		// Type routes
		r.Route("/pto-types", func(r chi.Router) {
			r.Post("/", h.UpsertPtoType)
		})

		// Blackout routes
		r.Route("/blackouts", func(r chi.Router) {
			r.Get("/", h.ListBlackouts)
			r.Post("/", h.UpsertBlackout)
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Post("/", h.CreateHoliday)
		})
	})

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
