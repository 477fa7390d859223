/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/tenancies/*    Tenancy, schedule, deposit and statement operations
  /api/preview        Schedule pricing without persistence
  /api/cadences       The closed cadence set
  /api/scenarios/*    Demo scenarios
  /api/jobs/*         Manual job triggers

SECURITY NOTE:
  No authentication middleware currently. Actor attribution comes from
  the X-Actor header; all endpoints are public.

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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Tenancy routes
		r.Route("/tenancies", func(r chi.Router) {
			r.Get("/", h.ListTenancies)
			r.Post("/", h.CreateTenancy)
			r.Get("/{id}", h.GetTenancy)
			r.Get("/{id}/schedule", h.GetSchedule)
			r.Post("/{id}/schedule", h.GenerateSchedule)
			r.Post("/{id}/key-return", h.KeyReturn)
			r.Post("/{id}/holding-deposit", h.HoldingDeposit)
			r.Post("/{id}/amendments", h.CreateAmendment)
			r.Get("/{id}/statement", h.GetStatement)
			r.Get("/{id}/members/{memberID}/statement", h.GetMemberStatement)
			r.Get("/{id}/audit", h.GetAudit)
		})

		// Pricing without persistence
		r.Post("/preview", h.PreviewSchedule)

		// Reference data
		r.Get("/cadences", h.ListCadences)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/{name}", h.LoadScenario)
		})

		// Job triggers
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/rolling/run", h.RunRollingJob)
		})
	})

	// The API is headless; anything outside /api lands here.
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Schedule Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Payment Schedule Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/tenancies">/api/tenancies</a> - List tenancies</li>
<li><a href="/api/cadences">/api/cadences</a> - Payment cadences</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
