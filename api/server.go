/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in logs
  2. AccessLog:  One zap entry per request (method, path, status, duration)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the calculator UI

ROUTE GROUPS:
  /api/cam/*                     Calculate, check, save
  /api/properties/*              Registry, settings, stored charges
  /api/units/*                   Leases
  /api/leases/*                  Lease charges and expense items
  /api/scenarios/*               Demo scenarios (EnableScenarios only)
  /healthz                       Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(AccessLog(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", UserHeader},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/cam", func(r chi.Router) {
			r.Post("/calculate", h.CalculateCharges)
			r.Post("/check", h.CheckCharges)
			r.Post("/charges", h.SaveCharges)
		})

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.ListProperties)
			r.Post("/", h.CreateProperty)
			r.Get("/{id}", h.GetProperty)
			r.Get("/{id}/units", h.ListUnits)
			r.Post("/{id}/units", h.CreateUnit)
			r.Get("/{id}/cam/settings", h.GetSettings)
			r.Put("/{id}/cam/settings", h.UpdateSettings)
			r.Get("/{id}/cam/charges", h.ListPropertyCharges)
		})

		r.Route("/units", func(r chi.Router) {
			r.Get("/{id}/leases", h.ListLeases)
			r.Post("/{id}/leases", h.CreateLease)
		})

		r.Route("/leases", func(r chi.Router) {
			r.Get("/{id}/cam/charges", h.ListLeaseCharges)
			r.Get("/{id}/cam/{year}/items", h.ListExpenseItems)
			r.Post("/{id}/cam/{year}/items", h.AddExpenseItems)
		})

		// Scenario routes reset the store; development only.
		if h.EnableScenarios {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
				r.Post("/reset", h.ResetDatabase)
			})
		}
	})

	return r
}

// AccessLog writes one structured log entry per request.
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
