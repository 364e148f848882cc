/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/loans/*     Loan management and computed views
  /api/admin/*     Benchmark rate update

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
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

	r.Route("/api", func(r chi.Router) {
		r.Route("/loans", func(r chi.Router) {
			r.Get("/", h.ListLoans)
			r.Post("/", h.CreateLoan)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetLoan)
				r.Delete("/", h.DeleteLoan)

				r.Get("/payments", h.ListPayments)
				r.Post("/payments", h.RecordPayment)
				r.Delete("/payments/{pid}", h.DeletePayment)

				r.Get("/rates", h.ListRates)
				r.Post("/rates", h.AddRatePeriod)

				r.Get("/schedule/forecast", h.GetForecastSchedule)
				r.Get("/schedule/actual", h.GetActualSchedule)
				r.Get("/statuses", h.GetStatuses)
				r.Get("/summary/{month}", h.GetMonthlySummary)
				r.Get("/export/{kind}", h.ExportCSV)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/update-prime", h.TriggerPrimeUpdate)
		})
	})

	return r
}
