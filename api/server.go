/*
server.go - HTTP router and middleware configuration

ROUTER: chi
MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       The desktop client runs on a localhost origin

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

// NewRouter creates the router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

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
		r.Route("/providers", func(r chi.Router) {
			r.Get("/", h.ListProviders)
			r.Post("/", h.SaveProvider)
			r.Get("/{id}", h.GetProvider)
			r.Put("/{id}", h.SaveProvider)
			r.Delete("/{id}", h.DeleteProvider)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.SaveProject)
			r.Get("/{id}", h.GetProject)
			r.Put("/{id}", h.SaveProject)
			r.Delete("/{id}", h.DeleteProject)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.SaveEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}", h.SaveEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
		})

		r.Route("/supplies", func(r chi.Router) {
			r.Get("/", h.ListSupplies)
			r.Post("/", h.SaveSupply)
			r.Get("/receipts", h.ListReceipts)
			r.Post("/receipts/delete", h.DeleteReceiptGroup)
			r.Get("/{id}", h.GetSupply)
			r.Put("/{id}", h.SaveSupply)
			r.Delete("/{id}", h.DeleteSupply)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Get("/", h.ListPayroll)
			r.Post("/", h.SavePayroll)
			r.Get("/weeks", h.ListPeriodWeeks)
			r.Get("/{id}", h.GetPayroll)
			r.Delete("/{id}", h.DeletePayroll)
			r.Post("/{id}/state", h.TransitionPayroll)
			r.Get("/{id}/history", h.ListPayrollHistory)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/receipts.xlsx", h.ExportReceiptsXLSX)
			r.Get("/receipts.csv", h.ExportReceiptsCSV)
			r.Get("/payroll/{id}.pdf", h.ExportPayrollPDF)
		})
	})

	return r
}
