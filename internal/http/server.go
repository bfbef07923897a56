// Package http exposes the expense admin API over JSON.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"medexpense/internal/metrics"
	"medexpense/internal/middleware/trace"
	"medexpense/internal/services"
)

// Server wires the service layer to the HTTP routes.
type Server struct {
	httpServer *http.Server
	expenses   *services.ExpenseService
	employees  *services.EmployeeService
	images     *services.ImageService
}

func NewServer(port int, expenses *services.ExpenseService, employees *services.EmployeeService, images *services.ImageService, collector *metrics.Collector, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		expenses:  expenses,
		employees: employees,
		images:    images,
	}

	r := chi.NewRouter()
	r.Use(trace.NewMiddleware(collector).Middleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)

		r.Route("/expenses/{id}", func(r chi.Router) {
			r.Post("/status", s.handleExpenseStatus)
			r.Get("/bill", s.handleBillImage)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", s.handleListEmployees)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetEmployee)
				r.Get("/avatar", s.handleAvatar)
				r.Delete("/", s.handleDeleteEmployee)
			})
		})
	})

	r.Get("/healthz", s.handleHealth)
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly so tests can drive it through
// httptest without opening a port.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
