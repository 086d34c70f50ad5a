package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/dashboard", func(r chi.Router) {
		r.Use(sessionMiddleware(s.sessions, s.logger))

		r.Get("/", s.handleDashboard)
		r.Post("/refresh", s.handleRefresh)

		r.Route("/applications/{id}", func(r chi.Router) {
			r.Post("/approve", s.handleApprove)
			r.Post("/reject", s.handleReject)
			r.Put("/status", s.handleUpdateStatus)
			r.Post("/disburse", s.handleDisburse)
			r.Get("/emis", s.handleOpenEMIs)
		})

		r.Post("/emis/{repaymentId}/pay", s.handlePayEMI)
		r.Delete("/emis", s.handleCloseEMIs)
	})

	return r
}
