// Package server exposes per-session dashboard views over HTTP.
package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"loan-dashboard/internal/common/errors"
	"loan-dashboard/internal/common/logger"
	"loan-dashboard/internal/dashboard"
)

// ReadinessCheck is one dependency probed by /ready.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	Sessions SessionResolver
	Registry *Registry
	Ready    map[string]ReadinessCheck
	Logger   logger.Logger
}

type Server struct {
	sessions SessionResolver
	registry *Registry
	ready    map[string]ReadinessCheck
	logger   logger.Logger
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Server{
		sessions: opts.Sessions,
		registry: opts.Registry,
		ready:    opts.Ready,
		logger:   log,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.ready))
	for name := range s.ready {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.ready[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}
	_ = writeJSON(w, status, map[string]interface{}{"ready": status == http.StatusOK, "checks": checks})
}

// view returns the caller's view; the session middleware guarantees one.
func (s *Server) view(r *http.Request) *dashboard.View {
	sess, _ := sessionFrom(r)
	return s.registry.Get(r.Context(), sess.token, sess.principal)
}

// respond writes the snapshot, or an error body for invalid input. Failed
// loan service calls still produce a snapshot carrying the notification.
func (s *Server) respond(w http.ResponseWriter, view *dashboard.View, err error) {
	if status, ok := statusFor(err); ok {
		writeError(w, status, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, view.Snapshot())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view := s.view(r)
	query := r.URL.Query()

	if query.Has("status") {
		if err := view.SetStatusFilter(query.Get("status")); err != nil {
			s.respond(w, view, err)
			return
		}
	}
	if query.Has("search") {
		view.SetSearchQuery(query.Get("search"))
	}
	s.respond(w, view, nil)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	view := s.view(r)
	s.respond(w, view, view.Refresh(r.Context()))
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	view := s.view(r)
	s.respond(w, view, view.Approve(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	view := s.view(r)
	s.respond(w, view, view.Reject(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	view := s.view(r)
	status := r.URL.Query().Get("status")
	if status == "" {
		writeError(w, http.StatusBadRequest, errors.NewInvalidCommandError("Query parameter 'status' is required", ""))
		return
	}
	s.respond(w, view, view.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status))
}

func (s *Server) handleDisburse(w http.ResponseWriter, r *http.Request) {
	view := s.view(r)
	s.respond(w, view, view.Disburse(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handleOpenEMIs(w http.ResponseWriter, r *http.Request) {
	view := s.view(r)
	s.respond(w, view, view.OpenEMIs(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) handlePayEMI(w http.ResponseWriter, r *http.Request) {
	view := s.view(r)
	s.respond(w, view, view.PayEMI(r.Context(), chi.URLParam(r, "repaymentId"), r.URL.Query().Get("applicationId")))
}

func (s *Server) handleCloseEMIs(w http.ResponseWriter, r *http.Request) {
	view := s.view(r)
	view.CloseEMIs()
	s.respond(w, view, nil)
}
