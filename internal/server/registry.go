package server

import (
	"context"
	"sync"
	"time"

	"loan-dashboard/internal/common/logger"
	"loan-dashboard/internal/common/metrics"
	"loan-dashboard/internal/dashboard"
	"loan-dashboard/internal/models"
)

// ViewFactory builds an unmounted view for principal.
type ViewFactory func(principal *models.Principal) *dashboard.View

type registryEntry struct {
	view      *dashboard.View
	principal models.Principal
	lastUsed  time.Time
}

// Registry keeps one mounted View per session token and evicts views idle
// for longer than the ttl.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	factory ViewFactory
	ttl     time.Duration
	clock   func() time.Time
	logger  logger.Logger
}

func NewRegistry(factory ViewFactory, ttl time.Duration, log logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Registry{
		entries: make(map[string]*registryEntry),
		factory: factory,
		ttl:     ttl,
		clock:   time.Now,
		logger:  log,
	}
}

// Get returns the view for token, creating and mounting it on first use. A
// token whose session now names a different principal gets a fresh view.
func (r *Registry) Get(ctx context.Context, token string, principal *models.Principal) *dashboard.View {
	r.mu.Lock()
	if e, ok := r.entries[token]; ok && e.principal == *principal {
		e.lastUsed = r.clock()
		r.mu.Unlock()
		return e.view
	}
	r.mu.Unlock()

	view := r.factory(principal)
	_ = view.Mount(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[token]; ok && e.principal == *principal {
		// Lost a race with a concurrent first request; keep the stored view.
		e.lastUsed = r.clock()
		return e.view
	}
	r.entries[token] = &registryEntry{view: view, principal: *principal, lastUsed: r.clock()}
	metrics.ActiveViews.Set(float64(len(r.entries)))
	r.logger.Debug("Dashboard view created", map[string]interface{}{
		"userId": principal.ID,
		"role":   principal.Role,
	})
	return view
}

func (r *Registry) Remove(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, token)
	metrics.ActiveViews.Set(float64(len(r.entries)))
}

// Sweep evicts idle views and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.clock().Add(-r.ttl)
	removed := 0
	for token, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, token)
			removed++
		}
	}
	metrics.ActiveViews.Set(float64(len(r.entries)))
	if removed > 0 {
		r.logger.Info("Evicted idle dashboard views", map[string]interface{}{
			"evicted":   removed,
			"remaining": len(r.entries),
		})
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// RunJanitor sweeps every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
