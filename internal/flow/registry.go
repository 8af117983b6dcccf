package flow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/impact-sim/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrSessionNotFound is returned for unknown or evicted session ids.
var ErrSessionNotFound = errors.New("session not found")

// NewControllerFunc builds the controller for a new session. The logger
// already carries the session id.
type NewControllerFunc func(logger *slog.Logger) *Controller

type session struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry tracks live sessions by id and evicts those left idle.
type Registry struct {
	newController NewControllerFunc
	idleTimeout   time.Duration
	clock         clockwork.Clock
	logger        *slog.Logger
	metrics       *observability.Metrics

	mu       sync.Mutex
	sessions map[string]*session
	running  atomic.Bool
}

// NewRegistry creates an empty Registry.
func NewRegistry(newController NewControllerFunc, idleTimeout time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Registry {
	return &Registry{
		newController: newController,
		idleTimeout:   idleTimeout,
		clock:         clock,
		logger:        logger,
		metrics:       metrics,
		sessions:      make(map[string]*session),
	}
}

// Create starts a new session and returns its id.
func (r *Registry) Create() (string, *Controller) {
	id := uuid.NewString()
	ctrl := r.newController(r.logger.With("session_id", id))

	r.mu.Lock()
	r.sessions[id] = &session{ctrl: ctrl, lastSeen: r.clock.Now()}
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.ActiveSessions.Set(float64(n))
	r.logger.Info("session created", "session_id", id)
	return id, ctrl
}

// Get returns the session's controller and marks it as recently used.
func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = r.clock.Now()
	return s.ctrl, nil
}

// Delete closes and forgets the session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	r.metrics.ActiveSessions.Set(float64(n))
	s.ctrl.Close()
	r.logger.Info("session deleted", "session_id", id)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle closes every session unused for longer than the idle timeout and
// returns how many were removed.
func (r *Registry) EvictIdle() int {
	cutoff := r.clock.Now().Add(-r.idleTimeout)

	r.mu.Lock()
	var stale []*Controller
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			stale = append(stale, s.ctrl)
			delete(r.sessions, id)
			r.logger.Info("session evicted", "session_id", id, "idle_for", r.clock.Since(s.lastSeen))
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, ctrl := range stale {
		ctrl.Close()
	}
	if len(stale) > 0 {
		r.metrics.ActiveSessions.Set(float64(n))
	}
	return len(stale)
}

// Run evicts idle sessions periodically until ctx is cancelled, then closes
// every remaining session.
func (r *Registry) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)
	r.logger.Info("session registry started", "idle_timeout", r.idleTimeout)

	ticker := r.clock.NewTicker(sweepInterval(r.idleTimeout))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			r.logger.Info("session registry stopped", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			r.EvictIdle()
		}
	}
}

// CheckReadiness reports whether the registry is accepting sessions.
func (r *Registry) CheckReadiness(_ context.Context) error {
	if !r.running.Load() {
		return errors.New("session registry is not running")
	}
	return nil
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*session)
	r.mu.Unlock()

	for _, s := range all {
		s.ctrl.Close()
	}
	r.metrics.ActiveSessions.Set(0)
}

// sweepInterval checks for idle sessions twice per timeout, and at least once
// a minute.
func sweepInterval(idle time.Duration) time.Duration {
	d := idle / 2
	if d > time.Minute {
		return time.Minute
	}
	if d <= 0 {
		return time.Second
	}
	return d
}
