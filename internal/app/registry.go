package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Talk/internal/core"
	"github.com/dkeye/Talk/internal/domain"
	"github.com/dkeye/Talk/internal/metrics"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	User   domain.UserID
	Signal core.SignalConnection
	Cancel context.CancelFunc
	Since  time.Time
}

// Registry is the per-process connection registry. It is also the
// core.Emitter every outbound event goes through.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.ConnID]*sessionEntry
	policy   Policy
}

func NewRegistry(policy Policy) *Registry {
	if policy == nil {
		policy = SimplePolicy{Action: Disconnect}
	}
	return &Registry{
		sessions: make(map[core.ConnID]*sessionEntry),
		policy:   policy,
	}
}

// Bind registers a live connection. user may be empty for anonymous sessions.
func (r *Registry) Bind(
	id core.ConnID,
	user domain.UserID,
	sig core.SignalConnection,
	cancel context.CancelFunc,
) {
	r.mu.Lock()
	r.sessions[id] = &sessionEntry{
		User:   user,
		Signal: sig,
		Cancel: cancel,
		Since:  time.Now(),
	}
	n := len(r.sessions)
	r.mu.Unlock()
	metrics.ConnectionsActive.Set(float64(n))
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Str("user", string(user)).Msg("bound session")
}

// Unbind forgets a connection and reports whether it was bound.
func (r *Registry) Unbind(id core.ConnID) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	if ok {
		metrics.ConnectionsActive.Set(float64(n))
		log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("unbind session")
	}
	return ok
}

func (r *Registry) UserOf(id core.ConnID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	if !ok || e.User == "" {
		return "", false
	}
	return e.User, true
}

func (r *Registry) Has(id core.ConnID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[id]
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Emit queues f on the target connection without blocking.
func (r *Registry) Emit(to core.ConnID, f core.Frame) {
	r.mu.RLock()
	e, ok := r.sessions[to]
	r.mu.RUnlock()
	if !ok {
		metrics.EventsDropped.WithLabelValues(metrics.ReasonNoTarget).Inc()
		log.Debug().Str("module", "app.registry").Str("sid", string(to)).Msg("emit to unknown connection dropped")
		return
	}
	err := e.Signal.TrySend(f)
	if err == nil {
		return
	}
	if errors.Is(err, core.ErrConnClosed) {
		metrics.EventsDropped.WithLabelValues(metrics.ReasonClosed).Inc()
		log.Debug().Str("module", "app.registry").Str("sid", string(to)).Msg("emit to closing connection dropped")
		return
	}
	metrics.EventsDropped.WithLabelValues(metrics.ReasonBackpressure).Inc()
	log.Warn().Err(err).Str("module", "app.registry").Str("sid", string(to)).Msg("send failed")
	if r.policy.OnBackPressure(to) == Disconnect {
		r.Cancel(to)
	}
}

// Cancel tears the connection down; the transport then reports the disconnect.
func (r *Registry) Cancel(id core.ConnID) bool {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("canceled session")
	return true
}
