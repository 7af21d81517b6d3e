package server

import (
	"context"
	"sync"
	"time"

	"social-support-wizard/internal/common/metrics"
	"social-support-wizard/internal/suggestion"
	"social-support-wizard/internal/wizard"
)

// Session is one applicant's wizard and suggestion interaction.
type Session struct {
	ID       string
	Machine  *wizard.Machine
	Workflow *suggestion.Workflow

	lastSeen time.Time
}

// Registry holds live sessions in memory. Durable state lives in the
// persistence store, so an evicted session is rebuilt from its snapshot on
// the next request.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	build    func(ctx context.Context, id string) *Session
	idle     time.Duration
	now      func() time.Time
}

func NewRegistry(idle time.Duration, build func(ctx context.Context, id string) *Session) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		build:    build,
		idle:     idle,
		now:      time.Now,
	}
}

// Get returns the session for id, building it when absent. Idle sessions
// are evicted on the way. Building happens outside the lock so one slow
// restore does not hold up other sessions; when two requests race to build
// the same id, the first insert wins.
func (r *Registry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	now := r.now()
	r.evictLocked(now)
	if s, ok := r.sessions[id]; ok {
		s.lastSeen = now
		r.mu.Unlock()
		return s
	}
	r.mu.Unlock()

	built := r.build(ctx, id)

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = built
		r.sessions[id] = s
		metrics.ActiveSessions.Set(float64(len(r.sessions)))
	} else {
		built.Workflow.Discard()
	}
	s.lastSeen = r.now()
	return s
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) evictLocked(now time.Time) {
	if r.idle <= 0 {
		return
	}
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.idle {
			s.Workflow.Discard()
			delete(r.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
}
