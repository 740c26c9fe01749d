package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/shopvista/internal/domain"
	apperrors "github.com/utafrali/shopvista/pkg/errors"
)

// SessionRepository is an in-process session store. Thread-safe via
// sync.RWMutex. Expired sessions are invisible to Get and are dropped by Sweep.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	now      func() time.Time
}

// NewSessionRepository creates an empty in-memory session store.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// Get returns a copy of the stored session.
func (r *SessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok || s.Expired(r.now()) {
		return nil, apperrors.NotFound("session", id)
	}
	return s.Clone(), nil
}

// SaveIfVersion stores a copy of session when the stored version matches
// expectedVersion. An expired session counts as absent.
func (r *SessionRepository) SaveIfVersion(_ context.Context, session *domain.Session, expectedVersion int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := 0
	if s, ok := r.sessions[session.ID]; ok && !s.Expired(r.now()) {
		current = s.Version
	}
	if current != expectedVersion {
		return false, nil
	}

	session.Version = expectedVersion + 1
	r.sessions[session.ID] = session.Clone()
	return true, nil
}

// Delete removes a session.
func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// Ping always succeeds.
func (r *SessionRepository) Ping(context.Context) error {
	return nil
}

// Sweep drops every expired session and returns how many were removed.
func (r *SessionRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired ones included.
func (r *SessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// RunJanitor calls Sweep every interval until ctx is canceled.
func (r *SessionRepository) RunJanitor(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logger.DebugContext(ctx, "expired sessions swept",
					slog.Int("removed", n),
					slog.Int("remaining", r.Len()),
				)
			}
		}
	}
}
