package repository

import (
	"context"
	"sync"
	"time"

	"focusflow/backend/internal/session/domain"
)

// MemoryRepository is an in-memory focus session store used when no database
// is configured (dev mode) and in tests. It enforces the same single-active
// guard as the Postgres partial unique index. Safe for concurrent use.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.FocusSession
}

// NewMemoryRepository returns an empty in-memory session repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]*domain.FocusSession)}
}

// GetByID returns the session for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.FocusSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// GetActiveByUser returns the user's active session, or nil when none.
func (r *MemoryRepository) GetActiveByUser(ctx context.Context, userID string) (*domain.FocusSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s := r.activeLocked(userID); s != nil {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// Create stores the session, rejecting a second active session per user with
// domain.ErrActiveExists.
func (r *MemoryRepository) Create(ctx context.Context, s *domain.FocusSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.Status == domain.StatusActive && r.activeLocked(s.UserID) != nil {
		return domain.ErrActiveExists
	}
	cp := *s
	r.sessions[cp.ID] = &cp
	return nil
}

// Finish moves the session to a terminal status and stamps EndTime. Reports
// false when the session was not active anymore.
func (r *MemoryRepository) Finish(ctx context.Context, id string, status domain.Status, endedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != domain.StatusActive {
		return false, nil
	}
	s.Status = status
	end := endedAt
	s.EndTime = &end
	return true, nil
}

// MarkNotified records that the completion push for the session went out.
func (r *MemoryRepository) MarkNotified(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.NotificationSent = true
	}
	return nil
}

// CountCompletedSince returns how many of the user's sessions completed at or after since.
func (r *MemoryRepository) CountCompletedSince(ctx context.Context, userID string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.sessions {
		if s.UserID == userID && s.Status == domain.StatusCompleted && s.EndTime != nil && !s.EndTime.Before(since) {
			n++
		}
	}
	return n, nil
}

// MinutesFocusedSince sums the elapsed minutes of the user's completed
// sessions since the given time. Sessions ended early count what actually ran.
func (r *MemoryRepository) MinutesFocusedSince(ctx context.Context, userID string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, s := range r.sessions {
		if s.UserID == userID && s.Status == domain.StatusCompleted && s.EndTime != nil && !s.EndTime.Before(since) {
			total += int(s.EndTime.Sub(s.StartTime) / time.Minute)
		}
	}
	return total, nil
}

func (r *MemoryRepository) activeLocked(userID string) *domain.FocusSession {
	for _, s := range r.sessions {
		if s.UserID == userID && s.Status == domain.StatusActive {
			return s
		}
	}
	return nil
}
