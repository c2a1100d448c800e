package repository

import (
	"context"
	"sync"
	"time"

	"focusflow/backend/internal/suggestion/domain"
)

// MemoryRepository is an in-memory suggestion store used when no database is
// configured (dev mode) and in tests. Safe for concurrent use.
type MemoryRepository struct {
	mu          sync.RWMutex
	suggestions map[string]*domain.BreakSuggestion
}

// NewMemoryRepository returns an empty in-memory suggestion repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{suggestions: make(map[string]*domain.BreakSuggestion)}
}

// GetByID returns the suggestion for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.BreakSuggestion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.suggestions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// Create stores the suggestion.
func (r *MemoryRepository) Create(ctx context.Context, s *domain.BreakSuggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.suggestions[cp.ID] = &cp
	return nil
}

// Accept marks the suggestion accepted and stamps AcceptedAt. Reports false
// when the suggestion does not exist or was already accepted.
func (r *MemoryRepository) Accept(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suggestions[id]
	if !ok || s.Accepted {
		return false, nil
	}
	s.Accepted = true
	stamp := at
	s.AcceptedAt = &stamp
	return true, nil
}

// CountSince returns how many suggestions the user received at or after since.
func (r *MemoryRepository) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.suggestions {
		if s.UserID == userID && !s.SuggestedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// CountAcceptedSince returns how many suggestions the user accepted at or after since.
func (r *MemoryRepository) CountAcceptedSince(ctx context.Context, userID string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.suggestions {
		if s.UserID == userID && s.Accepted && s.AcceptedAt != nil && !s.AcceptedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
