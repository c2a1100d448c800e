package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"focusflow/backend/internal/meeting/domain"
)

// MemoryRepository is an in-memory meeting store used when no database is
// configured (dev mode) and in tests. Safe for concurrent use.
type MemoryRepository struct {
	mu       sync.RWMutex
	meetings map[string]*domain.Meeting
}

// NewMemoryRepository returns an empty in-memory meeting repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{meetings: make(map[string]*domain.Meeting)}
}

// ListForWindow returns the user's meetings overlapping [from, to), ordered by start time.
func (r *MemoryRepository) ListForWindow(ctx context.Context, userID string, from, to time.Time) ([]*domain.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Meeting
	for _, m := range r.meetings {
		if m.UserID == userID && m.StartTime.Before(to) && m.EndTime.After(from) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// Upsert stores the meeting, replacing any entry with the same ID.
func (r *MemoryRepository) Upsert(ctx context.Context, m *domain.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.meetings[cp.ID] = &cp
	return nil
}
