package repository

import (
	"context"
	"sync"

	"focusflow/backend/internal/user/domain"
)

// MemoryRepository is an in-memory user store used when no database is
// configured (dev mode) and in tests. Safe for concurrent use.
type MemoryRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byPlatform map[string]string // teamID+"/"+platformUserID -> id
}

// NewMemoryRepository returns an empty in-memory user repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[string]*domain.User),
		byPlatform: make(map[string]string),
	}
}

func platformKey(teamID, platformUserID string) string {
	return teamID + "/" + platformUserID
}

// GetByID returns the user for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// GetByPlatformID returns the user for the platform (team, user) pair, or nil if not found.
func (r *MemoryRepository) GetByPlatformID(ctx context.Context, teamID, platformUserID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPlatform[platformKey(teamID, platformUserID)]
	if !ok {
		return nil, nil
	}
	cp := *r.byID[id]
	return &cp, nil
}

// Create stores the user. An existing (team, user) pair is left untouched,
// matching the Postgres conflict behavior.
func (r *MemoryRepository) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := platformKey(u.TeamID, u.PlatformUserID)
	if _, ok := r.byPlatform[key]; ok {
		return nil
	}
	cp := *u
	r.byID[cp.ID] = &cp
	r.byPlatform[key] = cp.ID
	return nil
}
