package repository

import (
	"context"

	"focusflow/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByPlatformID returns the user for the platform (team, user) pair, or nil if not found.
	GetByPlatformID(ctx context.Context, teamID, platformUserID string) (*domain.User, error)
	// Create persists the user. Creating an identity pair that already exists is a no-op,
	// so racing first-contact events converge on a single row.
	Create(ctx context.Context, u *domain.User) error
}
