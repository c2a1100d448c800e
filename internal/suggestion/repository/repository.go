package repository

import (
	"context"
	"time"

	"focusflow/backend/internal/suggestion/domain"
)

// Repository defines persistence for break suggestions.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.BreakSuggestion, error)
	Create(ctx context.Context, s *domain.BreakSuggestion) error
	// Accept marks the suggestion accepted and stamps AcceptedAt in one step,
	// keeping the two fields in lockstep. Reports false when the suggestion
	// does not exist or was already accepted.
	Accept(ctx context.Context, id string, at time.Time) (bool, error)
	// CountSince returns how many suggestions the user received at or after since.
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
	// CountAcceptedSince returns how many of those the user accepted.
	CountAcceptedSince(ctx context.Context, userID string, since time.Time) (int, error)
}
