package repository

import (
	"context"
	"time"

	"focusflow/backend/internal/session/domain"
)

// Repository defines persistence for focus sessions.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.FocusSession, error)
	// GetActiveByUser returns the user's active session, or nil when none.
	GetActiveByUser(ctx context.Context, userID string) (*domain.FocusSession, error)
	// Create persists a new session. Returns domain.ErrActiveExists when the
	// user already has an active one.
	Create(ctx context.Context, s *domain.FocusSession) error
	// Finish moves the session to a terminal status and stamps EndTime.
	// Reports false without error when the session is no longer active, so
	// concurrent finishers resolve to a single transition.
	Finish(ctx context.Context, id string, status domain.Status, endedAt time.Time) (bool, error)
	// MarkNotified records that the completion push for the session went out.
	MarkNotified(ctx context.Context, id string) error
	// CountCompletedSince returns how many of the user's sessions completed at or after since.
	CountCompletedSince(ctx context.Context, userID string, since time.Time) (int, error)
	// MinutesFocusedSince sums the planned minutes of the user's completed sessions since the given time.
	MinutesFocusedSince(ctx context.Context, userID string, since time.Time) (int, error)
}
