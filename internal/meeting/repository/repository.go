package repository

import (
	"context"
	"time"

	"focusflow/backend/internal/meeting/domain"
)

// Repository defines persistence for meetings.
type Repository interface {
	// ListForWindow returns the user's meetings overlapping [from, to),
	// ordered by start time.
	ListForWindow(ctx context.Context, userID string, from, to time.Time) ([]*domain.Meeting, error)
	// Upsert inserts the meeting or, when the ID exists, refreshes its title
	// and times. Used by calendar sync and by seeding.
	Upsert(ctx context.Context, m *domain.Meeting) error
}
