package domain

import (
	"errors"
	"time"
)

// Meeting is a calendar entry synced from the user's provider. The assistant
// only reads meetings when timing breaks; an external sync job owns their
// lifecycle and keeps them fresh via Upsert.
type Meeting struct {
	ID        string
	UserID    string
	Title     string
	StartTime time.Time
	EndTime   time.Time
	CreatedAt time.Time
}

// Validate validates the meeting for persistence. Returns an error describing the first validation failure.
func (m *Meeting) Validate() error {
	if m.UserID == "" {
		return errors.New("user id is required")
	}
	if !m.EndTime.After(m.StartTime) {
		return errors.New("end time must be after start time")
	}
	return nil
}

// InProgressAt reports whether t falls inside the meeting. The interval is
// closed-open: exactly at the start counts as in the meeting, exactly at the
// end does not.
func (m *Meeting) InProgressAt(t time.Time) bool {
	return !t.Before(m.StartTime) && t.Before(m.EndTime)
}
