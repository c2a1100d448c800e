package domain

import (
	"errors"
	"time"
)

// FocusSession is one timed focus interval for a user.
type FocusSession struct {
	ID               string
	UserID           string
	DurationMinutes  int
	StartTime        time.Time
	EndTime          *time.Time // nil while the session is active
	Status           Status
	NotificationSent bool // completion push delivered (best effort)
	CreatedAt        time.Time
}

// Status is the lifecycle state of a focus session. Terminal states are absorbing.
type Status string

const (
	StatusActive      Status = "active"
	StatusCompleted   Status = "completed"
	StatusInterrupted Status = "interrupted"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusInterrupted
}

// ErrActiveExists is returned by repositories when creating a session for a
// user who already has an active one. Backed by a partial unique index in Postgres.
var ErrActiveExists = errors.New("user already has an active focus session")

// Validate validates the session for persistence. Returns an error describing the first validation failure.
func (s *FocusSession) Validate() error {
	if s.UserID == "" {
		return errors.New("user id is required")
	}
	if s.DurationMinutes < 1 || s.DurationMinutes > 480 {
		return errors.New("duration must be between 1 and 480 minutes")
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	return nil
}

// ExpectedEnd returns the scheduled end of the session.
func (s *FocusSession) ExpectedEnd() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Remaining returns the time left until the scheduled end, floored at zero.
func (s *FocusSession) Remaining(now time.Time) time.Duration {
	d := s.ExpectedEnd().Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
