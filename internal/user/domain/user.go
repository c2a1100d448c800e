package domain

import (
	"errors"
	"time"
)

// User is a chat platform user known to the assistant. Users are provisioned
// automatically on first contact, keyed by the platform (team, user) pair.
type User struct {
	ID             string
	TeamID         string
	PlatformUserID string
	DisplayName    string // optional; platform display name at provisioning time
	Timezone       string // IANA zone name (e.g. "America/New_York"); empty means UTC
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.TeamID == "" {
		return errors.New("team id is required")
	}
	if u.PlatformUserID == "" {
		return errors.New("platform user id is required")
	}
	return nil
}

// Location resolves the user's timezone, falling back to UTC when unset or unknown.
func (u *User) Location() *time.Location {
	if u == nil || u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
