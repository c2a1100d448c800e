package domain

import (
	"errors"
	"time"
)

// BreakSuggestion is one break offer made to a user. Acceptance is recorded
// when the user takes the break; Accepted and AcceptedAt move together.
type BreakSuggestion struct {
	ID          string
	UserID      string
	Category    Category
	Message     string
	Reason      string // why the engine allowed it, e.g. "No meetings scheduled soon."
	Accepted    bool
	SuggestedAt time.Time
	AcceptedAt  *time.Time // set exactly when Accepted is true
}

// Category is a wellness break category.
type Category string

const (
	CategoryStretch Category = "stretch"
	CategoryHydrate Category = "hydrate"
	CategoryWalk    Category = "walk"
	CategoryBreathe Category = "breathe"
	CategoryRest    Category = "rest"
)

// Categories lists all wellness categories in suggestion rotation order.
var Categories = []Category{CategoryStretch, CategoryHydrate, CategoryWalk, CategoryBreathe, CategoryRest}

// KnownCategory reports whether raw names a wellness category.
func KnownCategory(raw string) bool {
	for _, c := range Categories {
		if string(c) == raw {
			return true
		}
	}
	return false
}

// MessageFor returns the user-facing prompt for the category.
func MessageFor(c Category) string {
	switch c {
	case CategoryStretch:
		return "Stand up and stretch for a couple of minutes."
	case CategoryHydrate:
		return "Grab a glass of water."
	case CategoryWalk:
		return "Take a short walk away from your desk."
	case CategoryBreathe:
		return "Close your eyes and take ten slow breaths."
	case CategoryRest:
		return "Rest your eyes somewhere other than a screen."
	default:
		return "Take a short break."
	}
}

// Validate validates the suggestion for persistence. Returns an error describing the first validation failure.
func (s *BreakSuggestion) Validate() error {
	if s.UserID == "" {
		return errors.New("user id is required")
	}
	if !KnownCategory(string(s.Category)) {
		return errors.New("unknown break category")
	}
	if s.Accepted != (s.AcceptedAt != nil) {
		return errors.New("accepted and accepted_at must be set together")
	}
	return nil
}
