package repository

import (
	"context"
	"testing"
	"time"

	"focusflow/backend/internal/suggestion/domain"
)

func seedSuggestion(t *testing.T, r *MemoryRepository, id string, at time.Time) {
	t.Helper()
	err := r.Create(context.Background(), &domain.BreakSuggestion{
		ID:          id,
		UserID:      "u1",
		Category:    domain.CategoryStretch,
		Message:     domain.MessageFor(domain.CategoryStretch),
		Reason:      "No meetings scheduled soon.",
		SuggestedAt: at,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestAccept_ExactlyOnce(t *testing.T) {
	r := NewMemoryRepository()
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	seedSuggestion(t, r, "s1", now)

	ok, err := r.Accept(context.Background(), "s1", now.Add(time.Minute))
	if err != nil || !ok {
		t.Fatalf("first Accept = %v, %v; want true", ok, err)
	}
	got, _ := r.GetByID(context.Background(), "s1")
	if !got.Accepted || got.AcceptedAt == nil || !got.AcceptedAt.Equal(now.Add(time.Minute)) {
		t.Errorf("suggestion after accept = %+v", got)
	}

	ok, err = r.Accept(context.Background(), "s1", now.Add(2*time.Minute))
	if err != nil || ok {
		t.Fatalf("second Accept = %v, %v; want false", ok, err)
	}
	got, _ = r.GetByID(context.Background(), "s1")
	if !got.AcceptedAt.Equal(now.Add(time.Minute)) {
		t.Error("second accept must not move the acceptance time")
	}
}

func TestAccept_Missing(t *testing.T) {
	r := NewMemoryRepository()
	ok, err := r.Accept(context.Background(), "nope", time.Now())
	if err != nil || ok {
		t.Errorf("Accept(missing) = %v, %v; want false, nil", ok, err)
	}
}

func TestCounts(t *testing.T) {
	r := NewMemoryRepository()
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	seedSuggestion(t, r, "old", day.Add(-time.Hour))
	seedSuggestion(t, r, "s1", day.Add(9*time.Hour))
	seedSuggestion(t, r, "s2", day.Add(10*time.Hour))
	if _, err := r.Accept(context.Background(), "s2", day.Add(10*time.Hour)); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if n, _ := r.CountSince(context.Background(), "u1", day); n != 2 {
		t.Errorf("CountSince = %d, want 2", n)
	}
	if n, _ := r.CountAcceptedSince(context.Background(), "u1", day); n != 1 {
		t.Errorf("CountAcceptedSince = %d, want 1", n)
	}
	if n, _ := r.CountSince(context.Background(), "other", day); n != 0 {
		t.Errorf("CountSince(other) = %d, want 0", n)
	}
}

func TestValidate_AcceptedPairing(t *testing.T) {
	now := time.Now().UTC()
	s := &domain.BreakSuggestion{UserID: "u1", Category: domain.CategoryWalk, Accepted: true}
	if err := s.Validate(); err == nil {
		t.Error("accepted without accepted_at should fail")
	}
	s.AcceptedAt = &now
	if err := s.Validate(); err != nil {
		t.Errorf("accepted with accepted_at: %v", err)
	}
	s.Accepted = false
	if err := s.Validate(); err == nil {
		t.Error("accepted_at without accepted should fail")
	}
}
