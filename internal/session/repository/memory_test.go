package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"focusflow/backend/internal/session/domain"
)

func newActive(id, userID string, start time.Time, minutes int) *domain.FocusSession {
	return &domain.FocusSession{
		ID:              id,
		UserID:          userID,
		DurationMinutes: minutes,
		StartTime:       start,
		Status:          domain.StatusActive,
		CreatedAt:       start,
	}
}

func TestCreate_SecondActiveRejected(t *testing.T) {
	r := NewMemoryRepository()
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	if err := r.Create(context.Background(), newActive("s1", "u1", now, 25)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := r.Create(context.Background(), newActive("s2", "u1", now, 25))
	if !errors.Is(err, domain.ErrActiveExists) {
		t.Fatalf("err = %v, want ErrActiveExists", err)
	}

	// A different user is unaffected.
	if err := r.Create(context.Background(), newActive("s3", "u2", now, 25)); err != nil {
		t.Errorf("Create for other user: %v", err)
	}
}

func TestFinish_GuardsTerminalStates(t *testing.T) {
	r := NewMemoryRepository()
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	if err := r.Create(context.Background(), newActive("s1", "u1", now, 25)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := r.Finish(context.Background(), "s1", domain.StatusCompleted, now.Add(20*time.Minute))
	if err != nil || !ok {
		t.Fatalf("first Finish = %v, %v; want true", ok, err)
	}

	// Terminal states absorb: a stale second transition reports false.
	ok, err = r.Finish(context.Background(), "s1", domain.StatusInterrupted, now.Add(21*time.Minute))
	if err != nil || ok {
		t.Fatalf("second Finish = %v, %v; want false", ok, err)
	}
	got, _ := r.GetByID(context.Background(), "s1")
	if got.Status != domain.StatusCompleted || !got.EndTime.Equal(now.Add(20*time.Minute)) {
		t.Errorf("session = %+v, first transition must stick", got)
	}

	if ok, _ := r.Finish(context.Background(), "missing", domain.StatusCompleted, now); ok {
		t.Error("Finish on unknown id should report false")
	}
}

func TestGetActiveByUser(t *testing.T) {
	r := NewMemoryRepository()
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	if got, err := r.GetActiveByUser(context.Background(), "u1"); err != nil || got != nil {
		t.Fatalf("empty repo = %v, %v; want nil, nil", got, err)
	}
	if err := r.Create(context.Background(), newActive("s1", "u1", now, 25)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := r.GetActiveByUser(context.Background(), "u1")
	if err != nil || got == nil || got.ID != "s1" {
		t.Fatalf("active = %+v, %v", got, err)
	}
	if _, err := r.Finish(context.Background(), "s1", domain.StatusInterrupted, now.Add(time.Minute)); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if got, _ := r.GetActiveByUser(context.Background(), "u1"); got != nil {
		t.Errorf("active after finish = %+v, want nil", got)
	}
}

func TestStats(t *testing.T) {
	r := NewMemoryRepository()
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	// Completed today: planned 45, actually ran 20 minutes.
	s := newActive("s1", "u1", day.Add(9*time.Hour), 45)
	if err := r.Create(context.Background(), s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.Finish(context.Background(), "s1", domain.StatusCompleted, s.StartTime.Add(20*time.Minute)); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	// Interrupted sessions do not count.
	s2 := newActive("s2", "u1", day.Add(11*time.Hour), 25)
	if err := r.Create(context.Background(), s2); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.Finish(context.Background(), "s2", domain.StatusInterrupted, s2.StartTime.Add(5*time.Minute)); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if n, _ := r.CountCompletedSince(context.Background(), "u1", day); n != 1 {
		t.Errorf("CountCompletedSince = %d, want 1", n)
	}
	if n, _ := r.MinutesFocusedSince(context.Background(), "u1", day); n != 20 {
		t.Errorf("MinutesFocusedSince = %d, want elapsed 20, not planned 45", n)
	}
}

func TestMarkNotified(t *testing.T) {
	r := NewMemoryRepository()
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	if err := r.Create(context.Background(), newActive("s1", "u1", now, 25)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.MarkNotified(context.Background(), "s1"); err != nil {
		t.Fatalf("MarkNotified: %v", err)
	}
	got, _ := r.GetByID(context.Background(), "s1")
	if !got.NotificationSent {
		t.Error("NotificationSent not set")
	}
}
