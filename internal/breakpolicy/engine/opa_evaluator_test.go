package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	meetingdomain "focusflow/backend/internal/meeting/domain"
	meetingrepo "focusflow/backend/internal/meeting/repository"
)

func TestOPAEvaluator_HealthCheck(t *testing.T) {
	// HealthCheck compiles and evaluates the embedded policy; no repo needed.
	e := NewOPAEvaluator(nil)
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func newTestEvaluator(t *testing.T, meetings ...*meetingdomain.Meeting) *OPAEvaluator {
	t.Helper()
	repo := meetingrepo.NewMemoryRepository()
	for _, m := range meetings {
		if err := repo.Upsert(context.Background(), m); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	return NewOPAEvaluator(repo)
}

func meetingAt(id string, start, end time.Time) *meetingdomain.Meeting {
	return &meetingdomain.Meeting{
		ID:        id,
		UserID:    "user-1",
		Title:     "Standup",
		StartTime: start,
		EndTime:   end,
		CreatedAt: start,
	}
}

func TestOPAEvaluator_Evaluate_NoMeetings(t *testing.T) {
	e := newTestEvaluator(t)

	d, err := e.Evaluate(context.Background(), "user-1", time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !d.Approve {
		t.Error("break should be approved with an empty calendar")
	}
	if d.Verdict != VerdictClear {
		t.Errorf("verdict = %q, want %q", d.Verdict, VerdictClear)
	}
	if d.Reason != "No meetings scheduled soon." {
		t.Errorf("reason = %q, want %q", d.Reason, "No meetings scheduled soon.")
	}
	if d.MinutesUntil != -1 {
		t.Errorf("MinutesUntil = %d, want -1", d.MinutesUntil)
	}
}

func TestOPAEvaluator_Evaluate_TimingBands(t *testing.T) {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	start := day.Add(10*time.Hour + 30*time.Minute) // 10:30
	end := day.Add(11 * time.Hour)                  // 11:00

	testCases := []struct {
		name        string
		now         time.Time
		wantApprove bool
		wantVerdict Verdict
		wantMinutes int
	}{
		{"31 minutes out is clear", start.Add(-31 * time.Minute), true, VerdictClear, 31},
		{"30 minutes out is well timed", start.Add(-30 * time.Minute), true, VerdictWellTimed, 30},
		{"11 minutes out is well timed", start.Add(-11 * time.Minute), true, VerdictWellTimed, 11},
		{"10 minutes out is rejected", start.Add(-10 * time.Minute), false, VerdictMeetingSoon, 10},
		{"1 minute out is rejected", start.Add(-time.Minute), false, VerdictMeetingSoon, 1},
		{"exactly at start is in meeting", start, false, VerdictInMeeting, -1},
		{"mid meeting is in meeting", start.Add(15 * time.Minute), false, VerdictInMeeting, -1},
		{"exactly at end is clear", end, true, VerdictClear, -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEvaluator(t, meetingAt("m-1", start, end))
			d, err := e.Evaluate(context.Background(), "user-1", tc.now)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if d.Approve != tc.wantApprove {
				t.Errorf("approve = %v, want %v", d.Approve, tc.wantApprove)
			}
			if d.Verdict != tc.wantVerdict {
				t.Errorf("verdict = %q, want %q", d.Verdict, tc.wantVerdict)
			}
			if d.MinutesUntil != tc.wantMinutes {
				t.Errorf("MinutesUntil = %d, want %d", d.MinutesUntil, tc.wantMinutes)
			}
			if d.Reason == "" {
				t.Error("reason must not be empty")
			}
		})
	}
}

func TestOPAEvaluator_Evaluate_PicksEarliestUpcoming(t *testing.T) {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	later := meetingAt("m-later", day.Add(16*time.Hour), day.Add(17*time.Hour))
	sooner := meetingAt("m-sooner", day.Add(10*time.Hour+20*time.Minute), day.Add(10*time.Hour+50*time.Minute))

	e := newTestEvaluator(t, later, sooner)
	d, err := e.Evaluate(context.Background(), "user-1", day.Add(10*time.Hour))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Verdict != VerdictWellTimed {
		t.Errorf("verdict = %q, want %q", d.Verdict, VerdictWellTimed)
	}
	if d.MinutesUntil != 20 {
		t.Errorf("MinutesUntil = %d, want 20", d.MinutesUntil)
	}
}

func TestOPAEvaluator_Evaluate_UsesLocalDayWindow(t *testing.T) {
	tokyo := time.FixedZone("UTC+9", 9*3600)
	// 00:30 local on June 3rd; a meeting at 01:00 local the same day must be seen.
	now := time.Date(2025, 6, 3, 0, 30, 0, 0, tokyo)
	m := meetingAt("m-1", time.Date(2025, 6, 3, 1, 0, 0, 0, tokyo), time.Date(2025, 6, 3, 2, 0, 0, 0, tokyo))

	e := newTestEvaluator(t, m)
	d, err := e.Evaluate(context.Background(), "user-1", now)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Verdict != VerdictWellTimed {
		t.Errorf("verdict = %q, want %q", d.Verdict, VerdictWellTimed)
	}
	if d.MinutesUntil != 30 {
		t.Errorf("MinutesUntil = %d, want 30", d.MinutesUntil)
	}
}

func TestOPAEvaluator_Evaluate_IgnoresOtherUsers(t *testing.T) {
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	other := meetingAt("m-1", day.Add(10*time.Hour), day.Add(11*time.Hour))
	other.UserID = "user-2"

	e := newTestEvaluator(t, other)
	d, err := e.Evaluate(context.Background(), "user-1", day.Add(10*time.Hour+30*time.Minute))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Verdict != VerdictClear {
		t.Errorf("verdict = %q, want %q", d.Verdict, VerdictClear)
	}
}

type erroringMeetingRepo struct{ err error }

func (r *erroringMeetingRepo) ListForWindow(ctx context.Context, userID string, from, to time.Time) ([]*meetingdomain.Meeting, error) {
	return nil, r.err
}

func TestOPAEvaluator_Evaluate_RepoError(t *testing.T) {
	e := NewOPAEvaluator(&erroringMeetingRepo{err: errors.New("db down")})

	_, err := e.Evaluate(context.Background(), "user-1", time.Now().UTC())
	if err == nil {
		t.Fatal("Evaluate should propagate meeting repo errors")
	}
}

// TestVerdictAgreement holds the Rego policy and its in-process fallback twin
// to the same answers across the fact space.
func TestVerdictAgreement(t *testing.T) {
	ctx := context.Background()
	e := NewOPAEvaluator(nil)

	var grid []facts
	for _, inMeeting := range []bool{true, false} {
		grid = append(grid, facts{inMeeting: inMeeting, hasUpcoming: false, minutesUntilNext: -1})
		for _, minutes := range []int{0, 1, 9, 10, 11, 29, 30, 31, 120} {
			grid = append(grid, facts{inMeeting: inMeeting, hasUpcoming: true, minutesUntilNext: minutes})
		}
	}

	for _, f := range grid {
		fromRego, err := e.evaluateVerdict(ctx, f)
		if err != nil {
			t.Fatalf("evaluateVerdict(%+v): %v", f, err)
		}
		if fromGo := verdictFromFacts(f); fromRego != fromGo {
			t.Errorf("facts %+v: rego says %q, fallback says %q", f, fromRego, fromGo)
		}
	}
}
