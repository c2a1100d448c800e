// Package engine decides whether a break fits the user's calendar.
package engine

import (
	"context"
	"time"

	meetingdomain "focusflow/backend/internal/meeting/domain"
)

// Verdict names the timing band a break decision falls into.
type Verdict string

const (
	// VerdictInMeeting means now falls inside a meeting. Never approved.
	VerdictInMeeting Verdict = "in_meeting"
	// VerdictMeetingSoon means the next meeting starts within the reject window.
	VerdictMeetingSoon Verdict = "meeting_soon"
	// VerdictWellTimed means a meeting follows soon enough that a break now fits neatly.
	VerdictWellTimed Verdict = "well_timed"
	// VerdictClear means no meeting is close.
	VerdictClear Verdict = "clear"
)

// Timing bands in whole minutes until the next meeting start. At or under
// rejectWithinMinutes a break is rejected; above it but at or under
// wellTimedWithinMinutes it is approved as well timed.
const (
	rejectWithinMinutes    = 10
	wellTimedWithinMinutes = 30
)

// Decision holds the result of break-timing evaluation.
type Decision struct {
	Approve bool
	Verdict Verdict
	// Reason is the user-facing explanation for the verdict.
	Reason string
	// MinutesUntil is the floored whole minutes until the next meeting
	// starts; -1 when none is upcoming.
	MinutesUntil int
}

// Evaluator decides whether a break fits the user's meetings at a point in
// time. Meetings cover the closed-open interval [start, end): a break at
// exactly the end of a meeting is allowed, at exactly the start it is not.
type Evaluator interface {
	// Evaluate weighs now against the user's meetings for the day containing
	// it. now must carry the user's timezone; the meeting window is the local
	// day around it.
	Evaluate(ctx context.Context, userID string, now time.Time) (Decision, error)
}

// MeetingRepo is the minimal meeting repository needed by the engine.
type MeetingRepo interface {
	ListForWindow(ctx context.Context, userID string, from, to time.Time) ([]*meetingdomain.Meeting, error)
}
