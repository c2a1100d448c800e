package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	meetingdomain "focusflow/backend/internal/meeting/domain"
)

// Rego policy over precomputed temporal facts. The bands must match the
// rejectWithinMinutes and wellTimedWithinMinutes constants; verdictFromFacts
// is the fallback twin of this policy and the tests hold the two together.
const breakRegoPolicy = `package focusflow.breaks

default verdict = "clear"

verdict = "in_meeting" if {
	input.in_meeting
}

verdict = "meeting_soon" if {
	not input.in_meeting
	input.has_upcoming
	input.minutes_until_next <= 10
}

verdict = "well_timed" if {
	not input.in_meeting
	input.has_upcoming
	input.minutes_until_next > 10
	input.minutes_until_next <= 30
}
`

// OPAEvaluator evaluates break timing with OPA Rego over temporal facts
// computed in Go. On evaluation failure it falls back to the equivalent
// in-process logic, so a broken policy never blocks break requests.
type OPAEvaluator struct {
	meetingRepo MeetingRepo
}

// NewOPAEvaluator returns an OPA-based break-timing evaluator.
func NewOPAEvaluator(meetingRepo MeetingRepo) *OPAEvaluator {
	return &OPAEvaluator{meetingRepo: meetingRepo}
}

// HealthCheck verifies that the in-process OPA Rego engine can compile and
// evaluate the break policy. Does not touch the meeting repo. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	modules := map[string]string{"breaks.rego": breakRegoPolicy}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return fmt.Errorf("compile break policy: %w", err)
	}
	minimalInput := map[string]interface{}{
		"in_meeting":         false,
		"has_upcoming":       false,
		"minutes_until_next": -1,
	}
	q := rego.New(
		rego.Query("data.focusflow.breaks.verdict"),
		rego.Compiler(compiler),
		rego.Input(minimalInput),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return fmt.Errorf("eval break policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("policy query returned no result")
	}
	return nil
}

// Evaluate fetches the user's meetings for the local day containing now and
// decides whether a break fits.
func (e *OPAEvaluator) Evaluate(ctx context.Context, userID string, now time.Time) (Decision, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	meetings, err := e.meetingRepo.ListForWindow(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return Decision{}, fmt.Errorf("list meetings: %w", err)
	}

	f := computeFacts(meetings, now)

	verdict, err := e.evaluateVerdict(ctx, f)
	if err != nil {
		log.Printf("breakpolicy: evaluation failed: %v, using fallback", err)
		verdict = verdictFromFacts(f)
	}

	return decisionFor(verdict, f), nil
}

// facts are the temporal inputs the policy decides on, precomputed in Go so
// the Rego side stays free of time arithmetic.
type facts struct {
	inMeeting        bool
	hasUpcoming      bool
	minutesUntilNext int
	currentTitle     string
	nextTitle        string
}

func computeFacts(meetings []*meetingdomain.Meeting, now time.Time) facts {
	f := facts{minutesUntilNext: -1}
	for _, m := range meetings {
		if m.InProgressAt(now) && !f.inMeeting {
			f.inMeeting = true
			f.currentTitle = m.Title
		}
		if m.StartTime.After(now) {
			until := int(m.StartTime.Sub(now).Minutes())
			if !f.hasUpcoming || until < f.minutesUntilNext {
				f.hasUpcoming = true
				f.minutesUntilNext = until
				f.nextTitle = m.Title
			}
		}
	}
	return f
}

func (e *OPAEvaluator) evaluateVerdict(ctx context.Context, f facts) (Verdict, error) {
	modules := map[string]string{"breaks.rego": breakRegoPolicy}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return "", fmt.Errorf("compile break policy: %w", err)
	}

	input := map[string]interface{}{
		"in_meeting":         f.inMeeting,
		"has_upcoming":       f.hasUpcoming,
		"minutes_until_next": f.minutesUntilNext,
	}
	q := rego.New(
		rego.Query("data.focusflow.breaks.verdict"),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return "", fmt.Errorf("eval break policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return "", fmt.Errorf("policy query returned no result")
	}
	v, ok := rs[0].Expressions[0].Value.(string)
	if !ok {
		return "", fmt.Errorf("policy verdict is %T, want string", rs[0].Expressions[0].Value)
	}
	switch verdict := Verdict(v); verdict {
	case VerdictInMeeting, VerdictMeetingSoon, VerdictWellTimed, VerdictClear:
		return verdict, nil
	default:
		return "", fmt.Errorf("policy returned unknown verdict %q", v)
	}
}

// verdictFromFacts is the in-process twin of the Rego policy.
func verdictFromFacts(f facts) Verdict {
	switch {
	case f.inMeeting:
		return VerdictInMeeting
	case f.hasUpcoming && f.minutesUntilNext <= rejectWithinMinutes:
		return VerdictMeetingSoon
	case f.hasUpcoming && f.minutesUntilNext <= wellTimedWithinMinutes:
		return VerdictWellTimed
	default:
		return VerdictClear
	}
}

func decisionFor(verdict Verdict, f facts) Decision {
	d := Decision{
		Verdict:      verdict,
		MinutesUntil: f.minutesUntilNext,
	}
	if !f.hasUpcoming {
		d.MinutesUntil = -1
	}
	switch verdict {
	case VerdictInMeeting:
		if f.currentTitle != "" {
			d.Reason = fmt.Sprintf("You're in %q right now.", f.currentTitle)
		} else {
			d.Reason = "You're in a meeting right now."
		}
	case VerdictMeetingSoon:
		if f.nextTitle != "" {
			d.Reason = fmt.Sprintf("%q starts in %s.", f.nextTitle, minutesPhrase(f.minutesUntilNext))
		} else {
			d.Reason = fmt.Sprintf("Your next meeting starts in %s.", minutesPhrase(f.minutesUntilNext))
		}
	case VerdictWellTimed:
		d.Approve = true
		if f.nextTitle != "" {
			d.Reason = fmt.Sprintf("You have %s until %q. Good window for a break.", minutesPhrase(f.minutesUntilNext), f.nextTitle)
		} else {
			d.Reason = fmt.Sprintf("You have %s until your next meeting. Good window for a break.", minutesPhrase(f.minutesUntilNext))
		}
	default:
		d.Approve = true
		d.Reason = "No meetings scheduled soon."
	}
	return d
}

func minutesPhrase(n int) string {
	switch {
	case n <= 0:
		return "less than a minute"
	case n == 1:
		return "1 minute"
	default:
		return fmt.Sprintf("%d minutes", n)
	}
}
