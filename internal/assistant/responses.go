package assistant

import (
	"errors"
	"fmt"
	"time"

	"focusflow/backend/internal/breakpolicy/engine"
	"focusflow/backend/internal/chat"
	sessiondomain "focusflow/backend/internal/session/domain"
	sessionservice "focusflow/backend/internal/session/service"
	suggestiondomain "focusflow/backend/internal/suggestion/domain"
)

func provisionalResponse() chat.Response {
	return chat.Response{Text: "On it — I'll get back to you in a moment."}
}

func apologyResponse() chat.Response {
	return chat.Response{Text: "Sorry, something went wrong on my end. Please try again."}
}

func greetingResponse() chat.Response {
	return chat.Response{Text: "Hi! I can run focus sessions (`/focus 25`), suggest well-timed breaks (`/break`), and show your day (`/focus-stats`)."}
}

func unsupportedResponse() chat.Response {
	return chat.Response{Text: "I didn't catch that. Try `/focus 25`, `/break`, or `/focus-stats`."}
}

func focusStartedResponse(sess *sessiondomain.FocusSession) chat.Response {
	return chat.Response{
		Text: fmt.Sprintf("Focus session started — %d minutes. I'll let you know when time is up.", sess.DurationMinutes),
		Blocks: []chat.Block{
			chat.Button("End early", ActionFocusEnd, ""),
		},
	}
}

// alreadyActiveResponse is the guidance for a start attempt while a session is
// running. sess may be nil when the racing session was not readable.
func alreadyActiveResponse(sess *sessiondomain.FocusSession, now time.Time) chat.Response {
	text := "You already have a focus session running."
	if sess != nil {
		if left := sess.Remaining(now); left > 0 {
			text = fmt.Sprintf("You already have a focus session running — about %d minutes left.", int(left.Round(time.Minute)/time.Minute))
		}
	}
	return chat.Response{
		Text: text,
		Blocks: []chat.Block{
			chat.Button("End it", ActionFocusEnd, ""),
		},
	}
}

func focusEndedResponse(sess *sessiondomain.FocusSession) chat.Response {
	if sess != nil && sess.EndTime != nil {
		focused := sess.EndTime.Sub(sess.StartTime).Round(time.Minute)
		if mins := int(focused / time.Minute); mins > 0 {
			return chat.Response{Text: fmt.Sprintf("Session ended — you focused for %d minutes.", mins)}
		}
	}
	return chat.Response{Text: "Session ended."}
}

func noActiveSessionResponse() chat.Response {
	return chat.Response{Text: "You don't have a focus session running. Start one with `/focus 25`."}
}

// breakDecisionResponse turns an evaluation into the reply: an approved break
// carries the suggestion with accept/skip buttons, a rejected one offers the
// shortened-break override.
func breakDecisionResponse(dec engine.Decision, sugg *suggestiondomain.BreakSuggestion) chat.Response {
	if dec.Approve && sugg != nil {
		return chat.Response{
			Text: dec.Reason + " " + sugg.Message,
			Blocks: []chat.Block{
				chat.Button("Take the break", ActionBreakAccept, sugg.ID),
				chat.Button("Skip", ActionBreakSkip, ""),
			},
		}
	}
	return chat.Response{
		Text: dec.Reason + " Want a short one anyway?",
		Blocks: []chat.Block{
			chat.Button(fmt.Sprintf("Take %d minutes anyway", forcedBreakMinutes), ActionBreakForce, ""),
			chat.Button("I'll wait", ActionBreakSkip, ""),
		},
	}
}

type summary struct {
	completed int
	minutes   int
	suggested int
	accepted  int
}

func summaryResponse(s summary) chat.Response {
	if s.completed == 0 && s.minutes == 0 && s.suggested == 0 {
		return chat.Response{Text: "Nothing logged yet today. Start with `/focus 25`."}
	}
	text := fmt.Sprintf("Today: %d focus %s completed, %d minutes of focused time.",
		s.completed, plural(s.completed, "session", "sessions"), s.minutes)
	if s.suggested > 0 {
		text += fmt.Sprintf(" Breaks: %d of %d suggestions taken.", s.accepted, s.suggested)
	}
	return chat.Response{Text: text}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// focusStartOutcome composes the late push for a start that outlived the
// response budget. An empty response suppresses the push.
func focusStartOutcome(sess *sessiondomain.FocusSession, err error, minutes int) chat.Response {
	switch {
	case err == nil:
		return focusStartedResponse(sess)
	case errors.Is(err, sessionservice.ErrSessionActive):
		return alreadyActiveResponse(sess, time.Now().UTC())
	default:
		return chat.Response{Text: fmt.Sprintf("I couldn't start your %d-minute focus session after all. Please try again.", minutes)}
	}
}

// focusEndOutcome composes the late push for an end that outlived the budget.
func focusEndOutcome(sess *sessiondomain.FocusSession, err error) chat.Response {
	switch {
	case err == nil:
		return focusEndedResponse(sess)
	case errors.Is(err, sessionservice.ErrNoActiveSession):
		return noActiveSessionResponse()
	default:
		return chat.Response{Text: "I couldn't wrap up your focus session. Please try again."}
	}
}
