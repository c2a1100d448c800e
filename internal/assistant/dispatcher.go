// Package assistant orchestrates inbound events: it provisions users,
// resolves intents, drives the session state machine and the break decision
// engine, and assembles chat responses. Side-effecting work runs through the
// executor so the synchronous answer stays inside the transport deadline.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"focusflow/backend/internal/breakpolicy/engine"
	"focusflow/backend/internal/chat"
	"focusflow/backend/internal/clock"
	"focusflow/backend/internal/intent"
	sessiondomain "focusflow/backend/internal/session/domain"
	sessionservice "focusflow/backend/internal/session/service"
	suggestiondomain "focusflow/backend/internal/suggestion/domain"
	"focusflow/backend/internal/telemetry"
	userdomain "focusflow/backend/internal/user/domain"

	"focusflow/backend/internal/assistant/executor"
)

// Kind names the inbound transport shape an event arrived on.
type Kind string

const (
	// KindCommand is the structured-command transport with a hard response deadline.
	KindCommand Kind = "command"
	// KindMessage is the free-text transport; a visible reply, no hard deadline.
	KindMessage Kind = "message"
	// KindInteraction is the callback transport carrying a pre-resolved action.
	KindInteraction Kind = "interaction"
)

// Event is one inbound user event, normalized across the three transports.
type Event struct {
	Kind           Kind
	TeamID         string
	PlatformUserID string
	Command        string // slash command, KindCommand only
	Text           string // free text, KindCommand and KindMessage
	ActionID       string // KindInteraction only
	Value          string // opaque value echoed from a block, KindInteraction only
}

// Stable action identifiers carried on response blocks. Interaction callbacks
// echo them back and re-enter the dispatcher as pre-resolved intents.
const (
	ActionFocusEnd     = "focus_end"
	ActionFocusRepeat  = "focus_repeat" // value: duration minutes
	ActionBreakAccept  = "break_accept" // value: suggestion ID
	ActionBreakForce   = "break_force"
	ActionBreakSkip    = "break_skip"
	ActionBreakSuggest = "break_suggest"
)

// forcedBreakMinutes is the length of the shortened break taken through the
// override path when the engine rejected the regular one.
const forcedBreakMinutes = 5

// ErrMissingIdentity is returned for events without a platform identity.
var ErrMissingIdentity = errors.New("assistant: event is missing team or user identity")

// errSuggestionHandled marks an accept for a suggestion that no longer needs one.
var errSuggestionHandled = errors.New("suggestion already handled")

// UserRepo is the minimal user repository needed by the dispatcher.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByPlatformID(ctx context.Context, teamID, platformUserID string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// Sessions is the focus session state machine surface the dispatcher drives.
type Sessions interface {
	Start(ctx context.Context, userID string, durationMinutes int) (*sessiondomain.FocusSession, error)
	End(ctx context.Context, userID string) (*sessiondomain.FocusSession, error)
	Interrupt(ctx context.Context, sessionID string) (*sessiondomain.FocusSession, error)
	Active(ctx context.Context, userID string) (*sessiondomain.FocusSession, error)
}

// SessionStats provides the aggregates for the productivity summary.
type SessionStats interface {
	CountCompletedSince(ctx context.Context, userID string, since time.Time) (int, error)
	MinutesFocusedSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// SuggestionRepo is the minimal break suggestion repository needed by the dispatcher.
type SuggestionRepo interface {
	GetByID(ctx context.Context, id string) (*suggestiondomain.BreakSuggestion, error)
	Create(ctx context.Context, s *suggestiondomain.BreakSuggestion) error
	Accept(ctx context.Context, id string, at time.Time) (bool, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
	CountAcceptedSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// ChatGateway is the outbound chat platform surface.
type ChatGateway interface {
	PushMessage(ctx context.Context, platformUserID string, resp chat.Response) error
	SetStatus(ctx context.Context, platformUserID, statusText, emoji string, expiresAt time.Time) error
	ClearStatus(ctx context.Context, platformUserID string) error
}

// Config wires a Dispatcher.
type Config struct {
	Users               UserRepo
	Sessions            Sessions
	Stats               SessionStats
	Suggestions         SuggestionRepo
	Breaks              engine.Evaluator
	Classifier          *intent.Classifier
	Executor            *executor.Executor
	Chat                ChatGateway
	Emitter             telemetry.EventEmitter // optional
	Clock               clock.Clock
	DefaultFocusMinutes int
}

// Dispatcher routes resolved intents onto session transitions and break
// decisions, and assembles the response for the inbound transport.
type Dispatcher struct {
	users       UserRepo
	sessions    Sessions
	stats       SessionStats
	suggestions SuggestionRepo
	breaks      engine.Evaluator
	classifier  *intent.Classifier
	exec        *executor.Executor
	chat        ChatGateway
	emitter     telemetry.EventEmitter
	clock       clock.Clock

	defaultFocusMinutes int
}

// New returns a Dispatcher for the given wiring.
func New(cfg Config) *Dispatcher {
	minutes := cfg.DefaultFocusMinutes
	if minutes < 1 || minutes > 480 {
		minutes = 25
	}
	return &Dispatcher{
		users:               cfg.Users,
		sessions:            cfg.Sessions,
		stats:               cfg.Stats,
		suggestions:         cfg.Suggestions,
		breaks:              cfg.Breaks,
		classifier:          cfg.Classifier,
		exec:                cfg.Executor,
		chat:                cfg.Chat,
		emitter:             cfg.Emitter,
		clock:               cfg.Clock,
		defaultFocusMinutes: minutes,
	}
}

// Dispatch handles one inbound event and returns the synchronous response.
// Internal failures never surface as errors once the user is known; they
// become short apology responses. The returned error is reserved for
// malformed events the transport should reject outright.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (chat.Response, error) {
	if ev.TeamID == "" || ev.PlatformUserID == "" {
		return chat.Response{}, ErrMissingIdentity
	}

	user, err := d.provision(ctx, ev)
	if err != nil {
		log.Printf("dispatch: provision %s/%s: %v", ev.TeamID, ev.PlatformUserID, err)
		return apologyResponse(), nil
	}

	switch ev.Kind {
	case KindInteraction:
		return d.handleCallback(ctx, user, ev), nil

	case KindCommand:
		in := intent.Input{Command: ev.Command, Text: ev.Text}
		if it, ok := d.classifier.FastPath(in); ok {
			d.emit(ctx, user, ev, it)
			return d.handle(ctx, user, it), nil
		}
		// Slow input on the deadline-bearing transport: acknowledge now,
		// classify and answer out of band. The background work inherits the
		// request values but not its cancellation.
		bg := context.WithoutCancel(ctx)
		go func() {
			it := d.classifier.Classify(bg, in)
			d.emit(bg, user, ev, it)
			resp := d.handle(bg, user, it)
			if err := d.chat.PushMessage(bg, user.PlatformUserID, resp); err != nil {
				log.Printf("dispatch: push to %s: %v", user.PlatformUserID, err)
			}
		}()
		return provisionalResponse(), nil

	case KindMessage:
		it := d.classifier.Classify(ctx, intent.Input{Text: ev.Text})
		d.emit(ctx, user, ev, it)
		return d.handle(ctx, user, it), nil

	default:
		return chat.Response{}, fmt.Errorf("assistant: unknown event kind %q", ev.Kind)
	}
}

// provision returns the user for the event's platform identity, creating a
// minimal record on first contact. Racing first contacts converge on one row
// because Create is a no-op on an existing identity pair.
func (d *Dispatcher) provision(ctx context.Context, ev Event) (*userdomain.User, error) {
	u, err := d.users.GetByPlatformID(ctx, ev.TeamID, ev.PlatformUserID)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	now := d.clock.Now().UTC()
	u = &userdomain.User{
		ID:             uuid.New().String(),
		TeamID:         ev.TeamID,
		PlatformUserID: ev.PlatformUserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := d.users.Create(ctx, u); err != nil {
		return nil, err
	}
	current, err := d.users.GetByPlatformID(ctx, ev.TeamID, ev.PlatformUserID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return current, nil
	}
	return u, nil
}

func (d *Dispatcher) handle(ctx context.Context, user *userdomain.User, it intent.Intent) chat.Response {
	switch it.Action {
	case intent.ActionFocus:
		if it.Operation == intent.OpEnd {
			return d.endFocus(ctx, user)
		}
		return d.startFocus(ctx, user, it.DurationMinutes)
	case intent.ActionBreak:
		return d.requestBreak(ctx, user, it.Category)
	case intent.ActionProductivity:
		return d.summarize(ctx, user)
	case intent.ActionGreeting:
		return greetingResponse()
	default:
		return unsupportedResponse()
	}
}

// handleCallback routes a pre-resolved interactive action, bypassing the classifier.
func (d *Dispatcher) handleCallback(ctx context.Context, user *userdomain.User, ev Event) chat.Response {
	d.emit(ctx, user, ev, intent.Intent{Action: callbackAction(ev.ActionID), Confidence: 1.0, Source: intent.SourceCallback})

	switch ev.ActionID {
	case ActionFocusEnd:
		return d.endFocus(ctx, user)
	case ActionFocusRepeat:
		minutes, _ := strconv.Atoi(ev.Value)
		return d.startFocus(ctx, user, minutes)
	case ActionBreakAccept:
		if ev.Value == "" {
			return unsupportedResponse()
		}
		return d.acceptBreak(ctx, user, ev.Value)
	case ActionBreakForce:
		return d.forceBreak(ctx, user)
	case ActionBreakSkip:
		return chat.Response{Text: "Okay, back to it."}
	case ActionBreakSuggest:
		return d.requestBreak(ctx, user, "")
	default:
		log.Printf("dispatch: unknown action id %q for user %s", ev.ActionID, user.ID)
		return unsupportedResponse()
	}
}

func callbackAction(actionID string) intent.Action {
	switch actionID {
	case ActionFocusEnd, ActionFocusRepeat:
		return intent.ActionFocus
	case ActionBreakAccept, ActionBreakForce, ActionBreakSkip, ActionBreakSuggest:
		return intent.ActionBreak
	default:
		return intent.ActionUnsupported
	}
}

// emit records the dispatch as a telemetry event, best effort.
func (d *Dispatcher) emit(ctx context.Context, user *userdomain.User, ev Event, it intent.Intent) {
	meta, err := json.Marshal(map[string]any{
		"action":     it.Action,
		"operation":  it.Operation,
		"confidence": it.Confidence,
		"source":     it.Source,
		"action_id":  ev.ActionID,
	})
	if err != nil {
		return
	}
	telemetry.EmitAsync(d.emitter, ctx, &telemetry.Event{
		TeamID:    user.TeamID,
		UserID:    user.ID,
		EventType: "intent_dispatched",
		Source:    string(ev.Kind),
		Metadata:  meta,
		CreatedAt: d.clock.Now().UTC(),
	})
}

// startFocus begins a focus session, racing the persistence against the
// executor budget. The state mutation is enqueued before any response is
// composed; only its confirmation may lag behind the provisional answer.
func (d *Dispatcher) startFocus(ctx context.Context, user *userdomain.User, minutes int) chat.Response {
	if minutes <= 0 {
		minutes = d.defaultFocusMinutes
	}

	var sess *sessiondomain.FocusSession
	out := d.exec.RunWithLate(ctx, user.ID, "focus-start", func(opCtx context.Context) error {
		s, err := d.sessions.Start(opCtx, user.ID, minutes)
		sess = s
		return err
	}, func(err error) {
		d.pushLate(user, focusStartOutcome(sess, err, minutes))
	})

	switch {
	case out.Completed():
		return focusStartedResponse(sess)
	case out.TimedOut():
		return chat.Response{Text: fmt.Sprintf("Starting your %d-minute focus session…", minutes)}
	case errors.Is(out.Err, sessionservice.ErrSessionActive):
		return alreadyActiveResponse(sess, d.clock.Now())
	default:
		log.Printf("dispatch: start focus for %s: %v", user.ID, out.Err)
		return apologyResponse()
	}
}

func (d *Dispatcher) endFocus(ctx context.Context, user *userdomain.User) chat.Response {
	var sess *sessiondomain.FocusSession
	out := d.exec.RunWithLate(ctx, user.ID, "focus-end", func(opCtx context.Context) error {
		s, err := d.sessions.End(opCtx, user.ID)
		sess = s
		return err
	}, func(err error) {
		d.pushLate(user, focusEndOutcome(sess, err))
	})

	switch {
	case out.Completed():
		return focusEndedResponse(sess)
	case out.TimedOut():
		return chat.Response{Text: "Wrapping up your focus session…"}
	case errors.Is(out.Err, sessionservice.ErrNoActiveSession):
		return noActiveSessionResponse()
	default:
		log.Printf("dispatch: end focus for %s: %v", user.ID, out.Err)
		return apologyResponse()
	}
}

// requestBreak evaluates break timing and, when approved, persists the
// suggestion in the same raced operation.
func (d *Dispatcher) requestBreak(ctx context.Context, user *userdomain.User, category string) chat.Response {
	now := d.clock.Now().In(user.Location())

	var dec engine.Decision
	var sugg *suggestiondomain.BreakSuggestion
	out := d.exec.RunWithLate(ctx, user.ID, "break-evaluate", func(opCtx context.Context) error {
		var err error
		dec, err = d.breaks.Evaluate(opCtx, user.ID, now)
		if err != nil {
			return err
		}
		if !dec.Approve {
			return nil
		}
		sugg = newSuggestion(user.ID, category, dec.Reason, now)
		return d.suggestions.Create(opCtx, sugg)
	}, func(err error) {
		if err != nil {
			return
		}
		d.pushLate(user, breakDecisionResponse(dec, sugg))
	})

	switch {
	case out.Completed():
		return breakDecisionResponse(dec, sugg)
	case out.TimedOut():
		return chat.Response{Text: "Let me check your calendar — I'll get back to you in a moment."}
	default:
		log.Printf("dispatch: evaluate break for %s: %v", user.ID, out.Err)
		return apologyResponse()
	}
}

// forceBreak is the deliberate override for a rejected break: a shortened
// suggestion is recorded as accepted immediately, without consulting the
// decision engine, and any running focus session is interrupted.
func (d *Dispatcher) forceBreak(ctx context.Context, user *userdomain.User) chat.Response {
	now := d.clock.Now().In(user.Location())

	sugg := newSuggestion(user.ID, "", "Shortened break taken despite an upcoming meeting.", now)
	acceptedAt := now.UTC()
	sugg.Accepted = true
	sugg.AcceptedAt = &acceptedAt

	out := d.exec.Run(ctx, user.ID, "break-force", func(opCtx context.Context) error {
		if err := d.suggestions.Create(opCtx, sugg); err != nil {
			return err
		}
		d.interruptActive(opCtx, user.ID)
		return nil
	})

	switch {
	case out.Completed(), out.TimedOut():
		return chat.Response{
			Text: fmt.Sprintf("Okay — taking %d minutes. %s", forcedBreakMinutes, suggestiondomain.MessageFor(sugg.Category)),
		}
	default:
		log.Printf("dispatch: force break for %s: %v", user.ID, out.Err)
		return apologyResponse()
	}
}

// acceptBreak marks a suggestion accepted exactly once and interrupts any
// running focus session so the break actually happens.
func (d *Dispatcher) acceptBreak(ctx context.Context, user *userdomain.User, suggestionID string) chat.Response {
	out := d.exec.Run(ctx, user.ID, "break-accept", func(opCtx context.Context) error {
		ok, err := d.suggestions.Accept(opCtx, suggestionID, d.clock.Now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			return errSuggestionHandled
		}
		d.interruptActive(opCtx, user.ID)
		return nil
	})

	switch {
	case out.Completed(), out.TimedOut():
		return chat.Response{Text: "Enjoy your break — I'll hold the fort."}
	case errors.Is(out.Err, errSuggestionHandled):
		return chat.Response{Text: "That break was already taken care of."}
	default:
		log.Printf("dispatch: accept break for %s: %v", user.ID, out.Err)
		return apologyResponse()
	}
}

// interruptActive cuts a running session short for a break. Best effort; a
// session that ended in the meantime is fine.
func (d *Dispatcher) interruptActive(ctx context.Context, userID string) {
	sess, err := d.sessions.Active(ctx, userID)
	if err != nil || sess == nil {
		return
	}
	if _, err := d.sessions.Interrupt(ctx, sess.ID); err != nil && !errors.Is(err, sessionservice.ErrNoActiveSession) {
		log.Printf("dispatch: interrupt session %s: %v", sess.ID, err)
	}
}

// summarize builds the productivity summary for the user's current local day.
func (d *Dispatcher) summarize(ctx context.Context, user *userdomain.User) chat.Response {
	now := d.clock.Now().In(user.Location())
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var s summary
	out := d.exec.RunWithLate(ctx, user.ID, "stats", func(opCtx context.Context) error {
		var err error
		if s.completed, err = d.stats.CountCompletedSince(opCtx, user.ID, since); err != nil {
			return err
		}
		if s.minutes, err = d.stats.MinutesFocusedSince(opCtx, user.ID, since); err != nil {
			return err
		}
		if s.suggested, err = d.suggestions.CountSince(opCtx, user.ID, since); err != nil {
			return err
		}
		if s.accepted, err = d.suggestions.CountAcceptedSince(opCtx, user.ID, since); err != nil {
			return err
		}
		return nil
	}, func(err error) {
		if err != nil {
			return
		}
		d.pushLate(user, summaryResponse(s))
	})

	switch {
	case out.Completed():
		return summaryResponse(s)
	case out.TimedOut():
		return chat.Response{Text: "Crunching your numbers — one moment."}
	default:
		log.Printf("dispatch: summarize for %s: %v", user.ID, out.Err)
		return apologyResponse()
	}
}

// pushLate delivers the substantive answer for an operation that outlived
// the response budget. Best effort.
func (d *Dispatcher) pushLate(user *userdomain.User, resp chat.Response) {
	if resp.Text == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.chat.PushMessage(ctx, user.PlatformUserID, resp); err != nil {
		log.Printf("dispatch: late push to %s: %v", user.PlatformUserID, err)
	}
}

// newSuggestion builds a suggestion row; an empty category picks one from the
// rotation based on the hour, so consecutive days vary.
func newSuggestion(userID, category, reason string, now time.Time) *suggestiondomain.BreakSuggestion {
	cat := suggestiondomain.Category(category)
	if !suggestiondomain.KnownCategory(category) {
		cat = suggestiondomain.Categories[now.Hour()%len(suggestiondomain.Categories)]
	}
	return &suggestiondomain.BreakSuggestion{
		ID:          uuid.New().String(),
		UserID:      userID,
		Category:    cat,
		Message:     suggestiondomain.MessageFor(cat),
		Reason:      reason,
		SuggestedAt: now.UTC(),
	}
}
