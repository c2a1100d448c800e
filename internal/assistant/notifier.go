package assistant

import (
	"context"
	"fmt"
	"log"

	"focusflow/backend/internal/assistant/executor"
	"focusflow/backend/internal/chat"
	"focusflow/backend/internal/clock"
	sessiondomain "focusflow/backend/internal/session/domain"
)

const (
	focusStatusText  = "In a focus session"
	focusStatusEmoji = ":dart:"
)

// SessionMarker records that the completion push for a session was delivered.
type SessionMarker interface {
	MarkNotified(ctx context.Context, id string) error
}

// StatusNotifier reacts to session transitions with chat-platform side
// effects: presence status around active sessions and the completion push when
// a timer runs out. Everything goes through the executor's fire-and-forget
// queue so the state machine never blocks on the platform.
type StatusNotifier struct {
	users    UserRepo
	chat     ChatGateway
	exec     *executor.Executor
	sessions SessionMarker
	clock    clock.Clock
}

// NewStatusNotifier returns a StatusNotifier with the given wiring.
func NewStatusNotifier(users UserRepo, gateway ChatGateway, exec *executor.Executor, sessions SessionMarker, clk clock.Clock) *StatusNotifier {
	return &StatusNotifier{
		users:    users,
		chat:     gateway,
		exec:     exec,
		sessions: sessions,
		clock:    clk,
	}
}

// FocusStarted sets the user's focus status, expiring at the scheduled end.
func (n *StatusNotifier) FocusStarted(s *sessiondomain.FocusSession) {
	expiresAt := s.ExpectedEnd()
	n.exec.Submit(context.Background(), s.UserID, "status-set", func(ctx context.Context) error {
		platformID, err := n.platformID(ctx, s.UserID)
		if err != nil {
			return err
		}
		return n.chat.SetStatus(ctx, platformID, focusStatusText, focusStatusEmoji, expiresAt)
	})
}

// FocusEnded clears the focus status after an early end or interruption.
func (n *StatusNotifier) FocusEnded(s *sessiondomain.FocusSession) {
	n.exec.Submit(context.Background(), s.UserID, "status-clear", func(ctx context.Context) error {
		platformID, err := n.platformID(ctx, s.UserID)
		if err != nil {
			return err
		}
		return n.chat.ClearStatus(ctx, platformID)
	})
}

// FocusCompleted clears the status and pushes the completion message for a
// session that ran its full course. The session is marked notified only once
// the push went through; a failed push leaves it unmarked.
func (n *StatusNotifier) FocusCompleted(s *sessiondomain.FocusSession) {
	sessionID := s.ID
	minutes := s.DurationMinutes
	n.exec.Submit(context.Background(), s.UserID, "focus-complete", func(ctx context.Context) error {
		platformID, err := n.platformID(ctx, s.UserID)
		if err != nil {
			return err
		}
		if err := n.chat.ClearStatus(ctx, platformID); err != nil {
			log.Printf("notifier: clear status for %s: %v", platformID, err)
		}
		resp := chat.Response{
			Text: fmt.Sprintf("Time's up — %d minutes of focus done. Nice work!", minutes),
			Blocks: []chat.Block{
				chat.Button("Suggest a break", ActionBreakSuggest, ""),
				chat.Button("Go again", ActionFocusRepeat, fmt.Sprintf("%d", minutes)),
			},
		}
		if err := n.chat.PushMessage(ctx, platformID, resp); err != nil {
			return err
		}
		return n.sessions.MarkNotified(ctx, sessionID)
	})
}

func (n *StatusNotifier) platformID(ctx context.Context, userID string) (string, error) {
	u, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", fmt.Errorf("user %s not found", userID)
	}
	return u.PlatformUserID, nil
}
