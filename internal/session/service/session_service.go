// Package service implements the focus session lifecycle:
// none → active → completed | interrupted, with terminal states absorbing.
package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"focusflow/backend/internal/clock"
	"focusflow/backend/internal/session/domain"
)

// Sentinel errors for the session service; the dispatcher maps them to user guidance.
var (
	// ErrSessionActive is returned by Start together with the session already running.
	ErrSessionActive = errors.New("a focus session is already active")
	// ErrNoActiveSession is returned when the user has nothing to end.
	ErrNoActiveSession = errors.New("no active focus session")
)

// autoCompleteTimeout bounds the background persistence work when a session timer fires.
const autoCompleteTimeout = 5 * time.Second

// Repo is the minimal session repository needed by the service.
type Repo interface {
	GetByID(ctx context.Context, id string) (*domain.FocusSession, error)
	GetActiveByUser(ctx context.Context, userID string) (*domain.FocusSession, error)
	Create(ctx context.Context, s *domain.FocusSession) error
	Finish(ctx context.Context, id string, status domain.Status, endedAt time.Time) (bool, error)
}

// Notifier delivers best-effort user-facing side effects after transitions.
// Implementations must return quickly and own their failure handling; the
// state machine never waits on them.
type Notifier interface {
	// FocusStarted announces a new session (focus status set on the chat platform).
	FocusStarted(s *domain.FocusSession)
	// FocusEnded announces an early end or interruption (status cleared).
	FocusEnded(s *domain.FocusSession)
	// FocusCompleted announces a session that ran its full course.
	FocusCompleted(s *domain.FocusSession)
}

// SessionService drives the focus session state machine. Transition legality
// is re-checked against the persisted record at transition time, never
// against cached state, so stale timers and concurrent commands cannot
// produce a second transition out of the same session.
type SessionService struct {
	repo     Repo
	notifier Notifier
	clock    clock.Clock

	mu     sync.Mutex
	timers map[string]clock.Timer // session ID -> auto-completion timer
}

// NewSessionService returns a SessionService with the given dependencies.
func NewSessionService(repo Repo, notifier Notifier, clk clock.Clock) *SessionService {
	return &SessionService{
		repo:     repo,
		notifier: notifier,
		clock:    clk,
		timers:   make(map[string]clock.Timer),
	}
}

// Start begins a focus session for the user. Valid only when the user has no
// active session; otherwise the running session is returned together with
// ErrSessionActive so the caller can describe it. A successful start arms an
// auto-completion timer for the session duration.
func (s *SessionService) Start(ctx context.Context, userID string, durationMinutes int) (*domain.FocusSession, error) {
	existing, err := s.repo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, ErrSessionActive
	}

	now := s.clock.Now().UTC()
	sess := &domain.FocusSession{
		ID:              uuid.New().String(),
		UserID:          userID,
		DurationMinutes: durationMinutes,
		StartTime:       now,
		Status:          domain.StatusActive,
		CreatedAt:       now,
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		if errors.Is(err, domain.ErrActiveExists) {
			// Lost the race to a concurrent start; surface the winner.
			current, getErr := s.repo.GetActiveByUser(ctx, userID)
			if getErr == nil && current != nil {
				return current, ErrSessionActive
			}
			return nil, ErrSessionActive
		}
		return nil, err
	}

	s.armTimer(sess)
	s.notifier.FocusStarted(sess)
	return sess, nil
}

// End completes the user's active session ahead of its timer. Returns
// ErrNoActiveSession when there is nothing to end, including the case where
// the timer or a concurrent command finished it between read and update.
func (s *SessionService) End(ctx context.Context, userID string) (*domain.FocusSession, error) {
	sess, err := s.repo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoActiveSession
	}
	return s.finish(ctx, sess, domain.StatusCompleted)
}

// Interrupt cuts an active session short on behalf of a non-user trigger,
// e.g. a break taken mid-session.
func (s *SessionService) Interrupt(ctx context.Context, sessionID string) (*domain.FocusSession, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Status != domain.StatusActive {
		return nil, ErrNoActiveSession
	}
	return s.finish(ctx, sess, domain.StatusInterrupted)
}

// Active returns the user's running session, or nil when none.
func (s *SessionService) Active(ctx context.Context, userID string) (*domain.FocusSession, error) {
	return s.repo.GetActiveByUser(ctx, userID)
}

func (s *SessionService) finish(ctx context.Context, sess *domain.FocusSession, status domain.Status) (*domain.FocusSession, error) {
	endedAt := s.clock.Now().UTC()
	ok, err := s.repo.Finish(ctx, sess.ID, status, endedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActiveSession
	}
	s.stopTimer(sess.ID)
	sess.Status = status
	sess.EndTime = &endedAt
	s.notifier.FocusEnded(sess)
	return sess, nil
}

func (s *SessionService) armTimer(sess *domain.FocusSession) {
	id := sess.ID
	d := time.Duration(sess.DurationMinutes) * time.Minute
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[id] = s.clock.AfterFunc(d, func() { s.autoComplete(id) })
}

func (s *SessionService) stopTimer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// autoComplete fires when a session timer elapses. It re-reads the persisted
// record; sessions ended in the meantime stay untouched.
func (s *SessionService) autoComplete(id string) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), autoCompleteTimeout)
	defer cancel()

	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.Printf("session: auto-complete read %s: %v", id, err)
		return
	}
	if sess == nil || sess.Status != domain.StatusActive {
		return
	}
	endedAt := s.clock.Now().UTC()
	ok, err := s.repo.Finish(ctx, id, domain.StatusCompleted, endedAt)
	if err != nil {
		log.Printf("session: auto-complete finish %s: %v", id, err)
		return
	}
	if !ok {
		return
	}
	sess.Status = domain.StatusCompleted
	sess.EndTime = &endedAt
	s.notifier.FocusCompleted(sess)
}
