package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"focusflow/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a focus session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, user_id, duration_minutes, start_time, end_time, status, notification_sent, created_at`

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.FocusSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM focus_sessions WHERE id = $1`, id)
	return scanSession(row)
}

// GetActiveByUser returns the user's active session, or nil when none.
func (r *PostgresRepository) GetActiveByUser(ctx context.Context, userID string) (*domain.FocusSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM focus_sessions WHERE user_id = $1 AND status = 'active'`, userID)
	return scanSession(row)
}

// Create persists the session. The session must have ID set; it is not assigned by this method.
// The partial unique index on (user_id) WHERE status = 'active' turns a concurrent
// second start into domain.ErrActiveExists.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.FocusSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO focus_sessions (id, user_id, duration_minutes, start_time, end_time, status, notification_sent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.UserID, s.DurationMinutes, s.StartTime, timeToNullTime(s.EndTime),
		string(s.Status), s.NotificationSent, s.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrActiveExists
	}
	return err
}

// Finish moves the session to a terminal status and stamps EndTime. Reports
// false when the session was not active anymore, without error.
func (r *PostgresRepository) Finish(ctx context.Context, id string, status domain.Status, endedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE focus_sessions SET status = $2, end_time = $3
		WHERE id = $1 AND status = 'active'`,
		id, string(status), endedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkNotified records that the completion push for the session went out.
func (r *PostgresRepository) MarkNotified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE focus_sessions SET notification_sent = TRUE WHERE id = $1`, id)
	return err
}

// CountCompletedSince returns how many of the user's sessions completed at or after since.
func (r *PostgresRepository) CountCompletedSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM focus_sessions
		WHERE user_id = $1 AND status = 'completed' AND end_time >= $2`,
		userID, since).Scan(&n)
	return n, err
}

// MinutesFocusedSince sums the elapsed minutes of the user's completed
// sessions since the given time. Sessions ended early count what actually ran.
func (r *PostgresRepository) MinutesFocusedSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(FLOOR(EXTRACT(EPOCH FROM (end_time - start_time)) / 60)), 0)::int
		FROM focus_sessions
		WHERE user_id = $1 AND status = 'completed' AND end_time >= $2`,
		userID, since).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.FocusSession, error) {
	var s domain.FocusSession
	var status string
	var endTime sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &s.DurationMinutes, &s.StartTime, &endTime,
		&status, &s.NotificationSent, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Status = domain.Status(status)
	s.EndTime = nullTimeToPtr(endTime)
	return &s, nil
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
