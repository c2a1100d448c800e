package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"focusflow/backend/internal/suggestion/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a suggestion repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const suggestionColumns = `id, user_id, category, message, reason, accepted, suggested_at, accepted_at`

// GetByID returns the suggestion for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.BreakSuggestion, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+suggestionColumns+` FROM break_suggestions WHERE id = $1`, id)
	return scanSuggestion(row)
}

// Create persists the suggestion. The suggestion must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.BreakSuggestion) error {
	var acceptedAt sql.NullTime
	if s.AcceptedAt != nil {
		acceptedAt = sql.NullTime{Time: *s.AcceptedAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO break_suggestions (id, user_id, category, message, reason, accepted, suggested_at, accepted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.UserID, string(s.Category), s.Message, s.Reason, s.Accepted, s.SuggestedAt, acceptedAt)
	return err
}

// Accept marks the suggestion accepted and stamps AcceptedAt. The WHERE guard
// keeps a second accept from moving the timestamp.
func (r *PostgresRepository) Accept(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE break_suggestions SET accepted = TRUE, accepted_at = $2
		WHERE id = $1 AND accepted = FALSE`,
		id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountSince returns how many suggestions the user received at or after since.
func (r *PostgresRepository) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM break_suggestions
		WHERE user_id = $1 AND suggested_at >= $2`,
		userID, since).Scan(&n)
	return n, err
}

// CountAcceptedSince returns how many suggestions the user accepted at or after since.
func (r *PostgresRepository) CountAcceptedSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM break_suggestions
		WHERE user_id = $1 AND accepted = TRUE AND accepted_at >= $2`,
		userID, since).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSuggestion(row rowScanner) (*domain.BreakSuggestion, error) {
	var s domain.BreakSuggestion
	var category string
	var acceptedAt sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &category, &s.Message, &s.Reason,
		&s.Accepted, &s.SuggestedAt, &acceptedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Category = domain.Category(category)
	if acceptedAt.Valid {
		v := acceptedAt.Time
		s.AcceptedAt = &v
	}
	return &s, nil
}
