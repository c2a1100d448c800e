package repository

import (
	"context"
	"database/sql"
	"time"

	"focusflow/backend/internal/meeting/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a meeting repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListForWindow returns the user's meetings overlapping [from, to), ordered by start time.
func (r *PostgresRepository) ListForWindow(ctx context.Context, userID string, from, to time.Time) ([]*domain.Meeting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, start_time, end_time, created_at
		FROM meetings
		WHERE user_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time`,
		userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Meeting
	for rows.Next() {
		var m domain.Meeting
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.StartTime, &m.EndTime, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// Upsert inserts the meeting or refreshes its title and times when the ID exists.
func (r *PostgresRepository) Upsert(ctx context.Context, m *domain.Meeting) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO meetings (id, user_id, title, start_time, end_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time`,
		m.ID, m.UserID, m.Title, m.StartTime, m.EndTime, m.CreatedAt)
	return err
}
