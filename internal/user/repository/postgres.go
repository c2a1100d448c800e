package repository

import (
	"context"
	"database/sql"
	"errors"

	"focusflow/backend/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, team_id, platform_user_id, display_name, timezone, created_at, updated_at`

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByPlatformID returns the user for the platform (team, user) pair, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByPlatformID(ctx context.Context, teamID, platformUserID string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE team_id = $1 AND platform_user_id = $2`,
		teamID, platformUserID)
	return scanUser(row)
}

// Create persists the user. The user must have ID set; it is not assigned by this method.
// A conflicting (team_id, platform_user_id) pair is left untouched.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	display := sql.NullString{String: u.DisplayName, Valid: u.DisplayName != ""}
	tz := sql.NullString{String: u.Timezone, Valid: u.Timezone != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, team_id, platform_user_id, display_name, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (team_id, platform_user_id) DO NOTHING`,
		u.ID, u.TeamID, u.PlatformUserID, display, tz, u.CreatedAt, u.UpdatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var display, tz sql.NullString
	err := row.Scan(&u.ID, &u.TeamID, &u.PlatformUserID, &display, &tz, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.DisplayName = display.String
	u.Timezone = tz.String
	return &u, nil
}
