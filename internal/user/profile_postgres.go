package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wichananm65/ecofinds-backend/internal/database"
)

type PostgresProfileRepository struct {
	db database.DBTX
}

const (
	getProfileQuery = `
		SELECT user_id, username, email, created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`
	saveProfileQuery = `
		INSERT INTO user_profiles (user_id, username, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username, email = EXCLUDED.email, updated_at = EXCLUDED.updated_at
		RETURNING user_id, username, email, created_at, updated_at
	`
	usernameConstraint = "user_profiles_username_key"
	emailConstraint    = "user_profiles_email_key"
)

func NewPostgresProfileRepository(db database.DBTX) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) GetProfile(ctx context.Context, userID int) (Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, getProfileQuery, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrProfileNotFound
	}
	return p, err
}

func (r *PostgresProfileRepository) SaveProfile(ctx context.Context, p Profile) (Profile, error) {
	saved, err := scanProfile(r.db.QueryRowContext(ctx, saveProfileQuery, p.UserID, p.Username, p.Email, time.Now().UTC()))
	switch database.ViolatedConstraint(err) {
	case usernameConstraint:
		return Profile{}, ErrUsernameTaken
	case emailConstraint:
		return Profile{}, ErrEmailTaken
	}
	return saved, err
}

func scanProfile(row *sql.Row) (Profile, error) {
	var p Profile
	if err := row.Scan(&p.UserID, &p.Username, &p.Email, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Profile{}, err
	}
	return p, nil
}
