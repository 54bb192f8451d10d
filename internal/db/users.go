package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jwtapi/backend/internal/model"
)

func (db *Postgres) EnsureSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			login_id TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'User',
			refresh_token TEXT,
			refresh_token_expiry TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE INDEX IF NOT EXISTS users_login_id_idx ON users(login_id)`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

const userColumns = `id, login_id, password_hash, username, email, phone, role, refresh_token, refresh_token_expiry, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.LoginID,
		&user.PasswordHash,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.RefreshToken,
		&user.RefreshTokenExpiry,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *Postgres) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
		INSERT INTO users (login_id, password_hash, username, email, phone, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING ` + userColumns
	return scanUser(db.Pool.QueryRow(ctx, query,
		user.LoginID, user.PasswordHash, user.Name, user.Email, user.Phone, user.Role))
}

func (db *Postgres) GetUserByLoginID(ctx context.Context, loginID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login_id = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, loginID))
}

func (db *Postgres) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, id))
}

func (db *Postgres) ListUsers(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// SetRefreshToken overwrites the persisted refresh token unconditionally
// (login path).
func (db *Postgres) SetRefreshToken(ctx context.Context, userID int64, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET refresh_token = $2, refresh_token_expiry = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err := db.Pool.Exec(ctx, query, userID, refreshToken, expiresAt)
	return err
}

// RotateRefreshToken replaces the persisted token only while it still equals
// currentToken. A false return means a concurrent rotation or logout won.
func (db *Postgres) RotateRefreshToken(ctx context.Context, userID int64, currentToken, newToken string, expiresAt time.Time) (bool, error) {
	query := `
		UPDATE users
		SET refresh_token = $3, refresh_token_expiry = $4, updated_at = NOW()
		WHERE id = $1 AND refresh_token = $2
	`
	tag, err := db.Pool.Exec(ctx, query, userID, currentToken, newToken, expiresAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ClearRefreshToken nulls both refresh fields (logout path). Idempotent.
func (db *Postgres) ClearRefreshToken(ctx context.Context, userID int64) error {
	query := `
		UPDATE users
		SET refresh_token = NULL, refresh_token_expiry = NULL, updated_at = NOW()
		WHERE id = $1
	`
	_, err := db.Pool.Exec(ctx, query, userID)
	return err
}

func IsNoRows(err error) bool {
	return err == pgx.ErrNoRows
}
