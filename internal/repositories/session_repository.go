package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/auth"
)

// SetRefreshToken replaces the user's single active refresh token. A nil token
// signs the user out.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, userID string, token *string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET refresh_token = $2 WHERE id = $1
    `, userID, token)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RefreshToken returns the stored refresh token or auth.ErrNoRefreshToken.
func (r *PostgresUserRepository) RefreshToken(ctx context.Context, userID string) (string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var token *string
	if err := conn.QueryRow(ctx, `SELECT refresh_token FROM users WHERE id = $1`, userID).Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", auth.ErrNoRefreshToken
		}
		return "", fmt.Errorf("select refresh token: %w", err)
	}
	if token == nil {
		return "", auth.ErrNoRefreshToken
	}
	return *token, nil
}

var _ auth.RefreshTokenStore = (*PostgresUserRepository)(nil)
