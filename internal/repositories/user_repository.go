package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	UpdateAccount(ctx context.Context, id string, changes models.AccountChanges) (models.User, error)
	UpdateAvatar(ctx context.Context, id, url string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, url string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, username, email, fullname, avatar, cover_image, password_hash, refresh_token, created_at, updated_at`

func scanUser(row scanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Fullname, &u.Avatar, &u.CoverImage, &u.Password, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create persists a new user record. Duplicate usernames or emails yield ErrConflict.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, fullname, avatar, cover_image, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.Username, user.Email, user.Fullname, user.Avatar, user.CoverImage, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return writeError("insert user", err)
	}
	return nil
}

func (r *PostgresUserRepository) findOne(ctx context.Context, where string, arg any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		return models.User{}, readError("select user", err)
	}
	return user, nil
}

// FindByID fetches a user by primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `id = $1`, id)
}

// FindByUsername matches usernames case-insensitively.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, `username = $1`, strings.ToLower(strings.TrimSpace(username)))
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, `email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

// UpdateAccount applies the non-nil changes and returns the updated user.
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, id string, changes models.AccountChanges) (models.User, error) {
	if changes.Empty() {
		return r.FindByID(ctx, id)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        UPDATE users
        SET fullname = COALESCE($2, fullname),
            username = COALESCE($3, username),
            email = COALESCE($4, email),
            updated_at = NOW()
        WHERE id = $1
        RETURNING `+userColumns,
		id, changes.Fullname, lowerPtr(changes.Username), lowerPtr(changes.Email)))
	if err != nil {
		return models.User{}, writeError("update user account", err)
	}
	return user, nil
}

func (r *PostgresUserRepository) updateColumn(ctx context.Context, column, id string, value any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        UPDATE users SET `+column+` = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING `+userColumns, id, value))
	if err != nil {
		return models.User{}, writeError("update user "+column, err)
	}
	return user, nil
}

// UpdateAvatar stores the avatar URL.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id, url string) (models.User, error) {
	return r.updateColumn(ctx, "avatar", id, url)
}

// UpdateCoverImage stores the cover image URL.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id, url string) (models.User, error) {
	return r.updateColumn(ctx, "cover_image", id, url)
}

// UpdatePassword replaces the password digest and signs the user out everywhere
// by clearing the refresh token.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET password_hash = $2, refresh_token = NULL, updated_at = NOW()
        WHERE id = $1
    `, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ChannelProfile loads a user as a channel with subscription counters. viewerID
// may be empty for anonymous viewers.
func (r *PostgresUserRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var p models.ChannelProfile
	err = conn.QueryRow(ctx, `
        SELECT u.id, u.username, u.fullname, u.avatar, u.email, u.cover_image, u.created_at,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
            (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
            EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2::UUID)
        FROM users u
        WHERE u.username = $1
    `, strings.ToLower(strings.TrimSpace(username)), nullableID(viewerID)).Scan(
		&p.ID, &p.Username, &p.Fullname, &p.Avatar, &p.Email, &p.CoverImage, &p.CreatedAt,
		&p.SubscribersCount, &p.SubscribedToCount, &p.IsSubscribed,
	)
	if err != nil {
		return models.ChannelProfile{}, readError("select channel profile", err)
	}
	return p, nil
}

func lowerPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*s))
	return &v
}

var _ UserRepository = (*PostgresUserRepository)(nil)
