package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// SubscriptionRepository toggles and lists channel subscriptions.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	Channels(ctx context.Context, subscriberID string) ([]models.UserSummary, error)
	Subscribers(ctx context.Context, channelID string) ([]models.UserSummary, error)
}

// PostgresSubscriptionRepository stores subscriptions in PostgreSQL.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle subscribes when no subscription exists and unsubscribes otherwise.
// A missing channel yields ErrNotFound.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	var subscribed bool
	err := inTx(ctx, r.pool, "toggle subscription", func(tx pgx.Tx) error {
		var id string
		if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, channelID).Scan(&id); err != nil {
			return readError("lock channel", err)
		}

		tag, err := tx.Exec(ctx, `
            INSERT INTO subscriptions (id, subscriber_id, channel_id)
            VALUES ($1, $2, $3)
            ON CONFLICT (subscriber_id, channel_id) DO NOTHING
        `, uuid.NewString(), subscriberID, channelID)
		if err != nil {
			return writeError("insert subscription", err)
		}

		subscribed = tag.RowsAffected() == 1
		if subscribed {
			return nil
		}
		_, err = tx.Exec(ctx, `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`, subscriberID, channelID)
		if err != nil {
			return fmt.Errorf("delete subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return subscribed, nil
}

// Channels lists the channels a user subscribes to.
func (r *PostgresSubscriptionRepository) Channels(ctx context.Context, subscriberID string) ([]models.UserSummary, error) {
	return r.summaries(ctx, `
        SELECT u.id, u.username, u.fullname, u.avatar
        FROM subscriptions s JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC, u.id
    `, subscriberID)
}

// Subscribers lists the users subscribed to a channel.
func (r *PostgresSubscriptionRepository) Subscribers(ctx context.Context, channelID string) ([]models.UserSummary, error) {
	return r.summaries(ctx, `
        SELECT u.id, u.username, u.fullname, u.avatar
        FROM subscriptions s JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC, u.id
    `, channelID)
}

func (r *PostgresSubscriptionRepository) summaries(ctx context.Context, query, id string) ([]models.UserSummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	return collectSummaries(rows)
}

var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
