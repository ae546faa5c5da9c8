package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// DashboardRepository aggregates channel statistics for creators.
type DashboardRepository interface {
	ChannelStats(ctx context.Context, ownerID string, window models.TimeWindow) (models.ChannelStats, error)
}

// PostgresDashboardRepository computes dashboard aggregates in PostgreSQL.
type PostgresDashboardRepository struct {
	pool db.Pool
}

// NewPostgresDashboardRepository constructs a dashboard repository backed by PostgreSQL.
func NewPostgresDashboardRepository(pool db.Pool) *PostgresDashboardRepository {
	return &PostgresDashboardRepository{pool: pool}
}

// ChannelStats sums the counters of videos created inside the window and counts
// subscriptions started inside it. Zero bounds leave the window open.
func (r *PostgresDashboardRepository) ChannelStats(ctx context.Context, ownerID string, window models.TimeWindow) (models.ChannelStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	from, to := bound(window.From), bound(window.To)

	var stats models.ChannelStats
	err = conn.QueryRow(ctx, `
        SELECT COUNT(*),
            COALESCE(SUM(view_count), 0)::BIGINT,
            COALESCE(SUM(like_count), 0)::BIGINT,
            COALESCE(SUM(comment_count), 0)::BIGINT
        FROM videos
        WHERE owner_id = $1
          AND ($2::TIMESTAMPTZ IS NULL OR created_at >= $2::TIMESTAMPTZ)
          AND ($3::TIMESTAMPTZ IS NULL OR created_at <= $3::TIMESTAMPTZ)
    `, ownerID, from, to).Scan(&stats.TotalVideos, &stats.TotalViews, &stats.TotalLikes, &stats.TotalComments)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("aggregate channel videos: %w", err)
	}

	err = conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM subscriptions
        WHERE channel_id = $1
          AND ($2::TIMESTAMPTZ IS NULL OR created_at >= $2::TIMESTAMPTZ)
          AND ($3::TIMESTAMPTZ IS NULL OR created_at <= $3::TIMESTAMPTZ)
    `, ownerID, from, to).Scan(&stats.SubscriberCount)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("count subscribers: %w", err)
	}
	return stats, nil
}

func bound(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

var _ DashboardRepository = (*PostgresDashboardRepository)(nil)
