package repositories

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// HistoryRepository records and lists watched videos.
type HistoryRepository interface {
	Record(ctx context.Context, userID, videoID string) error
	List(ctx context.Context, userID string, page models.Page) ([]models.WatchEntry, int64, error)
}

// PostgresHistoryRepository stores watch history in PostgreSQL.
type PostgresHistoryRepository struct {
	pool db.Pool
}

// NewPostgresHistoryRepository constructs a history repository backed by PostgreSQL.
func NewPostgresHistoryRepository(pool db.Pool) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{pool: pool}
}

// Record stores a view; watching the same video again moves it to the top.
func (r *PostgresHistoryRepository) Record(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = excluded.watched_at
    `, userID, videoID)
	if err != nil {
		return writeError("record watch history", err)
	}
	return nil
}

// List pages through a user's history, most recent first.
func (r *PostgresHistoryRepository) List(ctx context.Context, userID string, page models.Page) ([]models.WatchEntry, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM watch_history WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count watch history: %w", err)
	}

	rows, err := conn.Query(ctx, `SELECT `+videoColumns+`, h.watched_at`+videoFrom+`
        JOIN watch_history h ON h.video_id = v.id
        WHERE h.user_id = $1
        ORDER BY h.watched_at DESC, v.id
        LIMIT $2 OFFSET $3`, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	entries := []models.WatchEntry{}
	for rows.Next() {
		var (
			entry models.WatchEntry
			owner models.UserSummary
			v     = &entry.Video
		)
		err := rows.Scan(
			&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL, &v.Duration,
			&v.ViewCount, &v.LikeCount, &v.CommentCount, &v.IsPublished, &v.PublishedAt,
			&v.CreatedAt, &v.UpdatedAt,
			&owner.ID, &owner.Username, &owner.Fullname, &owner.Avatar,
			&entry.WatchedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan watch history: %w", err)
		}
		v.Owner = &owner
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate watch history: %w", err)
	}
	return entries, total, nil
}

var _ HistoryRepository = (*PostgresHistoryRepository)(nil)
