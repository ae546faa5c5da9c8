package repositories

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// VideoRepository exposes data access for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Search(ctx context.Context, query models.VideoQuery) ([]models.Video, int64, error)
	ListByOwner(ctx context.Context, ownerID string, published *bool, page models.Page) ([]models.Video, int64, error)
	Update(ctx context.Context, id string, changes models.VideoChanges) (models.Video, error)
	Delete(ctx context.Context, id string) error
	TogglePublish(ctx context.Context, id string) (models.Video, error)
	IncrementViews(ctx context.Context, id string) error
	UpdateDuration(ctx context.Context, id string, seconds float64) error
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

var videoSortColumns = map[string]string{
	"createdAt": "v.created_at",
	"viewCount": "v.view_count",
	"likeCount": "v.like_count",
	"duration":  "v.duration",
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration, is_published, published_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoURL, video.ThumbnailURL, video.Duration,
		video.IsPublished, video.PublishedAt, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return writeError("insert video", err)
	}
	return nil
}

// FindByID returns the video with its owner summary.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+videoFrom+` WHERE v.id = $1`, id))
	if err != nil {
		return models.Video{}, readError("select video", err)
	}
	return video, nil
}

// Search lists published videos matching the query, newest first by default.
func (r *PostgresVideoRepository) Search(ctx context.Context, query models.VideoQuery) ([]models.Video, int64, error) {
	var f filter
	f.where("v.is_published = TRUE")
	if query.Search != "" {
		p := f.arg(likePattern(query.Search))
		f.where("(v.title ILIKE " + p + " OR v.description ILIKE " + p + ")")
	}
	if query.OwnerID != "" {
		f.where("v.owner_id = " + f.arg(query.OwnerID))
	}

	column, ok := videoSortColumns[query.SortBy]
	if !ok {
		column = "v.created_at"
	}
	return r.list(ctx, f, column+" "+orderDirection(query.SortOrder), query.Page)
}

// ListByOwner lists a creator's videos, optionally filtered by publish state.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID string, published *bool, page models.Page) ([]models.Video, int64, error) {
	var f filter
	f.where("v.owner_id = " + f.arg(ownerID))
	if published != nil {
		f.where("v.is_published = " + f.arg(*published))
	}
	return r.list(ctx, f, "v.created_at DESC", page)
}

func (r *PostgresVideoRepository) list(ctx context.Context, f filter, orderBy string, page models.Page) ([]models.Video, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*)`+videoFrom+f.clause(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	limit := f.arg(page.Limit)
	offset := f.arg(page.Offset())
	rows, err := conn.Query(ctx, `SELECT `+videoColumns+videoFrom+f.clause()+
		` ORDER BY `+orderBy+`, v.id LIMIT `+limit+` OFFSET `+offset, f.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query videos: %w", err)
	}
	videos, err := collectVideos(rows)
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// Update applies the non-nil changes. Publishing for the first time stamps published_at.
func (r *PostgresVideoRepository) Update(ctx context.Context, id string, changes models.VideoChanges) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = COALESCE($2, title),
            description = COALESCE($3, description),
            thumbnail_url = COALESCE($4, thumbnail_url),
            published_at = CASE
                WHEN $5::BOOLEAN IS NULL THEN published_at
                WHEN $5::BOOLEAN THEN COALESCE(published_at, NOW())
                ELSE NULL
            END,
            is_published = COALESCE($5::BOOLEAN, is_published),
            updated_at = NOW()
        WHERE id = $1
    `, id, changes.Title, changes.Description, changes.ThumbnailURL, changes.IsPublished)
	if err != nil {
		return models.Video{}, writeError("update video", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Video{}, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes a video; likes, comments and playlist entries cascade.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TogglePublish flips the publish flag in a single statement.
func (r *PostgresVideoRepository) TogglePublish(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET is_published = NOT is_published,
            published_at = CASE WHEN is_published THEN NULL ELSE NOW() END,
            updated_at = NOW()
        WHERE id = $1
    `, id)
	if err != nil {
		return models.Video{}, fmt.Errorf("toggle video publish: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Video{}, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// IncrementViews bumps the view counter atomically.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment video views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDuration records the probed duration in seconds.
func (r *PostgresVideoRepository) UpdateDuration(ctx context.Context, id string, seconds float64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET duration = $2 WHERE id = $1`, id, seconds)
	if err != nil {
		return fmt.Errorf("update video duration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
