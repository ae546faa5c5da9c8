package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

type scanner interface {
	Scan(dest ...any) error
}

// inTx runs fn in a transaction on a pooled connection. The transaction is
// rolled back when fn fails.
func inTx(ctx context.Context, pool db.Pool, name string, fn func(tx pgx.Tx) error) error {
	ctx, span := logging.StartSpan(ctx, name)
	defer span.End()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin %s: %w", name, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		span.Fail(err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

// filter accumulates WHERE conditions with positional arguments.
type filter struct {
	conds []string
	args  []any
}

// arg registers a value and returns its placeholder.
func (f *filter) arg(value any) string {
	f.args = append(f.args, value)
	return fmt.Sprintf("$%d", len(f.args))
}

func (f *filter) where(cond string) {
	f.conds = append(f.conds, cond)
}

func (f *filter) clause() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// nullableID maps an empty id to NULL so anonymous viewers match no owner.
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func orderDirection(order string) string {
	if strings.EqualFold(order, "asc") {
		return "ASC"
	}
	return "DESC"
}

// likePattern escapes LIKE wildcards in a user search term.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

const videoColumns = `
    v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url, v.duration,
    v.view_count, v.like_count, v.comment_count, v.is_published, v.published_at,
    v.created_at, v.updated_at,
    u.id, u.username, u.fullname, u.avatar`

const videoFrom = ` FROM videos v JOIN users u ON u.id = v.owner_id`

func scanVideo(row scanner) (models.Video, error) {
	var (
		v     models.Video
		owner models.UserSummary
	)
	err := row.Scan(
		&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL, &v.Duration,
		&v.ViewCount, &v.LikeCount, &v.CommentCount, &v.IsPublished, &v.PublishedAt,
		&v.CreatedAt, &v.UpdatedAt,
		&owner.ID, &owner.Username, &owner.Fullname, &owner.Avatar,
	)
	if err != nil {
		return models.Video{}, err
	}
	v.Owner = &owner
	return v, nil
}

func collectVideos(rows pgx.Rows) ([]models.Video, error) {
	defer rows.Close()
	videos := []models.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

func collectSummaries(rows pgx.Rows) ([]models.UserSummary, error) {
	defer rows.Close()
	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.Fullname, &u.Avatar); err != nil {
			return nil, fmt.Errorf("scan user summary: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user summaries: %w", err)
	}
	return users, nil
}
