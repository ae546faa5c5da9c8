package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// LikeRepository toggles likes and keeps the denormalized counters in step.
type LikeRepository interface {
	ToggleVideoLike(ctx context.Context, userID, videoID string) (bool, int64, error)
	ToggleCommentLike(ctx context.Context, userID, commentID string) (bool, int64, error)
	ToggleTweetLike(ctx context.Context, userID, tweetID string) (bool, int64, error)
	LikedVideos(ctx context.Context, userID string) ([]models.Video, error)
}

// PostgresLikeRepository stores likes in PostgreSQL.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// likeTarget names the parent table, its join table and the join column.
// ownerOnlyHidden marks parents that stay invisible to everyone but their owner
// until published.
type likeTarget struct {
	parent          string
	join            string
	column          string
	ownerOnlyHidden bool
}

var (
	videoLikes   = likeTarget{parent: "videos", join: "video_likes", column: "video_id", ownerOnlyHidden: true}
	commentLikes = likeTarget{parent: "comments", join: "comment_likes", column: "comment_id"}
	tweetLikes   = likeTarget{parent: "tweets", join: "tweet_likes", column: "tweet_id"}
)

func (r *PostgresLikeRepository) ToggleVideoLike(ctx context.Context, userID, videoID string) (bool, int64, error) {
	return r.toggle(ctx, videoLikes, userID, videoID)
}

func (r *PostgresLikeRepository) ToggleCommentLike(ctx context.Context, userID, commentID string) (bool, int64, error) {
	return r.toggle(ctx, commentLikes, userID, commentID)
}

func (r *PostgresLikeRepository) ToggleTweetLike(ctx context.Context, userID, tweetID string) (bool, int64, error) {
	return r.toggle(ctx, tweetLikes, userID, tweetID)
}

// toggle flips the like inside one transaction. The parent row is locked first
// so concurrent toggles on the same target serialize; the insert reports whether
// the like already existed and the counter never drops below zero.
func (r *PostgresLikeRepository) toggle(ctx context.Context, target likeTarget, userID, targetID string) (bool, int64, error) {
	var (
		liked bool
		count int64
	)
	err := inTx(ctx, r.pool, "toggle "+target.join, func(tx pgx.Tx) error {
		lock := `SELECT like_count FROM ` + target.parent + ` WHERE id = $1 FOR UPDATE`
		args := []any{targetID}
		if target.ownerOnlyHidden {
			lock = `SELECT like_count FROM ` + target.parent + ` WHERE id = $1 AND (is_published OR owner_id = $2) FOR UPDATE`
			args = append(args, userID)
		}

		var current int64
		if err := tx.QueryRow(ctx, lock, args...).Scan(&current); err != nil {
			return readError("lock "+target.parent, err)
		}

		tag, err := tx.Exec(ctx, `INSERT INTO `+target.join+` (user_id, `+target.column+`) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, targetID)
		if err != nil {
			return writeError("insert "+target.join, err)
		}

		update := `UPDATE ` + target.parent + ` SET like_count = like_count + 1 WHERE id = $1 RETURNING like_count`
		liked = tag.RowsAffected() == 1
		if !liked {
			_, err := tx.Exec(ctx, `DELETE FROM `+target.join+` WHERE user_id = $1 AND `+target.column+` = $2`, userID, targetID)
			if err != nil {
				return fmt.Errorf("delete %s: %w", target.join, err)
			}
			update = `UPDATE ` + target.parent + ` SET like_count = GREATEST(like_count - 1, 0) WHERE id = $1 RETURNING like_count`
		}

		if err := tx.QueryRow(ctx, update, targetID).Scan(&count); err != nil {
			return fmt.Errorf("update %s like count: %w", target.parent, err)
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

// LikedVideos lists the published videos a user liked, most recent like first.
func (r *PostgresLikeRepository) LikedVideos(ctx context.Context, userID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+videoColumns+videoFrom+`
        JOIN video_likes l ON l.video_id = v.id
        WHERE l.user_id = $1 AND v.is_published = TRUE
        ORDER BY l.created_at DESC, v.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	return collectVideos(rows)
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
