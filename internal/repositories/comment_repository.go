package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// CommentRepository exposes data access for video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) (models.Comment, error)
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string, page models.Page) ([]models.Comment, int64, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// PostgresCommentRepository stores comments in PostgreSQL.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

const commentColumns = `
    c.id, c.video_id, c.owner_id, c.parent_comment_id, c.content, c.like_count, c.created_at, c.updated_at,
    u.id, u.username, u.fullname, u.avatar`

const commentFrom = ` FROM comments c JOIN users u ON u.id = c.owner_id`

func scanComment(row scanner) (models.Comment, error) {
	var (
		c     models.Comment
		owner models.UserSummary
	)
	err := row.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.ParentCommentID, &c.Content, &c.LikeCount, &c.CreatedAt, &c.UpdatedAt,
		&owner.ID, &owner.Username, &owner.Fullname, &owner.Avatar)
	if err != nil {
		return models.Comment{}, err
	}
	c.Owner = &owner
	return c, nil
}

// Create inserts the comment and bumps the video's comment counter in one
// transaction. A missing video or parent yields ErrNotFound.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) (models.Comment, error) {
	err := inTx(ctx, r.pool, "create comment", func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            INSERT INTO comments (id, video_id, owner_id, parent_comment_id, content, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
        `, comment.ID, comment.VideoID, comment.OwnerID, comment.ParentCommentID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
		if err != nil {
			return writeError("insert comment", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE videos SET comment_count = comment_count + 1 WHERE id = $1`, comment.VideoID); err != nil {
			return fmt.Errorf("increment comment count: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Comment{}, err
	}
	return r.FindByID(ctx, comment.ID)
}

// FindByID fetches a comment with its author.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `SELECT `+commentColumns+commentFrom+` WHERE c.id = $1`, id))
	if err != nil {
		return models.Comment{}, readError("select comment", err)
	}
	return comment, nil
}

// ListByVideo pages through a video's comments, newest first.
func (r *PostgresCommentRepository) ListByVideo(ctx context.Context, videoID string, page models.Page) ([]models.Comment, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE video_id = $1`, videoID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	rows, err := conn.Query(ctx, `SELECT `+commentColumns+commentFrom+`
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC, c.id
        LIMIT $2 OFFSET $3`, videoID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, total, nil
}

// UpdateContent replaces the comment body.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, content string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE comments SET content = $2, updated_at = NOW() WHERE id = $1`, id, content)
	if err != nil {
		return models.Comment{}, writeError("update comment", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Comment{}, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes the comment and decrements the video's counter, never below zero.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	return inTx(ctx, r.pool, "delete comment", func(tx pgx.Tx) error {
		var videoID string
		err := tx.QueryRow(ctx, `DELETE FROM comments WHERE id = $1 RETURNING video_id`, id).Scan(&videoID)
		if err != nil {
			return readError("delete comment", err)
		}

		_, err = tx.Exec(ctx, `UPDATE videos SET comment_count = GREATEST(comment_count - 1, 0) WHERE id = $1`, videoID)
		if err != nil {
			return fmt.Errorf("decrement comment count: %w", err)
		}
		return nil
	})
}

var _ CommentRepository = (*PostgresCommentRepository)(nil)
