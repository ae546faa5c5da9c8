package repositories

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// TweetRepository exposes data access for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) (models.Tweet, error)
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	Search(ctx context.Context, query models.TweetQuery) ([]models.Tweet, int64, error)
	UpdateContent(ctx context.Context, id, content string) (models.Tweet, error)
	Delete(ctx context.Context, id string) error
}

// PostgresTweetRepository stores tweets in PostgreSQL.
type PostgresTweetRepository struct {
	pool db.Pool
}

// NewPostgresTweetRepository constructs a tweet repository backed by PostgreSQL.
func NewPostgresTweetRepository(pool db.Pool) *PostgresTweetRepository {
	return &PostgresTweetRepository{pool: pool}
}

const tweetColumns = `
    t.id, t.owner_id, t.content, t.like_count, t.created_at, t.updated_at,
    u.id, u.username, u.fullname, u.avatar`

const tweetFrom = ` FROM tweets t JOIN users u ON u.id = t.owner_id`

var tweetSortColumns = map[string]string{
	"createdAt": "t.created_at",
	"likeCount": "t.like_count",
}

func scanTweet(row scanner) (models.Tweet, error) {
	var (
		t     models.Tweet
		owner models.UserSummary
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Content, &t.LikeCount, &t.CreatedAt, &t.UpdatedAt,
		&owner.ID, &owner.Username, &owner.Fullname, &owner.Avatar)
	if err != nil {
		return models.Tweet{}, err
	}
	t.Owner = &owner
	return t, nil
}

// Create stores a tweet and returns it with its author.
func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) (models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO tweets (id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, tweet.ID, tweet.OwnerID, tweet.Content, tweet.CreatedAt, tweet.UpdatedAt)
	if err != nil {
		return models.Tweet{}, writeError("insert tweet", err)
	}
	return r.FindByID(ctx, tweet.ID)
}

func (r *PostgresTweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tweet, err := scanTweet(conn.QueryRow(ctx, `SELECT `+tweetColumns+tweetFrom+` WHERE t.id = $1`, id))
	if err != nil {
		return models.Tweet{}, readError("select tweet", err)
	}
	return tweet, nil
}

// Search lists tweets filtered by content and author. The user tweets
// endpoint is a search restricted to one owner.
func (r *PostgresTweetRepository) Search(ctx context.Context, query models.TweetQuery) ([]models.Tweet, int64, error) {
	var f filter
	if query.Search != "" {
		f.where("t.content ILIKE " + f.arg(likePattern(query.Search)))
	}
	if query.OwnerID != "" {
		f.where("t.owner_id = " + f.arg(query.OwnerID))
	}
	column, ok := tweetSortColumns[query.SortBy]
	if !ok {
		column = "t.created_at"
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*)`+tweetFrom+f.clause(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tweets: %w", err)
	}

	limit := f.arg(query.Page.Limit)
	offset := f.arg(query.Page.Offset())
	rows, err := conn.Query(ctx, `SELECT `+tweetColumns+tweetFrom+f.clause()+
		` ORDER BY `+column+` `+orderDirection(query.SortOrder)+`, t.id LIMIT `+limit+` OFFSET `+offset, f.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query tweets: %w", err)
	}
	defer rows.Close()

	tweets := []models.Tweet{}
	for rows.Next() {
		t, err := scanTweet(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan tweet: %w", err)
		}
		tweets = append(tweets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tweets: %w", err)
	}
	return tweets, total, nil
}

func (r *PostgresTweetRepository) UpdateContent(ctx context.Context, id, content string) (models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE tweets SET content = $2, updated_at = NOW() WHERE id = $1`, id, content)
	if err != nil {
		return models.Tweet{}, writeError("update tweet", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Tweet{}, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *PostgresTweetRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM tweets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ TweetRepository = (*PostgresTweetRepository)(nil)
