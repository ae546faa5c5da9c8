package repositories

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PlaylistRepository exposes data access for playlists and their entries.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) (models.Playlist, error)
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	Videos(ctx context.Context, playlistID, viewerID string) ([]models.Video, error)
	ListByUser(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, id string, changes models.PlaylistChanges) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// PostgresPlaylistRepository stores playlists in PostgreSQL.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

const playlistSelect = `
    SELECT p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at,
        (SELECT COUNT(*) FROM playlist_videos pv WHERE pv.playlist_id = p.id)
    FROM playlists p`

func scanPlaylist(row scanner) (models.Playlist, error) {
	var p models.Playlist
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.VideoCount)
	return p, err
}

func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		return models.Playlist{}, writeError("insert playlist", err)
	}
	return r.FindByID(ctx, playlist.ID)
}

// FindByID fetches a playlist with its video count but without its videos.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	playlist, err := scanPlaylist(conn.QueryRow(ctx, playlistSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return models.Playlist{}, readError("select playlist", err)
	}
	return playlist, nil
}

// Videos lists the playlist entries in the order they were added. Unpublished
// entries are only listed for their owner.
func (r *PostgresPlaylistRepository) Videos(ctx context.Context, playlistID, viewerID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+videoColumns+videoFrom+`
        JOIN playlist_videos pv ON pv.video_id = v.id
        WHERE pv.playlist_id = $1 AND (v.is_published OR v.owner_id = $2::UUID)
        ORDER BY pv.added_at, v.id`, playlistID, nullableID(viewerID))
	if err != nil {
		return nil, fmt.Errorf("query playlist videos: %w", err)
	}
	return collectVideos(rows)
}

func (r *PostgresPlaylistRepository) ListByUser(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, playlistSelect+` WHERE p.owner_id = $1 ORDER BY p.created_at DESC, p.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return playlists, nil
}

func (r *PostgresPlaylistRepository) Update(ctx context.Context, id string, changes models.PlaylistChanges) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE playlists
        SET name = COALESCE($2, name),
            description = COALESCE($3, description),
            updated_at = NOW()
        WHERE id = $1
    `, id, changes.Name, changes.Description)
	if err != nil {
		return models.Playlist{}, writeError("update playlist", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Playlist{}, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddVideo appends a video. A duplicate entry yields ErrConflict and a missing
// playlist or video yields ErrNotFound.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `INSERT INTO playlist_videos (playlist_id, video_id) VALUES ($1, $2)`, playlistID, videoID)
	if err != nil {
		return writeError("add playlist video", err)
	}
	return nil
}

// RemoveVideo drops an entry; removing an absent entry yields ErrNotFound.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`, playlistID, videoID)
	if err != nil {
		return fmt.Errorf("remove playlist video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ PlaylistRepository = (*PostgresPlaylistRepository)(nil)
