package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apierror"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/validation"
)

const messagePlaylistNotFound = "Playlist not found"

// PlaylistHandler serves playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	Schemas   validation.Schemas
	NowFunc   func() time.Time
}

// Create handles POST /playlist.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) error {
	payload, err := parseBody(r, h.Schemas.CreatePlaylist)
	if err != nil {
		return err
	}

	now := nowOr(h.NowFunc)
	playlist, err := h.Playlists.Create(r.Context(), models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     callerID(r),
		Name:        payload.String("name"),
		Description: payload.String("description"),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return notFound(err, messageUserNotFound)
	}

	response.Created(r.Context(), w, "Playlist created successfully", map[string]any{"playlist": playlist})
	return nil
}

// Get handles GET /playlist/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := pathID(r, "playlistId", "")
	if err != nil {
		return err
	}

	playlist, err := h.Playlists.FindByID(ctx, id)
	if err != nil {
		return notFound(err, messagePlaylistNotFound)
	}
	videos, err := h.Playlists.Videos(ctx, id, callerID(r))
	if err != nil {
		return err
	}
	playlist.Videos = videos

	response.OK(ctx, w, "Playlist retrieved successfully", map[string]any{"playlist": playlist})
	return nil
}

// ListByUser handles GET /playlist/user/{userId}.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) error {
	userID, err := pathID(r, "userId", "Invalid user ID format")
	if err != nil {
		return err
	}

	playlists, err := h.Playlists.ListByUser(r.Context(), userID)
	if err != nil {
		return err
	}

	response.OK(r.Context(), w, "User playlists retrieved successfully", map[string]any{"playlists": playlists})
	return nil
}

// Update handles PATCH /playlist/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "playlistId", "")
	if err != nil {
		return err
	}
	payload, err := parseBody(r, h.Schemas.UpdatePlaylist)
	if err != nil {
		return err
	}
	if err := h.authorize(r, id, "update"); err != nil {
		return err
	}

	playlist, err := h.Playlists.Update(r.Context(), id, models.PlaylistChanges{
		Name:        payload.StringPtr("name"),
		Description: payload.StringPtr("description"),
	})
	if err != nil {
		return notFound(err, messagePlaylistNotFound)
	}

	response.OK(r.Context(), w, "Playlist updated successfully", map[string]any{"playlist": playlist})
	return nil
}

// Delete handles DELETE /playlist/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "playlistId", "")
	if err != nil {
		return err
	}
	if err := h.authorize(r, id, "delete"); err != nil {
		return err
	}

	if err := h.Playlists.Delete(r.Context(), id); err != nil {
		return notFound(err, messagePlaylistNotFound)
	}

	response.OK(r.Context(), w, "Playlist deleted successfully", nil)
	return nil
}

// AddVideo handles PATCH /playlist/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	videoID, playlistID, err := h.entryIDs(r)
	if err != nil {
		return err
	}
	if err := h.authorize(r, playlistID, "modify"); err != nil {
		return err
	}
	if _, err := visibleVideo(ctx, h.Videos, videoID, callerID(r)); err != nil {
		return err
	}

	if err := h.Playlists.AddVideo(ctx, playlistID, videoID); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return apierror.Conflict("Video already exists in playlist")
		}
		return notFound(err, messageVideoNotFound)
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		return notFound(err, messagePlaylistNotFound)
	}

	response.OK(ctx, w, "Video added to playlist successfully", map[string]any{"playlist": playlist})
	return nil
}

// RemoveVideo handles PATCH /playlist/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	videoID, playlistID, err := h.entryIDs(r)
	if err != nil {
		return err
	}
	if err := h.authorize(r, playlistID, "modify"); err != nil {
		return err
	}

	if err := h.Playlists.RemoveVideo(ctx, playlistID, videoID); err != nil {
		return notFound(err, "Video not found in playlist")
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		return notFound(err, messagePlaylistNotFound)
	}

	response.OK(ctx, w, "Video removed from playlist successfully", map[string]any{"playlist": playlist})
	return nil
}

func (h PlaylistHandler) entryIDs(r *http.Request) (string, string, error) {
	videoID, err := pathID(r, "videoId", "Invalid video ID format")
	if err != nil {
		return "", "", err
	}
	playlistID, err := pathID(r, "playlistId", "Invalid playlist ID format")
	if err != nil {
		return "", "", err
	}
	return videoID, playlistID, nil
}

func (h PlaylistHandler) authorize(r *http.Request, id, action string) error {
	playlist, err := h.Playlists.FindByID(r.Context(), id)
	exists, err := found(err)
	if err != nil {
		return err
	}
	return auth.CheckOwnership(callerID(r), playlist.OwnerID, exists, "playlist", action)
}
