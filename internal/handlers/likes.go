package handlers

import (
	"context"
	"net/http"

	"github.com/vidtube/backend/internal/response"
)

// LikeHandler serves like toggles.
type LikeHandler struct {
	Likes LikeStore
}

type toggleFunc func(ctx context.Context, userID, targetID string) (bool, int64, error)

// toggle runs one like toggle and answers with the new state.
func (h LikeHandler) toggle(param, kind string, fn toggleFunc) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := pathID(r, param, "")
		if err != nil {
			return err
		}

		liked, count, err := fn(r.Context(), callerID(r), id)
		if err != nil {
			return notFound(err, kind+" not found")
		}

		message := kind + " unliked successfully"
		if liked {
			message = kind + " liked successfully"
		}
		response.OK(r.Context(), w, message, map[string]any{"liked": liked, "likeCount": count})
		return nil
	}
}

// ToggleVideo handles POST /likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo() HandlerFunc {
	return h.toggle("videoId", "Video", h.Likes.ToggleVideoLike)
}

// ToggleComment handles POST /likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment() HandlerFunc {
	return h.toggle("commentId", "Comment", h.Likes.ToggleCommentLike)
}

// ToggleTweet handles POST /likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet() HandlerFunc {
	return h.toggle("tweetId", "Tweet", h.Likes.ToggleTweetLike)
}

// LikedVideos handles GET /likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) error {
	videos, err := h.Likes.LikedVideos(r.Context(), callerID(r))
	if err != nil {
		return err
	}
	response.OK(r.Context(), w, "Liked videos retrieved successfully", map[string]any{"videos": videos})
	return nil
}
