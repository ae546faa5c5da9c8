package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apierror"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/validation"
)

const messageParentNotFound = "Parent comment not found"

// CommentHandler serves comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	Schemas  validation.Schemas
	NowFunc  func() time.Time
}

// List handles GET /comments/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId", "Invalid video ID format")
	if err != nil {
		return err
	}
	if _, err := visibleVideo(ctx, h.Videos, videoID, callerID(r)); err != nil {
		return err
	}

	page := models.ParsePage(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
	comments, total, err := h.Comments.ListByVideo(ctx, videoID, page)
	if err != nil {
		return err
	}

	response.OK(ctx, w, "Comments retrieved successfully", map[string]any{
		"comments":   comments,
		"pagination": models.NewPagination(page, total),
	})
	return nil
}

// Create handles POST /comments. Replies must target a comment on the same video.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	payload, err := parseBody(r, h.Schemas.CreateComment)
	if err != nil {
		return err
	}

	caller := callerID(r)
	videoID := payload.String("videoId")
	if _, err := visibleVideo(ctx, h.Videos, videoID, caller); err != nil {
		return err
	}

	parentID := payload.StringPtr("parentCommentId")
	if parentID != nil {
		parent, err := h.Comments.FindByID(ctx, *parentID)
		if err != nil {
			return notFound(err, messageParentNotFound)
		}
		if parent.VideoID != videoID {
			return apierror.NotFound(messageParentNotFound)
		}
	}

	now := nowOr(h.NowFunc)
	comment, err := h.Comments.Create(ctx, models.Comment{
		ID:              uuid.NewString(),
		VideoID:         videoID,
		OwnerID:         caller,
		ParentCommentID: parentID,
		Content:         payload.String("content"),
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return notFound(err, messageVideoNotFound)
	}

	response.Created(ctx, w, "Comment created successfully", map[string]any{"comment": comment})
	return nil
}

// Update handles PATCH /comments/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "commentId", "")
	if err != nil {
		return err
	}
	payload, err := parseBody(r, h.Schemas.UpdateComment)
	if err != nil {
		return err
	}
	if err := h.authorize(r, id, "update"); err != nil {
		return err
	}

	comment, err := h.Comments.UpdateContent(r.Context(), id, payload.String("content"))
	if err != nil {
		return notFound(err, "Comment not found")
	}

	response.OK(r.Context(), w, "Comment updated successfully", map[string]any{"comment": comment})
	return nil
}

// Delete handles DELETE /comments/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "commentId", "")
	if err != nil {
		return err
	}
	if err := h.authorize(r, id, "delete"); err != nil {
		return err
	}

	if err := h.Comments.Delete(r.Context(), id); err != nil {
		return notFound(err, "Comment not found")
	}

	response.OK(r.Context(), w, "Comment deleted successfully", nil)
	return nil
}

func (h CommentHandler) authorize(r *http.Request, id, action string) error {
	comment, err := h.Comments.FindByID(r.Context(), id)
	exists, err := found(err)
	if err != nil {
		return err
	}
	return auth.CheckOwnership(callerID(r), comment.OwnerID, exists, "comment", action)
}
