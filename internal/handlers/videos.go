package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/validation"
)

// VideoHandler serves video endpoints.
type VideoHandler struct {
	Videos    VideoStore
	History   HistoryStore
	Storage   MediaStorage
	Durations DurationQueue
	Schemas   validation.Schemas
	NowFunc   func() time.Time
}

// List handles GET /videos. Only published videos are listed.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) error {
	query, err := parseQuery(r, h.Schemas.SearchVideos)
	if err != nil {
		return err
	}

	page := models.ParsePage(query.String("page"), query.String("limit"))
	videos, total, err := h.Videos.Search(r.Context(), models.VideoQuery{
		Search:    query.String("query"),
		OwnerID:   query.String("userId"),
		SortBy:    query.String("sortBy"),
		SortOrder: query.String("sortOrder"),
		Page:      page,
	})
	if err != nil {
		return err
	}

	response.OK(r.Context(), w, "Videos retrieved successfully", map[string]any{
		"videos":     videos,
		"pagination": models.NewPagination(page, total),
	})
	return nil
}

// Get handles GET /videos/{videoId}. Viewing counts a view and, for signed-in
// callers, records watch history. Unpublished videos are visible to their owner only.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := pathID(r, "videoId", "")
	if err != nil {
		return err
	}

	caller := callerID(r)
	video, err := visibleVideo(ctx, h.Videos, id, caller)
	if err != nil {
		return err
	}

	if err := h.Videos.IncrementViews(ctx, id); err != nil {
		return notFound(err, messageVideoNotFound)
	}
	video.ViewCount++

	if caller != "" && h.History != nil {
		if err := h.History.Record(ctx, caller, id); err != nil {
			logging.FromContext(ctx).Error("record watch history", "videoId", id, "error", err)
		}
	}

	response.OK(ctx, w, "Video retrieved successfully", map[string]any{"video": video})
	return nil
}

// Publish handles POST /videos. The duration is probed in the background.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	payload, err := parseBody(r, h.Schemas.CreateVideo)
	if err != nil {
		return err
	}

	uploads := newUploadBatch(h.Storage)
	defer uploads.discard(ctx)

	videoURL, err := uploads.upload(ctx, "videos", payload.File("videoFile"))
	if err != nil {
		return err
	}

	now := nowOr(h.NowFunc)
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     callerID(r),
		Title:       payload.String("title"),
		Description: payload.String("description"),
		VideoURL:    videoURL,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if published := payload.BoolPtr("isPublished"); published != nil {
		video.IsPublished = *published
	}
	if video.IsPublished {
		video.PublishedAt = &now
	}
	if fh := payload.File("thumbnail"); fh != nil {
		thumb, err := uploads.upload(ctx, "thumbnails", fh)
		if err != nil {
			return err
		}
		video.ThumbnailURL = &thumb
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		return notFound(err, messageUserNotFound)
	}
	uploads.keep()

	if h.Durations != nil {
		if err := h.Durations.Enqueue(video.ID, video.VideoURL); err != nil {
			logging.FromContext(ctx).Warn("duration probe not scheduled", "videoId", video.ID, "error", err)
		}
	}

	created, err := h.Videos.FindByID(ctx, video.ID)
	if err != nil {
		return err
	}

	response.Created(ctx, w, "Video published successfully", map[string]any{"video": created})
	return nil
}

// Update handles PATCH /videos/{videoId}.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := pathID(r, "videoId", "")
	if err != nil {
		return err
	}
	payload, err := parseBody(r, h.Schemas.UpdateVideo)
	if err != nil {
		return err
	}

	if err := h.authorize(r, id, "update"); err != nil {
		return err
	}

	changes := models.VideoChanges{
		Title:       payload.StringPtr("title"),
		Description: payload.StringPtr("description"),
		IsPublished: payload.BoolPtr("isPublished"),
	}
	if fh := payload.File("thumbnail"); fh != nil {
		thumb, err := upload(ctx, h.Storage, "thumbnails", fh)
		if err != nil {
			return err
		}
		changes.ThumbnailURL = &thumb
	}

	video, err := h.Videos.Update(ctx, id, changes)
	if err != nil {
		return notFound(err, messageVideoNotFound)
	}

	response.OK(ctx, w, "Video updated successfully", map[string]any{"video": video})
	return nil
}

// Delete handles DELETE /videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "videoId", "")
	if err != nil {
		return err
	}
	if err := h.authorize(r, id, "delete"); err != nil {
		return err
	}

	if err := h.Videos.Delete(r.Context(), id); err != nil {
		return notFound(err, messageVideoNotFound)
	}

	response.OK(r.Context(), w, "Video deleted successfully", nil)
	return nil
}

// TogglePublish handles PATCH /videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "videoId", "")
	if err != nil {
		return err
	}
	if err := h.authorize(r, id, "update"); err != nil {
		return err
	}

	video, err := h.Videos.TogglePublish(r.Context(), id)
	if err != nil {
		return notFound(err, messageVideoNotFound)
	}

	response.OK(r.Context(), w, "Video publish status toggled successfully", map[string]any{"video": video})
	return nil
}

// authorize fetches the video and checks the caller owns it.
func (h VideoHandler) authorize(r *http.Request, id, action string) error {
	video, err := h.Videos.FindByID(r.Context(), id)
	exists, err := found(err)
	if err != nil {
		return err
	}
	return auth.CheckOwnership(callerID(r), video.OwnerID, exists, "video", action)
}
