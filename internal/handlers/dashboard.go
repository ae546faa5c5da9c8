package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/validation"
)

var periods = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
}

// DashboardHandler serves creator statistics for the caller's own channel.
type DashboardHandler struct {
	Dashboard DashboardStore
	Videos    VideoStore
	Schemas   validation.Schemas
	NowFunc   func() time.Time
}

// ChannelStats handles GET /dashboard/stats.
func (h DashboardHandler) ChannelStats(w http.ResponseWriter, r *http.Request) error {
	query, err := parseQuery(r, h.Schemas.DashboardStats)
	if err != nil {
		return err
	}
	window, err := statsWindow(query, nowOr(h.NowFunc))
	if err != nil {
		return err
	}

	stats, err := h.Dashboard.ChannelStats(r.Context(), callerID(r), window)
	if err != nil {
		return err
	}

	response.OK(r.Context(), w, "Channel statistics retrieved successfully", map[string]any{"channelStats": stats})
	return nil
}

// statsWindow resolves the aggregation window. Explicit dates override the
// period and a date-only end covers the whole day.
func statsWindow(query validation.Payload, now time.Time) (models.TimeWindow, error) {
	var window models.TimeWindow
	if d, ok := periods[query.String("period")]; ok {
		window.From = now.Add(-d)
	}

	if raw := query.String("startDate"); raw != "" {
		window.From, _ = validation.ParseDate(raw)
	}
	if raw := query.String("endDate"); raw != "" {
		window.To, _ = validation.ParseDate(raw)
		if !strings.Contains(raw, "T") {
			window.To = window.To.Add(24*time.Hour - time.Nanosecond)
		}
	}

	if !window.From.IsZero() && !window.To.IsZero() && window.From.After(window.To) {
		return models.TimeWindow{}, validation.Invalid("startDate", "Start date must be before end date")
	}
	return window, nil
}

// ChannelVideos handles GET /dashboard/videos.
func (h DashboardHandler) ChannelVideos(w http.ResponseWriter, r *http.Request) error {
	query, err := parseQuery(r, h.Schemas.DashboardVideos)
	if err != nil {
		return err
	}

	page := models.ParsePage(query.String("page"), query.String("limit"))
	videos, total, err := h.Videos.ListByOwner(r.Context(), callerID(r), query.BoolPtr("isPublished"), page)
	if err != nil {
		return err
	}

	response.OK(r.Context(), w, "Channel videos retrieved successfully", map[string]any{
		"videos":     videos,
		"pagination": models.NewPagination(page, total),
	})
	return nil
}

// VideoStats handles GET /dashboard/videos/{videoId}/stats.
func (h DashboardHandler) VideoStats(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "videoId", "Invalid video ID format")
	if err != nil {
		return err
	}

	video, err := h.Videos.FindByID(r.Context(), id)
	exists, err := found(err)
	if err != nil {
		return err
	}
	if err := auth.CheckOwnership(callerID(r), video.OwnerID, exists, "video", "view"); err != nil {
		return err
	}

	response.OK(r.Context(), w, "Video statistics retrieved successfully", map[string]any{
		"videoStats": models.VideoStats{
			VideoID:      video.ID,
			Title:        video.Title,
			ViewCount:    video.ViewCount,
			LikeCount:    video.LikeCount,
			CommentCount: video.CommentCount,
			Duration:     video.Duration,
			IsPublished:  video.IsPublished,
			PublishedAt:  video.PublishedAt,
			CreatedAt:    video.CreatedAt,
		},
	})
	return nil
}
