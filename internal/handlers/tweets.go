package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/validation"
)

// TweetHandler serves tweet endpoints.
type TweetHandler struct {
	Tweets  TweetStore
	Users   UserStore
	Schemas validation.Schemas
	NowFunc func() time.Time
}

// List handles GET /tweets.
func (h TweetHandler) List(w http.ResponseWriter, r *http.Request) error {
	query, err := parseQuery(r, h.Schemas.SearchTweets)
	if err != nil {
		return err
	}

	page := models.ParsePage(query.String("page"), query.String("limit"))
	tweets, total, err := h.Tweets.Search(r.Context(), models.TweetQuery{
		Search:    query.String("query"),
		OwnerID:   query.String("userId"),
		SortBy:    query.String("sortBy"),
		SortOrder: query.String("sortOrder"),
		Page:      page,
	})
	if err != nil {
		return err
	}

	response.OK(r.Context(), w, "Tweets retrieved successfully", map[string]any{
		"tweets":     tweets,
		"pagination": models.NewPagination(page, total),
	})
	return nil
}

// ListByUser handles GET /tweets/user/{userId}.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	userID, err := pathID(r, "userId", "Invalid user ID format")
	if err != nil {
		return err
	}
	if _, err := h.Users.FindByID(ctx, userID); err != nil {
		return notFound(err, messageUserNotFound)
	}

	page := models.ParsePage(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
	tweets, total, err := h.Tweets.Search(ctx, models.TweetQuery{OwnerID: userID, Page: page})
	if err != nil {
		return err
	}

	response.OK(ctx, w, "User tweets retrieved successfully", map[string]any{
		"tweets":     tweets,
		"pagination": models.NewPagination(page, total),
	})
	return nil
}

// Create handles POST /tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) error {
	payload, err := parseBody(r, h.Schemas.CreateTweet)
	if err != nil {
		return err
	}

	now := nowOr(h.NowFunc)
	tweet, err := h.Tweets.Create(r.Context(), models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   callerID(r),
		Content:   payload.String("content"),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return notFound(err, messageUserNotFound)
	}

	response.Created(r.Context(), w, "Tweet created successfully", map[string]any{"tweet": tweet})
	return nil
}

// Update handles PATCH /tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "tweetId", "")
	if err != nil {
		return err
	}
	payload, err := parseBody(r, h.Schemas.UpdateTweet)
	if err != nil {
		return err
	}
	if err := h.authorize(r, id, "update"); err != nil {
		return err
	}

	tweet, err := h.Tweets.UpdateContent(r.Context(), id, payload.String("content"))
	if err != nil {
		return notFound(err, "Tweet not found")
	}

	response.OK(r.Context(), w, "Tweet updated successfully", map[string]any{"tweet": tweet})
	return nil
}

// Delete handles DELETE /tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "tweetId", "")
	if err != nil {
		return err
	}
	if err := h.authorize(r, id, "delete"); err != nil {
		return err
	}

	if err := h.Tweets.Delete(r.Context(), id); err != nil {
		return notFound(err, "Tweet not found")
	}

	response.OK(r.Context(), w, "Tweet deleted successfully", nil)
	return nil
}

func (h TweetHandler) authorize(r *http.Request, id, action string) error {
	tweet, err := h.Tweets.FindByID(r.Context(), id)
	exists, err := found(err)
	if err != nil {
		return err
	}
	return auth.CheckOwnership(callerID(r), tweet.OwnerID, exists, "tweet", action)
}
