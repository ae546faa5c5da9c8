package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/backend/internal/apierror"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/validation"
)

// UserHandler serves account and channel endpoints.
type UserHandler struct {
	Users   UserStore
	History HistoryStore
	Storage MediaStorage
	Schemas validation.Schemas
}

// UpdateAccount handles PATCH /users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) error {
	payload, err := parseBody(r, h.Schemas.UpdateAccount)
	if err != nil {
		return err
	}

	changes := models.AccountChanges{
		Fullname: payload.StringPtr("fullname"),
		Username: payload.StringPtr("username"),
		Email:    payload.StringPtr("email"),
	}
	if changes.Empty() {
		return validation.Missing("")
	}

	user, err := h.Users.UpdateAccount(r.Context(), callerID(r), changes)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return apierror.Conflict("Email or username already exists")
		}
		return notFound(err, messageUserNotFound)
	}

	response.OK(r.Context(), w, "Account details updated successfully", map[string]any{"user": user})
	return nil
}

// UpdateAvatar handles PATCH /users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) error {
	payload, err := parseBody(r, h.Schemas.UpdateAvatar)
	if err != nil {
		return err
	}

	url, err := upload(r.Context(), h.Storage, "avatars", payload.File("avatar"))
	if err != nil {
		return err
	}

	user, err := h.Users.UpdateAvatar(r.Context(), callerID(r), url)
	if err != nil {
		return notFound(err, messageUserNotFound)
	}

	response.OK(r.Context(), w, "Avatar updated successfully", map[string]any{"user": user})
	return nil
}

// UpdateCoverImage handles PATCH /users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) error {
	payload, err := parseBody(r, h.Schemas.UpdateCover)
	if err != nil {
		return err
	}

	url, err := upload(r.Context(), h.Storage, "covers", payload.File("coverImage"))
	if err != nil {
		return err
	}

	user, err := h.Users.UpdateCoverImage(r.Context(), callerID(r), url)
	if err != nil {
		return notFound(err, messageUserNotFound)
	}

	response.OK(r.Context(), w, "Cover image updated successfully", map[string]any{"user": user})
	return nil
}

// ChannelProfile handles GET /users/c/{username}. isSubscribed reflects the
// caller when a valid token is present.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) error {
	username := chi.URLParam(r, "username")
	if username == "" {
		return validation.Missing("username")
	}

	profile, err := h.Users.ChannelProfile(r.Context(), username, callerID(r))
	if err != nil {
		return notFound(err, messageUserNotFound)
	}

	response.OK(r.Context(), w, "User channel profile retrieved successfully", map[string]any{"user": profile})
	return nil
}

// WatchHistory handles GET /users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) error {
	page := models.ParsePage(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))

	entries, total, err := h.History.List(r.Context(), callerID(r), page)
	if err != nil {
		return err
	}

	response.OK(r.Context(), w, "Watch history retrieved successfully", map[string]any{
		"history":    entries,
		"pagination": models.NewPagination(page, total),
	})
	return nil
}
