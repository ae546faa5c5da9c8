package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apierror"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/response"
	"github.com/vidtube/backend/internal/validation"
)

const (
	messageUserExists        = "User with same email or username already exists"
	messageInvalidCredential = "Invalid username or password"
	messageWrongPassword     = "Current password is incorrect"
)

// AuthHandler implements user authentication endpoints.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
	Resets   PasswordResets
	Notifier auth.ResetNotifier
	Storage  MediaStorage
	Schemas  validation.Schemas
	NowFunc  func() time.Time
}

type authResponse struct {
	User   models.User      `json:"user"`
	Tokens models.TokenPair `json:"tokens"`
}

// Register handles POST /auth/register.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	payload, err := parseBody(r, h.Schemas.Register)
	if err != nil {
		return err
	}

	username := strings.ToLower(payload.String("username"))
	email := strings.ToLower(payload.String("email"))

	if exists, err := found(h.lookupExisting(ctx, username, email)); err != nil {
		return err
	} else if exists {
		return apierror.Conflict(messageUserExists)
	}

	user := models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    email,
		Fullname: payload.String("fullname"),
	}

	uploads := newUploadBatch(h.Storage)
	defer uploads.discard(ctx)

	if fh := payload.File("avatar"); fh != nil {
		url, err := uploads.upload(ctx, "avatars", fh)
		if err != nil {
			return err
		}
		user.Avatar = &url
	}
	if fh := payload.File("coverImage"); fh != nil {
		url, err := uploads.upload(ctx, "covers", fh)
		if err != nil {
			return err
		}
		user.CoverImage = &url
	}

	hashed, err := auth.HashPassword(payload.Raw("password"))
	if err != nil {
		return err
	}
	user.Password = hashed
	user.CreatedAt = nowOr(h.NowFunc)
	user.UpdatedAt = user.CreatedAt

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return apierror.Conflict(messageUserExists)
		}
		return err
	}
	uploads.keep()

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Info("user registered", "userId", user.ID)
	response.Created(ctx, w, "User registered successfully", authResponse{User: user, Tokens: tokens})
	return nil
}

// lookupExisting returns nil when a user holds username or email.
func (h AuthHandler) lookupExisting(ctx context.Context, username, email string) error {
	_, err := h.Users.FindByUsername(ctx, username)
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	_, err = h.Users.FindByEmail(ctx, email)
	return err
}

// Login handles POST /auth/login. The username wins when both identifiers are sent.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	payload, err := parseBody(r, h.Schemas.Login)
	if err != nil {
		return err
	}

	var user models.User
	if username := payload.String("username"); username != "" {
		user, err = h.Users.FindByUsername(ctx, username)
	} else {
		user, err = h.Users.FindByEmail(ctx, payload.String("email"))
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apierror.Unauthorized(messageInvalidCredential)
		}
		return err
	}

	if !auth.VerifyPassword(payload.Raw("password"), user.Password) {
		logging.FromContext(ctx).Warn("login password mismatch", "userId", user.ID)
		return apierror.Unauthorized(messageInvalidCredential)
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		return err
	}

	response.OK(ctx, w, "Login successful", authResponse{User: user, Tokens: tokens})
	return nil
}

// RefreshToken handles POST /auth/refresh-token.
func (h AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) error {
	payload, err := parseBody(r, h.Schemas.RefreshToken)
	if err != nil {
		return err
	}

	tokens, err := h.Sessions.Refresh(r.Context(), payload.String("refreshToken"))
	if err != nil {
		return err
	}

	response.OK(r.Context(), w, "Access token refreshed", map[string]any{"tokens": tokens})
	return nil
}

// Logout handles POST /auth/logout.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	if err := h.Sessions.Revoke(r.Context(), callerID(r)); err != nil {
		return notFound(err, messageUserNotFound)
	}
	response.OK(r.Context(), w, "Logged out successfully", nil)
	return nil
}

// ChangePassword handles POST /auth/change-password. Changing the password
// also revokes the stored refresh token.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	payload, err := parseBody(r, h.Schemas.ChangePassword)
	if err != nil {
		return err
	}

	user, err := h.Users.FindByID(ctx, callerID(r))
	if err != nil {
		return notFound(err, messageUserNotFound)
	}

	if !auth.VerifyPassword(payload.Raw("currentPassword"), user.Password) {
		return apierror.Unauthorized(messageWrongPassword)
	}

	hashed, err := auth.HashPassword(payload.Raw("newPassword"))
	if err != nil {
		return err
	}
	if err := h.Users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return notFound(err, messageUserNotFound)
	}

	response.OK(ctx, w, "Password changed successfully", nil)
	return nil
}

// CurrentUser handles GET /auth/current-user.
func (h AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) error {
	user, err := h.Users.FindByID(r.Context(), callerID(r))
	if err != nil {
		return notFound(err, messageUserNotFound)
	}
	response.OK(r.Context(), w, "Current user retrieved successfully", map[string]any{"user": user})
	return nil
}

// ForgotPassword handles POST /auth/forgot-password. The response is the same
// whether or not the email belongs to an account.
func (h AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	payload, err := parseBody(r, h.Schemas.ForgotPassword)
	if err != nil {
		return err
	}

	email := strings.ToLower(payload.String("email"))
	user, err := h.Users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		logging.FromContext(ctx).Info("password reset for unknown email")
	case err != nil:
		return err
	default:
		_, link, err := h.Resets.Issue(ctx, user.ID)
		if err != nil {
			return err
		}
		if h.Notifier != nil {
			if err := h.Notifier.SendPasswordReset(ctx, user.Email, link); err != nil {
				logging.FromContext(ctx).Error("send password reset", "userId", user.ID, "error", err)
			}
		}
	}

	response.OK(ctx, w, "Password reset email sent if the email exists", nil)
	return nil
}

// ResetPassword handles POST /auth/reset-password.
func (h AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	payload, err := parseBody(r, h.Schemas.ResetPassword)
	if err != nil {
		return err
	}

	userID, err := h.Resets.Redeem(ctx, payload.String("token"))
	if err != nil {
		return err
	}

	hashed, err := auth.HashPassword(payload.Raw("newPassword"))
	if err != nil {
		return err
	}
	if err := h.Users.UpdatePassword(ctx, userID, hashed); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return auth.ErrInvalidResetToken
		}
		return err
	}

	logging.FromContext(ctx).Info("password reset completed", "userId", userID)
	response.OK(ctx, w, "Password reset successfully", nil)
	return nil
}
