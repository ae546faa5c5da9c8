package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apierror"
	"github.com/vidtube/backend/internal/logging"
)

// ErrInvalidResetToken is returned for unknown, expired or reused reset tokens.
var ErrInvalidResetToken = apierror.Unauthorized("Invalid or expired reset token")

// ResetTokenStore keeps hashed reset tokens until they expire or are consumed.
type ResetTokenStore interface {
	Put(ctx context.Context, key, userID string, ttl time.Duration) error
	// Take returns and deletes the entry in one step. ok is false when absent.
	Take(ctx context.Context, key string) (userID string, ok bool, err error)
}

// ResetNotifier delivers password reset links.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// ResetTokens issues and redeems single-use password reset tokens. Only the
// SHA-256 of a token is stored.
type ResetTokens struct {
	store   ResetTokenStore
	ttl     time.Duration
	linkURL string
}

// NewResetTokens builds the reset flow. clientURL is the web origin hosting the
// reset form.
func NewResetTokens(store ResetTokenStore, ttl time.Duration, clientURL string) *ResetTokens {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ResetTokens{
		store:   store,
		ttl:     ttl,
		linkURL: strings.TrimSuffix(clientURL, "/") + "/reset-password",
	}
}

// Issue creates a token for userID and returns it with the reset link.
func (r *ResetTokens) Issue(ctx context.Context, userID string) (token, link string, err error) {
	if userID == "" {
		return "", "", errors.New("reset token: user id must be provided")
	}
	token = uuid.NewString()
	if err := r.store.Put(ctx, hashResetToken(token), userID, r.ttl); err != nil {
		return "", "", fmt.Errorf("store reset token: %w", err)
	}
	return token, r.linkURL + "?token=" + url.QueryEscape(token), nil
}

// Redeem consumes token and returns the user it was issued for.
func (r *ResetTokens) Redeem(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidResetToken
	}
	userID, ok, err := r.store.Take(ctx, hashResetToken(token))
	if err != nil {
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	if !ok {
		return "", ErrInvalidResetToken
	}
	return userID, nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// LogNotifier writes reset links to the structured log. It stands in for a mail
// transport in development.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) SendPasswordReset(ctx context.Context, email, link string) error {
	logger := n.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	logger.Info("password reset requested", slog.String("email", email), slog.String("link", link))
	return nil
}
