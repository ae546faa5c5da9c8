package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/apierror"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/response"
)

const (
	MessageLoginRequired = "Please login first"
	MessageTokenFormat   = "Invalid token format"
	MessageTokenInvalid  = "Invalid or expired token"
)

// AccessVerifier verifies access tokens.
type AccessVerifier interface {
	VerifyAccess(token string) (Claims, bool)
}

// Authenticate resolves the caller from the Authorization header.
func Authenticate(verifier AccessVerifier, header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", apierror.Unauthorized(MessageLoginRequired)
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", apierror.Unauthorized(MessageTokenFormat)
	}

	claims, ok := verifier.VerifyAccess(parts[1])
	if !ok {
		return "", apierror.Unauthorized(MessageTokenInvalid)
	}
	return claims.UserID, nil
}

// Require rejects requests without a valid access token.
func Require(verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := Authenticate(verifier, r.Header.Get("Authorization"))
			if err != nil {
				response.Error(r.Context(), w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withCaller(r, userID)))
		})
	}
}

// Optional resolves the caller when a valid token is present and otherwise lets
// the request through anonymously.
func Optional(verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := Authenticate(verifier, r.Header.Get("Authorization"))
			if err != nil {
				logging.FromContext(r.Context()).Debug("ignoring unusable optional token", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withCaller(r, userID)))
		})
	}
}

func withCaller(r *http.Request, userID string) context.Context {
	ctx := WithUserID(r.Context(), userID)
	logger := logging.FromContext(ctx).With(slog.String("user_id", userID))
	return logging.WithLogger(ctx, logger)
}
