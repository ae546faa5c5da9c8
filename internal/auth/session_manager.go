package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/vidtube/backend/internal/apierror"
	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrInvalidRefreshToken is returned when the refresh JWT does not verify.
	ErrInvalidRefreshToken = apierror.Unauthorized("Invalid refresh token")
	// ErrRefreshTokenNotRecognized is returned when a valid refresh JWT is not the
	// one currently persisted for its user.
	ErrRefreshTokenNotRecognized = apierror.Unauthorized("Refresh token not recognized")
	// ErrNoRefreshToken is returned by stores when a user holds no refresh token.
	ErrNoRefreshToken = errors.New("no refresh token stored")
)

// RefreshTokenStore persists the single active refresh token of each user.
type RefreshTokenStore interface {
	SetRefreshToken(ctx context.Context, userID string, token *string) error
	RefreshToken(ctx context.Context, userID string) (string, error)
}

// Manager issues, rotates and revokes token pairs. Issuing a pair replaces the
// user's stored refresh token, so only the latest one can be redeemed.
type Manager struct {
	codec *Codec
	store RefreshTokenStore
}

// NewManager constructs a Manager.
func NewManager(codec *Codec, store RefreshTokenStore) *Manager {
	if codec == nil || store == nil {
		panic("auth: codec and refresh token store must not be nil")
	}
	return &Manager{codec: codec, store: store}
}

// Issue signs a new access and refresh token for userID and persists the refresh token.
func (m *Manager) Issue(ctx context.Context, userID string) (models.TokenPair, error) {
	access, accessExp, err := m.codec.SignAccess(userID)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, refreshExp, err := m.codec.SignRefresh(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := m.store.SetRefreshToken(ctx, userID, &refresh); err != nil {
		return models.TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return models.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a refresh token for a new pair.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	claims, ok := m.codec.VerifyRefresh(refreshToken)
	if !ok {
		return models.TokenPair{}, ErrInvalidRefreshToken
	}

	stored, err := m.store.RefreshToken(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNoRefreshToken) {
			return models.TokenPair{}, ErrRefreshTokenNotRecognized
		}
		return models.TokenPair{}, fmt.Errorf("load refresh token: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		return models.TokenPair{}, ErrRefreshTokenNotRecognized
	}

	return m.Issue(ctx, claims.UserID)
}

// Revoke clears the user's refresh token.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if err := m.store.SetRefreshToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// VerifyAccess exposes the codec to the authentication guard.
func (m *Manager) VerifyAccess(token string) (Claims, bool) {
	return m.codec.VerifyAccess(token)
}
