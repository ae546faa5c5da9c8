package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload of access and refresh tokens.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// CodecConfig holds the signing secrets and lifetimes.
type CodecConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Codec signs and verifies HS256 bearer tokens. Access and refresh tokens use
// separate secrets so one can never be accepted as the other.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewCodec validates cfg and returns a codec.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("auth: token secrets must be provided")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &Codec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

// WithNowFunc overrides the clock. Tests use it to produce expired tokens.
func (c *Codec) WithNowFunc(now func() time.Time) {
	c.now = now
}

// SignAccess issues a short-lived access token for userID.
func (c *Codec) SignAccess(userID string) (string, time.Time, error) {
	return c.sign(userID, c.accessSecret, c.accessTTL)
}

// SignRefresh issues a long-lived refresh token for userID.
func (c *Codec) SignRefresh(userID string) (string, time.Time, error) {
	return c.sign(userID, c.refreshSecret, c.refreshTTL)
}

// VerifyAccess returns the claims of a valid access token.
func (c *Codec) VerifyAccess(token string) (Claims, bool) {
	return c.verify(token, c.accessSecret)
}

// VerifyRefresh returns the claims of a valid refresh token.
func (c *Codec) VerifyRefresh(token string) (Claims, bool) {
	return c.verify(token, c.refreshSecret)
}

func (c *Codec) sign(userID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("auth: user id must be provided")
	}

	now := c.now().UTC()
	expires := now.Add(ttl)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

func (c *Codec) verify(token string, secret []byte) (Claims, bool) {
	if token == "" {
		return Claims{}, false
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, false
	}
	if claims.UserID == "" || claims.Subject != claims.UserID {
		return Claims{}, false
	}
	return claims, true
}
