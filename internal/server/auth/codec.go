// Package auth issues and verifies the signed access/refresh tokens and
// decides how they travel in cookies.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// CodecConfig configures a Codec. Zero TTLs take the defaults; a nil Now
// uses time.Now.
type CodecConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

// Claims is the verified content of a token.
type Claims struct {
	UserID    int64
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec mints and verifies HS256 tokens. Access and refresh tokens use
// separate secrets, so one class never verifies as the other.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewCodec(cfg CodecConfig) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("auth: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}

	c := &Codec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           cfg.Now,
	}
	if c.accessTTL <= 0 {
		c.accessTTL = DefaultAccessTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = DefaultRefreshTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

func (c *Codec) IssueAccessToken(userID int64) (string, error) {
	return c.issue(userID, c.accessSecret, c.accessTTL)
}

func (c *Codec) IssueRefreshToken(userID int64) (string, error) {
	return c.issue(userID, c.refreshSecret, c.refreshTTL)
}

func (c *Codec) issue(userID int64, secret []byte, ttl time.Duration) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry against secret.
// Failures are common.ErrTokenExpired or common.ErrInvalidToken.
func (c *Codec) Verify(token string, secret []byte) (*Claims, error) {
	rc := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, rc,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	uid, err := strconv.ParseInt(rc.Subject, 10, 64)
	if err != nil || uid <= 0 {
		return nil, common.ErrInvalidToken
	}

	claims := &Claims{UserID: uid, ID: rc.ID}
	if rc.IssuedAt != nil {
		claims.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		claims.ExpiresAt = rc.ExpiresAt.Time
	}
	return claims, nil
}

func (c *Codec) VerifyAccess(token string) (*Claims, error) {
	return c.Verify(token, c.accessSecret)
}

func (c *Codec) VerifyRefresh(token string) (*Claims, error) {
	return c.Verify(token, c.refreshSecret)
}

// ResolveAccess is the verification shared by every transport guard: it
// turns a raw access token into the user id it was issued for.
func (c *Codec) ResolveAccess(token string) (int64, error) {
	claims, err := c.ResolveAccessClaims(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// ResolveAccessClaims is ResolveAccess for callers that also need the
// expiry, such as long-lived connections.
func (c *Codec) ResolveAccessClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, common.ErrMissingToken
	}
	return c.VerifyAccess(token)
}
