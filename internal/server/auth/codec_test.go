package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCodec(t *testing.T) (*Codec, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c, err := NewCodec(CodecConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Now:           clock.Now,
	})
	require.NoError(t, err)
	return c, clock
}

func TestNewCodec_RejectsBadSecrets(t *testing.T) {
	tests := []struct {
		name            string
		access, refresh string
	}{
		{"empty access", "", "r"},
		{"empty refresh", "a", ""},
		{"equal", "same", "same"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCodec(CodecConfig{AccessSecret: tt.access, RefreshSecret: tt.refresh})
			assert.Error(t, err)
		})
	}
}

func TestNewCodec_Defaults(t *testing.T) {
	c, err := NewCodec(CodecConfig{AccessSecret: "a", RefreshSecret: "r"})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, c.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, c.RefreshTTL())
}

func TestIssueAndResolveAccess(t *testing.T) {
	c, clock := newTestCodec(t)

	tok, err := c.IssueAccessToken(42)
	require.NoError(t, err)

	uid, err := c.ResolveAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)

	claims, err := c.VerifyAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), claims.IssuedAt.UTC())
	assert.Equal(t, clock.Now().Add(15*time.Minute), claims.ExpiresAt.UTC())
	assert.NotEmpty(t, claims.ID)
}

func TestAccessToken_ExpiresAfterTTL(t *testing.T) {
	c, clock := newTestCodec(t)

	tok, err := c.IssueAccessToken(1)
	require.NoError(t, err)

	clock.Advance(15*time.Minute - time.Second)
	_, err = c.ResolveAccess(tok)
	require.NoError(t, err, "still valid one second before expiry")

	clock.Advance(time.Second)
	_, err = c.ResolveAccess(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestTokenClassesDoNotCrossVerify(t *testing.T) {
	c, _ := newTestCodec(t)

	access, err := c.IssueAccessToken(1)
	require.NoError(t, err)
	refresh, err := c.IssueRefreshToken(1)
	require.NoError(t, err)

	_, err = c.VerifyRefresh(access)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	_, err = c.VerifyAccess(refresh)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	claims, err := c.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
}

func TestSameSecondTokensDiffer(t *testing.T) {
	c, _ := newTestCodec(t)

	a, err := c.IssueRefreshToken(5)
	require.NoError(t, err)
	b, err := c.IssueRefreshToken(5)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestResolveAccess_Failures(t *testing.T) {
	c, clock := newTestCodec(t)

	foreign, err := NewCodec(CodecConfig{AccessSecret: "other", RefreshSecret: "other-r", Now: clock.Now})
	require.NoError(t, err)
	foreignTok, err := foreign.IssueAccessToken(1)
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	exp := clock.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", common.ErrMissingToken},
		{"garbage", "not.a.jwt", common.ErrInvalidToken},
		{"foreign key", foreignTok, common.ErrInvalidToken},
		{"alg none", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "1", "exp": exp}), common.ErrInvalidToken},
		{"HS512", sign(jwt.SigningMethodHS512, []byte("access-secret"), jwt.MapClaims{"sub": "1", "exp": exp}), common.ErrInvalidToken},
		{"non numeric subject", sign(jwt.SigningMethodHS256, []byte("access-secret"), jwt.MapClaims{"sub": "alice", "exp": exp}), common.ErrInvalidToken},
		{"no expiry", sign(jwt.SigningMethodHS256, []byte("access-secret"), jwt.MapClaims{"sub": "1"}), common.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ResolveAccess(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
