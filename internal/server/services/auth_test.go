package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/cryptox"
	"github.com/sku-codemong/codemong-Backend-02/internal/logging"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/auth"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/repositories/repotest"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type authFixture struct {
	svc   *AuthService
	store *repotest.Store
	codec *auth.Codec
	clock *testClock
}

func newAuthFixture(t *testing.T, opts AuthOptions) *authFixture {
	t.Helper()
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	codec, err := auth.NewCodec(auth.CodecConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Now:           clock.Now,
	})
	require.NoError(t, err)

	store := repotest.NewStore()
	svc := NewAuthService(nil, store.Manager(), codec, cryptox.NewHasher(bcrypt.MinCost), opts, logging.Nop())
	return &authFixture{svc: svc, store: store, codec: codec, clock: clock}
}

func (f *authFixture) register(t *testing.T, email, password string) int64 {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{Email: email, Password: password})
	require.NoError(t, err)
	return u.ID
}

func (f *authFixture) login(t *testing.T, email, password string) *LoginResult {
	t.Helper()
	res, err := f.svc.Login(context.Background(), email, password, "10.0.0.1")
	require.NoError(t, err)
	return res
}

type mockLimiter struct{ mock.Mock }

func (m *mockLimiter) Check(ctx context.Context, email, ip string) error {
	return m.Called(email, ip).Error(0)
}
func (m *mockLimiter) RecordFailure(ctx context.Context, email, ip string) error {
	return m.Called(email, ip).Error(0)
}
func (m *mockLimiter) Reset(ctx context.Context, email string) error {
	return m.Called(email).Error(0)
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{AllowedEmailDomains: []string{"skuniv.ac.kr"}})
	ctx := context.Background()

	grade := 2
	u, err := f.svc.Register(ctx, RegisterInput{Email: "  Alice@SKUNIV.ac.kr ", Password: "secret1", Grade: &grade})
	require.NoError(t, err)
	assert.Equal(t, "alice@skuniv.ac.kr", u.Email)
	assert.Equal(t, "alice", u.Nickname)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.Empty(t, f.store.Tokens(), "register never opens a session")

	_, err = f.svc.Register(ctx, RegisterInput{Email: "alice@skuniv.ac.kr", Password: "secret1"})
	assert.ErrorIs(t, err, common.ErrEmailInUse)

	_, err = f.svc.Register(ctx, RegisterInput{Email: "bob@gmail.com", Password: "secret1"})
	assert.ErrorIs(t, err, common.ErrNotSchoolEmail)

	_, err = f.svc.Register(ctx, RegisterInput{Email: "nope", Password: "secret1"})
	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "BAD_EMAIL", ve.Code)
}

func TestRegister_EmptyAllowListAcceptsAnyDomain(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.register(t, "someone@anywhere.io", "secret1")
}

func TestRegister_RepositoryError(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.store.UsersErr = errors.New("db down")

	_, err := f.svc.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "secret1"})
	assert.ErrorContains(t, err, "error looking up user: db down")
}

func TestRegisterThenLogin(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	id := f.register(t, "a@x.com", "secret1")

	res := f.login(t, "A@x.com", "secret1")
	assert.Equal(t, id, res.User.ID)

	uid, err := f.codec.ResolveAccess(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, uid)

	tokens := f.store.Tokens()
	require.Len(t, tokens, 1, "login inserts exactly one record")
	assert.Equal(t, res.RefreshToken, tokens[0].Token)
	assert.Equal(t, id, tokens[0].UserID)
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.register(t, "a@x.com", "secret1")

	_, errWrongPass := f.svc.Login(context.Background(), "a@x.com", "wrong!!", "")
	_, errNoUser := f.svc.Login(context.Background(), "ghost@x.com", "secret1", "")

	assert.ErrorIs(t, errWrongPass, common.ErrInvalidCredentials)
	assert.ErrorIs(t, errNoUser, common.ErrInvalidCredentials)
	assert.Equal(t, errWrongPass.Error(), errNoUser.Error())
	assert.Empty(t, f.store.Tokens())
}

func TestLogin_NotSchoolEmail(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{AllowedEmailDomains: []string{"skuniv.ac.kr"}})
	_, err := f.svc.Login(context.Background(), "a@x.com", "secret1", "")
	assert.ErrorIs(t, err, common.ErrNotSchoolEmail)
}

func TestLogin_Limiter(t *testing.T) {
	t.Run("blocked", func(t *testing.T) {
		lim := new(mockLimiter)
		lim.On("Check", "a@x.com", "1.2.3.4").Return(common.ErrRateLimited)
		f := newAuthFixture(t, AuthOptions{Limiter: lim})

		_, err := f.svc.Login(context.Background(), "a@x.com", "secret1", "1.2.3.4")
		assert.ErrorIs(t, err, common.ErrRateLimited)
		lim.AssertExpectations(t)
	})

	t.Run("failure recorded and success resets", func(t *testing.T) {
		lim := new(mockLimiter)
		lim.On("Check", "a@x.com", "1.2.3.4").Return(nil)
		lim.On("RecordFailure", "a@x.com", "1.2.3.4").Return(nil).Once()
		lim.On("Reset", "a@x.com").Return(nil).Once()
		f := newAuthFixture(t, AuthOptions{Limiter: lim})
		f.register(t, "a@x.com", "secret1")

		_, err := f.svc.Login(context.Background(), "a@x.com", "bad-pass", "1.2.3.4")
		require.ErrorIs(t, err, common.ErrInvalidCredentials)
		_, err = f.svc.Login(context.Background(), "a@x.com", "secret1", "1.2.3.4")
		require.NoError(t, err)

		lim.AssertExpectations(t)
	})

	t.Run("limiter outage fails open", func(t *testing.T) {
		lim := new(mockLimiter)
		lim.On("Check", mock.Anything, mock.Anything).Return(errors.New("redis unavailable"))
		lim.On("Reset", mock.Anything).Return(errors.New("redis unavailable"))
		f := newAuthFixture(t, AuthOptions{Limiter: lim})
		f.register(t, "a@x.com", "secret1")

		_, err := f.svc.Login(context.Background(), "a@x.com", "secret1", "")
		assert.NoError(t, err)
	})
}

func TestRefresh_RotatesInPlace(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.register(t, "a@x.com", "secret1")
	res := f.login(t, "a@x.com", "secret1")
	before := f.store.Tokens()[0]

	pair, err := f.svc.Refresh(context.Background(), res.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, pair.RefreshToken)

	after := f.store.Tokens()
	require.Len(t, after, 1)
	assert.Equal(t, before.ID, after[0].ID, "same record, mutated in place")
	assert.Equal(t, pair.RefreshToken, after[0].Token)
}

func TestRefresh_ConsumedTokenFailsAlthoughStillSigned(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.register(t, "a@x.com", "secret1")
	res := f.login(t, "a@x.com", "secret1")

	_, err := f.svc.Refresh(context.Background(), res.RefreshToken)
	require.NoError(t, err)

	_, err = f.codec.VerifyRefresh(res.RefreshToken)
	require.NoError(t, err, "old token still verifies cryptographically")

	_, err = f.svc.Refresh(context.Background(), res.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRefresh_Failures(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.register(t, "a@x.com", "secret1")
	res := f.login(t, "a@x.com", "secret1")

	foreign, err := auth.NewCodec(auth.CodecConfig{AccessSecret: "x-a", RefreshSecret: "x-r"})
	require.NoError(t, err)
	forged, err := foreign.IssueRefreshToken(res.User.ID)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrMissingToken)

	_, err = f.svc.Refresh(context.Background(), forged)
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)

	_, err = f.svc.Refresh(context.Background(), res.AccessToken)
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken, "access token is not a refresh token")

	f.clock.Advance(7*24*time.Hour + time.Second)
	_, err = f.svc.Refresh(context.Background(), res.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)
}

func TestRefresh_ConcurrentExactlyOneWinner(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.register(t, "a@x.com", "secret1")
	res := f.login(t, "a@x.com", "secret1")

	const n = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		fails []error
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Refresh(context.Background(), res.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else {
				fails = append(fails, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, wins)
	for _, err := range fails {
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	}
	assert.Len(t, f.store.Tokens(), 1)
}

func TestLogout_ThenRefreshFails(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.register(t, "a@x.com", "secret1")
	res := f.login(t, "a@x.com", "secret1")

	require.NoError(t, f.svc.Logout(context.Background(), LogoutInput{RefreshToken: res.RefreshToken}))
	require.NoError(t, f.svc.Logout(context.Background(), LogoutInput{RefreshToken: res.RefreshToken}), "idempotent")
	require.NoError(t, f.svc.Logout(context.Background(), LogoutInput{}), "nothing to do")

	_, err := f.svc.Refresh(context.Background(), res.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestLogout_AllDevices(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	id := f.register(t, "a@x.com", "secret1")
	other := f.register(t, "b@x.com", "secret1")
	s1 := f.login(t, "a@x.com", "secret1")
	s2 := f.login(t, "a@x.com", "secret1")
	s3 := f.login(t, "a@x.com", "secret1")
	f.login(t, "b@x.com", "secret1")

	err := f.svc.Logout(context.Background(), LogoutInput{AllDevices: true, UserID: &id, RefreshToken: s1.RefreshToken})
	require.NoError(t, err)

	for _, s := range []*LoginResult{s1, s2, s3} {
		_, err := f.svc.Refresh(context.Background(), s.RefreshToken)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	}
	remaining := f.store.Tokens()
	require.Len(t, remaining, 1)
	assert.Equal(t, other, remaining[0].UserID)
}

func TestLogout_AllDevicesRequiresMatchingCaller(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	f.register(t, "a@x.com", "secret1")
	victim := f.register(t, "b@x.com", "secret1")
	attacker := f.login(t, "a@x.com", "secret1")
	f.login(t, "b@x.com", "secret1")

	err := f.svc.Logout(context.Background(), LogoutInput{AllDevices: true, UserID: &victim, RefreshToken: attacker.RefreshToken})
	assert.ErrorIs(t, err, common.ErrForbidden)

	err = f.svc.Logout(context.Background(), LogoutInput{AllDevices: true, UserID: &victim})
	assert.ErrorIs(t, err, common.ErrForbidden, "anonymous caller")

	err = f.svc.Logout(context.Background(), LogoutInput{AllDevices: true, UserID: &victim, CallerID: &victim})
	assert.NoError(t, err)

	err = f.svc.Logout(context.Background(), LogoutInput{AllDevices: true})
	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "MISSING_USER_ID", ve.Code)
}

func TestLogout_AllDevicesRejectsRotatedRefreshToken(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	id := f.register(t, "a@x.com", "secret1")
	stale := f.login(t, "a@x.com", "secret1").RefreshToken

	f.clock.Advance(time.Second)
	pair, err := f.svc.Refresh(context.Background(), stale)
	require.NoError(t, err)

	err = f.svc.Logout(context.Background(), LogoutInput{AllDevices: true, UserID: &id, RefreshToken: stale})
	assert.ErrorIs(t, err, common.ErrForbidden)
	require.Len(t, f.store.Tokens(), 1, "live session survives")

	_, err = f.svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
}

func TestLogout_AllDevicesWithCurrentRefreshToken(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	id := f.register(t, "a@x.com", "secret1")
	f.login(t, "a@x.com", "secret1")
	current := f.login(t, "a@x.com", "secret1").RefreshToken

	require.NoError(t, f.svc.Logout(context.Background(), LogoutInput{AllDevices: true, UserID: &id, RefreshToken: current}))
	assert.Empty(t, f.store.Tokens())
}

func TestLogout_TrustedUserID(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{TrustLogoutUserID: true})
	id := f.register(t, "a@x.com", "secret1")
	f.login(t, "a@x.com", "secret1")

	require.NoError(t, f.svc.Logout(context.Background(), LogoutInput{AllDevices: true, UserID: &id}))
	assert.Empty(t, f.store.Tokens())
}

func TestEmailPolicy(t *testing.T) {
	p := NewEmailPolicy([]string{" SKUNIV.ac.kr", "", "@example.com"})
	assert.True(t, p.Allowed("a@skuniv.ac.kr"))
	assert.True(t, p.Allowed("a@Example.com"))
	assert.False(t, p.Allowed("a@evil.com"))
	assert.False(t, p.Allowed("no-at-sign"))
	assert.True(t, NewEmailPolicy(nil).Allowed("anything@anywhere"))
}
