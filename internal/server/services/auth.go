// Package services contains server-side business logic. AuthService owns the
// session lifecycle: register, login, refresh-token rotation and logout.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/cryptox"
	"github.com/sku-codemong/codemong-Backend-02/internal/dbx"
	"github.com/sku-codemong/codemong-Backend-02/internal/logging"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/auth"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/models"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type LoginResult struct {
	User *models.User
	TokenPair
}

type RegisterInput struct {
	Email    string
	Password string
	Nickname string
	Grade    *int
	Gender   *string
}

// LogoutInput describes a logout. CallerID is the identity the transport
// could establish for the request, if any.
type LogoutInput struct {
	RefreshToken string
	AllDevices   bool
	UserID       *int64
	CallerID     *int64
}

// LoginLimiter throttles failed logins. ratelimit.LoginLimiter implements it.
type LoginLimiter interface {
	Check(ctx context.Context, email, ip string) error
	RecordFailure(ctx context.Context, email, ip string) error
	Reset(ctx context.Context, email string) error
}

type AuthOptions struct {
	AllowedEmailDomains []string
	// TrustLogoutUserID skips the caller check on all-devices logout.
	TrustLogoutUserID bool
	// Limiter is optional.
	Limiter LoginLimiter
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	hasher      *cryptox.Hasher
	emails      EmailPolicy
	limiter     LoginLimiter
	trustUserID bool
	log         logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec, hasher *cryptox.Hasher, opts AuthOptions, log logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		codec:       codec,
		hasher:      hasher,
		emails:      NewEmailPolicy(opts.AllowedEmailDomains),
		limiter:     opts.Limiter,
		trustUserID: opts.TrustLogoutUserID,
		log:         log,
	}
}

// Register creates an account. It never issues tokens.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return nil, common.NewValidationError("BAD_EMAIL", "invalid email")
	}
	if !s.emails.Allowed(email) {
		return nil, common.ErrNotSchoolEmail
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrEmailInUse
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	nickname := strings.TrimSpace(in.Nickname)
	if nickname == "" {
		nickname = email[:at]
	}

	u, err := repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Nickname:     nickname,
		Grade:        in.Grade,
		Gender:       in.Gender,
	})
	if err != nil {
		// lost a race with a concurrent registration of the same email
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrEmailInUse
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login checks credentials and opens a new session. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password, clientIP string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if !s.emails.Allowed(email) {
		return nil, common.ErrNotSchoolEmail
	}

	if s.limiter != nil {
		if err := s.limiter.Check(ctx, email, clientIP); err != nil {
			if errors.Is(err, common.ErrRateLimited) {
				return nil, err
			}
			s.log.Warn(ctx, "login limiter unavailable", "error", err)
		}
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(password)
			s.recordFailure(ctx, email, clientIP)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.recordFailure(ctx, email, clientIP)
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repomanager.RefreshTokens(s.db).Create(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.log.Warn(ctx, "login limiter reset failed", "error", err)
		}
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{User: user, TokenPair: *pair}, nil
}

// Refresh exchanges a live refresh token for a new pair and rotates the
// stored record in place. Of two concurrent refreshes presenting the same
// token exactly one succeeds.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, common.ErrMissingToken
	}

	claims, err := s.codec.VerifyRefresh(presented)
	if err != nil {
		return nil, common.ErrInvalidOrExpiredToken
	}

	repo := s.repomanager.RefreshTokens(s.db)

	record, err := repo.Find(ctx, presented, &claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if record == nil {
		s.log.Info(ctx, "refresh with unknown or consumed token", "user_id", claims.UserID)
		return nil, common.ErrInvalidToken
	}

	pair, err := s.issuePair(claims.UserID)
	if err != nil {
		return nil, err
	}

	rotated, err := repo.Rotate(ctx, record.ID, presented, pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("error rotating refresh token: %w", err)
	}
	if rotated == nil {
		s.log.Info(ctx, "refresh lost rotation race", "user_id", claims.UserID)
		return nil, common.ErrInvalidToken
	}

	return pair, nil
}

// Logout ends one session, or every session of a user when AllDevices is
// set. It is idempotent.
func (s *AuthService) Logout(ctx context.Context, in LogoutInput) error {
	repo := s.repomanager.RefreshTokens(s.db)

	if in.AllDevices {
		if in.UserID == nil {
			return common.NewValidationError("MISSING_USER_ID", "userId is required when allDevices=true")
		}
		if !s.trustUserID {
			caller, err := s.logoutCaller(ctx, in)
			if err != nil {
				return err
			}
			if caller == nil || *caller != *in.UserID {
				return common.ErrForbidden
			}
		}
		n, err := repo.DeleteAllForUser(ctx, *in.UserID)
		if err != nil {
			return fmt.Errorf("error deleting refresh tokens: %w", err)
		}
		s.log.Info(ctx, "logged out all devices", "user_id", *in.UserID, "sessions", n)
		return nil
	}

	if in.RefreshToken == "" {
		return nil
	}
	if _, err := repo.DeleteByToken(ctx, in.RefreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// logoutCaller prefers the request's verified identity and falls back to
// the subject of a refresh token that is still stored. Rotated-away or
// logged-out tokens identify nobody.
func (s *AuthService) logoutCaller(ctx context.Context, in LogoutInput) (*int64, error) {
	if in.CallerID != nil {
		return in.CallerID, nil
	}
	if in.RefreshToken == "" {
		return nil, nil
	}
	claims, err := s.codec.VerifyRefresh(in.RefreshToken)
	if err != nil {
		return nil, nil
	}
	record, err := s.repomanager.RefreshTokens(s.db).Find(ctx, in.RefreshToken, &claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	return &claims.UserID, nil
}

func (s *AuthService) issuePair(userID int64) (*TokenPair, error) {
	access, err := s.codec.IssueAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}
	refresh, err := s.codec.IssueRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("error issuing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email, ip string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, email, ip); err != nil {
		s.log.Warn(ctx, "login limiter record failed", "error", err)
	}
}
