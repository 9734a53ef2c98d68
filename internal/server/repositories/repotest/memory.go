// Package repotest provides an in-memory RepositoryManager for tests of the
// layers above the repositories. It keeps the same contracts as the
// PostgreSQL repositories, including the compare-and-set rotation.
package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/dbx"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/models"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/repositories/friends"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/repositories/refreshtokens"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/repositories/users"
)

// Store holds all in-memory state. Setting one of the *Err fields makes
// every call of that repository fail with it.
type Store struct {
	mu sync.Mutex

	users      map[int64]*models.User
	nextUserID int64

	tokens map[string]*models.RefreshToken

	requests      map[int64]*models.FriendRequest
	nextRequestID int64
	friendships   map[[2]int64]struct{}

	UsersErr   error
	TokensErr  error
	FriendsErr error
}

func NewStore() *Store {
	return &Store{
		users:       make(map[int64]*models.User),
		tokens:      make(map[string]*models.RefreshToken),
		requests:    make(map[int64]*models.FriendRequest),
		friendships: make(map[[2]int64]struct{}),
	}
}

// Manager returns a RepositoryManager over s. The DBTX passed to the
// factories is ignored.
func (s *Store) Manager() *Manager { return &Manager{store: s} }

// Tokens returns a snapshot of every refresh token record.
func (s *Store) Tokens() []models.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RefreshToken, 0, len(s.tokens))
	for _, t := range s.tokens {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

type Manager struct {
	store *Store
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(dbx.DBTX) users.Repository { return &userRepo{m.store} }

func (m *Manager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return &tokenRepo{m.store} }

func (m *Manager) Friends(dbx.DBTX) friends.Repository { return &friendRepo{m.store} }

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.UsersErr != nil {
		return nil, r.s.UsersErr
	}
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
		}
	}
	r.s.nextUserID++
	now := time.Now()
	cp := *u
	cp.ID = r.s.nextUserID
	cp.CreatedAt, cp.UpdatedAt = now, now
	r.s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.UsersErr != nil {
		return nil, r.s.UsersErr
	}
	for _, u := range r.s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.UsersErr != nil {
		return nil, r.s.UsersErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (r *userRepo) UpdateProfile(_ context.Context, id int64, upd models.ProfileUpdate) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.UsersErr != nil {
		return nil, r.s.UsersErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.Nickname != nil {
		u.Nickname = *upd.Nickname
	}
	if upd.Grade != nil {
		u.Grade = upd.Grade
	}
	if upd.Gender != nil {
		u.Gender = upd.Gender
	}
	if upd.ProfileImageURL != nil {
		u.ProfileImageURL = upd.ProfileImageURL
	}
	if upd.IsCompleted != nil {
		u.IsCompleted = *upd.IsCompleted
	}
	u.UpdatedAt = time.Now()
	out := *u
	return &out, nil
}

type tokenRepo struct{ s *Store }

func (r *tokenRepo) Create(_ context.Context, userID int64, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.TokensErr != nil {
		return nil, r.s.TokensErr
	}
	now := time.Now()
	rt := &models.RefreshToken{ID: uuid.NewString(), UserID: userID, Token: token, CreatedAt: now, UpdatedAt: now}
	r.s.tokens[rt.ID] = rt
	out := *rt
	return &out, nil
}

func (r *tokenRepo) Find(_ context.Context, token string, userID *int64) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.TokensErr != nil {
		return nil, r.s.TokensErr
	}
	var best *models.RefreshToken
	for _, rt := range r.s.tokens {
		if rt.Token != token || (userID != nil && rt.UserID != *userID) {
			continue
		}
		if best == nil || rt.UpdatedAt.After(best.UpdatedAt) {
			best = rt
		}
	}
	if best == nil {
		return nil, nil
	}
	out := *best
	return &out, nil
}

func (r *tokenRepo) Rotate(_ context.Context, id, oldToken, newToken string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.TokensErr != nil {
		return nil, r.s.TokensErr
	}
	rt, ok := r.s.tokens[id]
	if !ok || rt.Token != oldToken {
		return nil, nil
	}
	rt.Token = newToken
	rt.UpdatedAt = time.Now()
	out := *rt
	return &out, nil
}

func (r *tokenRepo) DeleteByToken(_ context.Context, token string) (int64, error) {
	return r.deleteWhere(func(rt *models.RefreshToken) bool { return rt.Token == token })
}

func (r *tokenRepo) DeleteAllForUser(_ context.Context, userID int64) (int64, error) {
	return r.deleteWhere(func(rt *models.RefreshToken) bool { return rt.UserID == userID })
}

func (r *tokenRepo) deleteWhere(match func(*models.RefreshToken) bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.TokensErr != nil {
		return 0, r.s.TokensErr
	}
	var n int64
	for id, rt := range r.s.tokens {
		if match(rt) {
			delete(r.s.tokens, id)
			n++
		}
	}
	return n, nil
}

type friendRepo struct{ s *Store }

func (r *friendRepo) CreateRequest(_ context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FriendsErr != nil {
		return nil, r.s.FriendsErr
	}
	r.s.nextRequestID++
	now := time.Now()
	fr := &models.FriendRequest{
		ID: r.s.nextRequestID, FromUserID: fromUserID, ToUserID: toUserID,
		Status: models.FriendRequestPending, CreatedAt: now, UpdatedAt: now,
	}
	r.s.requests[fr.ID] = fr
	out := *fr
	return &out, nil
}

func (r *friendRepo) GetRequest(_ context.Context, id int64) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FriendsErr != nil {
		return nil, r.s.FriendsErr
	}
	fr, ok := r.s.requests[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *fr
	return &out, nil
}

func (r *friendRepo) FindPending(_ context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FriendsErr != nil {
		return nil, r.s.FriendsErr
	}
	for _, fr := range r.s.requests {
		if fr.FromUserID == fromUserID && fr.ToUserID == toUserID && fr.Status == models.FriendRequestPending {
			out := *fr
			return &out, nil
		}
	}
	return nil, nil
}

func (r *friendRepo) ListIncoming(_ context.Context, toUserID int64) ([]models.IncomingFriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FriendsErr != nil {
		return nil, r.s.FriendsErr
	}
	out := []models.IncomingFriendRequest{}
	for _, fr := range r.s.requests {
		if fr.ToUserID != toUserID || fr.Status != models.FriendRequestPending {
			continue
		}
		in := models.IncomingFriendRequest{FriendRequest: *fr}
		if u, ok := r.s.users[fr.FromUserID]; ok {
			in.FromNickname = u.Nickname
		}
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *friendRepo) SetStatus(_ context.Context, id int64, status string) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FriendsErr != nil {
		return nil, r.s.FriendsErr
	}
	fr, ok := r.s.requests[id]
	if !ok || fr.Status != models.FriendRequestPending {
		return nil, nil
	}
	fr.Status = status
	fr.UpdatedAt = time.Now()
	out := *fr
	return &out, nil
}

func (r *friendRepo) AreFriends(_ context.Context, a, b int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FriendsErr != nil {
		return false, r.s.FriendsErr
	}
	_, ok := r.s.friendships[[2]int64{a, b}]
	return ok, nil
}

func (r *friendRepo) AddFriendship(_ context.Context, a, b int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FriendsErr != nil {
		return r.s.FriendsErr
	}
	r.s.friendships[[2]int64{a, b}] = struct{}{}
	r.s.friendships[[2]int64{b, a}] = struct{}{}
	return nil
}
