package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/dbx"
	"github.com/sku-codemong/codemong-Backend-02/internal/logging"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/models"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/realtime"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/repositories/repomanager"
)

const (
	FriendActionAccept = "accept"
	FriendActionReject = "reject"
)

// Notifier pushes an event to every live stream of a user. realtime.Hub
// implements it.
type Notifier interface {
	Publish(ctx context.Context, userID int64, ev realtime.Event) int
}

// RespondResult is the outcome of accepting or rejecting a request. Friend
// is set on accept.
type RespondResult struct {
	Result  string
	Request *models.FriendRequest
	Friend  *models.SafeUser
}

type FriendService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    Notifier
	log         logging.Logger
}

func NewFriendService(db *sql.DB, m repomanager.RepositoryManager, notifier Notifier, log logging.Logger) *FriendService {
	return &FriendService{db: db, repomanager: m, notifier: notifier, log: log}
}

// SendRequest creates a pending request from -> to and notifies the target.
func (s *FriendService) SendRequest(ctx context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error) {
	if fromUserID == toUserID {
		return nil, common.NewValidationError("SELF_REQUEST", "cannot send a friend request to yourself")
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, toUserID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	repo := s.repomanager.Friends(s.db)

	already, err := repo.AreFriends(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, fmt.Errorf("error checking friendship: %w", err)
	}
	if already {
		return nil, fmt.Errorf("already friends: %w", common.ErrConflict)
	}

	pending, err := repo.FindPending(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, fmt.Errorf("error checking pending request: %w", err)
	}
	if pending != nil {
		return nil, fmt.Errorf("request already pending: %w", common.ErrConflict)
	}

	req, err := repo.CreateRequest(ctx, fromUserID, toUserID)
	if err != nil {
		// the partial unique index caught a concurrent duplicate
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("request already pending: %w", common.ErrConflict)
		}
		return nil, fmt.Errorf("error creating friend request: %w", err)
	}

	s.notify(ctx, toUserID, realtime.Event{
		Type:    realtime.EventFriendRequestReceived,
		Payload: map[string]any{"request": requestPayload(req)},
	})
	return req, nil
}

func (s *FriendService) ListIncoming(ctx context.Context, userID int64) ([]models.IncomingFriendRequest, error) {
	list, err := s.repomanager.Friends(s.db).ListIncoming(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing friend requests: %w", err)
	}
	return list, nil
}

// Respond accepts or rejects a pending request addressed to callerID and
// notifies the sender.
func (s *FriendService) Respond(ctx context.Context, callerID, requestID int64, action string) (*RespondResult, error) {
	var status string
	switch action {
	case FriendActionAccept:
		status = models.FriendRequestAccepted
	case FriendActionReject:
		status = models.FriendRequestRejected
	default:
		return nil, common.NewValidationError("BAD_ACTION", "action must be accept or reject")
	}

	req, err := s.repomanager.Friends(s.db).GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error getting friend request: %w", err)
	}
	if req.ToUserID != callerID {
		return nil, common.ErrForbidden
	}
	if req.Status != models.FriendRequestPending {
		return nil, fmt.Errorf("request already handled: %w", common.ErrConflict)
	}

	var updated *models.FriendRequest
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Friends(tx)

		u, err := repo.SetStatus(ctx, requestID, status)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("request already handled: %w", common.ErrConflict)
		}
		updated = u
		if status == models.FriendRequestAccepted {
			return repo.AddFriendship(ctx, req.FromUserID, req.ToUserID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("error responding to friend request: %w", err)
	}

	res := &RespondResult{Result: action, Request: updated}
	payload := map[string]any{
		"request_id": requestID,
		"result":     action,
	}

	if status == models.FriendRequestAccepted {
		from, err := s.repomanager.Users(s.db).GetByID(ctx, req.FromUserID)
		if err != nil {
			s.log.Warn(ctx, "friend lookup after accept failed", "user_id", req.FromUserID, "error", err)
		} else {
			res.Friend = from.Public()
		}
		if to, err := s.repomanager.Users(s.db).GetByID(ctx, req.ToUserID); err == nil {
			payload["to_user"] = userSummaryPayload(to)
		}
	}

	s.notify(ctx, req.FromUserID, realtime.Event{
		Type:    realtime.EventFriendRequestResponded,
		Payload: payload,
	})
	return res, nil
}

func (s *FriendService) notify(ctx context.Context, userID int64, ev realtime.Event) {
	if s.notifier == nil {
		return
	}
	n := s.notifier.Publish(ctx, userID, ev)
	s.log.Debug(ctx, "realtime event published", "user_id", userID, "type", ev.Type, "streams", n)
}

// Payload values are limited to what google.protobuf.Struct can carry.
func requestPayload(r *models.FriendRequest) map[string]any {
	return map[string]any{
		"id":           r.ID,
		"from_user_id": r.FromUserID,
		"to_user_id":   r.ToUserID,
		"status":       r.Status,
		"created_at":   r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func userSummaryPayload(u *models.User) map[string]any {
	return map[string]any{
		"id":       u.ID,
		"nickname": u.Nickname,
	}
}
