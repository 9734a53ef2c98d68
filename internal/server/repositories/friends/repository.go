// Package friends stores friend requests and the friendship relation.
package friends

import (
	"context"

	"github.com/sku-codemong/codemong-Backend-02/internal/server/models"
)

type Repository interface {
	CreateRequest(ctx context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error)
	// GetRequest returns common.ErrorNotFound when absent.
	GetRequest(ctx context.Context, id int64) (*models.FriendRequest, error)
	// FindPending returns nil, nil when there is no pending request from -> to.
	FindPending(ctx context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error)
	ListIncoming(ctx context.Context, toUserID int64) ([]models.IncomingFriendRequest, error)
	// SetStatus moves a pending request to status. It returns nil, nil when
	// the request is no longer pending.
	SetStatus(ctx context.Context, id int64, status string) (*models.FriendRequest, error)
	AreFriends(ctx context.Context, a, b int64) (bool, error)
	// AddFriendship writes both directions of the relation.
	AddFriendship(ctx context.Context, a, b int64) error
}
