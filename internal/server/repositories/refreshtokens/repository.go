// Package refreshtokens declares the refresh token store: one row per live
// session, rotated in place and deleted on logout.
package refreshtokens

import (
	"context"

	"github.com/sku-codemong/codemong-Backend-02/internal/server/models"
)

// Repository defines operations for issuing, looking up, rotating and
// revoking refresh token records.
type Repository interface {
	// Create stores a new record for userID holding token.
	Create(ctx context.Context, userID int64, token string) (*models.RefreshToken, error)

	// Find returns the most recently updated record holding token, scoped
	// to userID when it is non-nil. It returns nil, nil when nothing matches.
	Find(ctx context.Context, token string, userID *int64) (*models.RefreshToken, error)

	// Rotate replaces oldToken with newToken on record id, but only if the
	// record still holds oldToken. It returns nil, nil when the record was
	// rotated or deleted by someone else first.
	Rotate(ctx context.Context, id, oldToken, newToken string) (*models.RefreshToken, error)

	// DeleteByToken removes every record holding token and returns how many
	// were removed. Zero is not an error.
	DeleteByToken(ctx context.Context, token string) (int64, error)

	// DeleteAllForUser removes every record of userID.
	DeleteAllForUser(ctx context.Context, userID int64) (int64, error)
}
