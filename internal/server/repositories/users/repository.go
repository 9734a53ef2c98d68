// Package users stores accounts.
package users

import (
	"context"

	"github.com/sku-codemong/codemong-Backend-02/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills its generated fields.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetByEmail and GetByID return common.ErrorNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) (*models.User, error)
}
