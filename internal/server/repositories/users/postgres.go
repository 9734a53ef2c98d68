package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/dbx"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/models"
)

const userColumns = `id, email, password_hash, nickname, grade, gender, profile_image_url, is_completed, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, password_hash, nickname, grade, gender)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, is_completed, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.Nickname, user.Grade, user.Gender).
		Scan(&user.ID, &user.IsCompleted, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id))
}

// UpdateProfile applies the non-nil fields of upd.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) (*models.User, error) {
	query :=
		`UPDATE users SET
		   nickname = COALESCE($2, nickname),
		   grade = COALESCE($3, grade),
		   gender = COALESCE($4, gender),
		   profile_image_url = COALESCE($5, profile_image_url),
		   is_completed = COALESCE($6, is_completed),
		   updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	return scanOne(r.db.QueryRowContext(ctx, query,
		id, upd.Nickname, upd.Grade, upd.Gender, upd.ProfileImageURL, upd.IsCompleted))
}

func scanOne(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Nickname, &u.Grade, &u.Gender,
		&u.ProfileImageURL, &u.IsCompleted, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
