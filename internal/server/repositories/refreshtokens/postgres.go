package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sku-codemong/codemong-Backend-02/internal/dbx"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// newID is a seam for tests.
var newID = func() string { return uuid.NewString() }

func (r *PostgresRepository) Create(ctx context.Context, userID int64, token string) (*models.RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, token, created_at, updated_at
	`
	rt, err := scan(r.db.QueryRowContext(ctx, query, newID(), userID, token))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string, userID *int64) (*models.RefreshToken, error) {
	var row *sql.Row
	if userID != nil {
		query := `
			SELECT id, user_id, token, created_at, updated_at
			FROM refresh_tokens
			WHERE token = $1 AND user_id = $2
			ORDER BY updated_at DESC
			LIMIT 1
		`
		row = r.db.QueryRowContext(ctx, query, token, *userID)
	} else {
		query := `
			SELECT id, user_id, token, created_at, updated_at
			FROM refresh_tokens
			WHERE token = $1
			ORDER BY updated_at DESC
			LIMIT 1
		`
		row = r.db.QueryRowContext(ctx, query, token)
	}

	rt, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

func (r *PostgresRepository) Rotate(ctx context.Context, id, oldToken, newToken string) (*models.RefreshToken, error) {
	query := `
		UPDATE refresh_tokens
		SET token = $3, updated_at = now()
		WHERE id = $1 AND token = $2
		RETURNING id, user_id, token, created_at, updated_at
	`
	rt, err := scan(r.db.QueryRowContext(ctx, query, id, oldToken, newToken))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

func (r *PostgresRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	return r.exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
}

func (r *PostgresRepository) DeleteAllForUser(ctx context.Context, userID int64) (int64, error) {
	return r.exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func scan(row *sql.Row) (*models.RefreshToken, error) {
	rt := &models.RefreshToken{}
	if err := row.Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return nil, err
	}
	return rt, nil
}
