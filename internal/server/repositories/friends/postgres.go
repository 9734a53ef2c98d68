package friends

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/dbx"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/models"
)

const requestColumns = `id, from_user_id, to_user_id, status, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateRequest(ctx context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error) {
	query :=
		`INSERT INTO friend_requests (from_user_id, to_user_id)
		 VALUES ($1, $2)
		 RETURNING ` + requestColumns

	fr, err := scanRequest(r.db.QueryRowContext(ctx, query, fromUserID, toUserID))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return fr, nil
}

func (r *PostgresRepository) GetRequest(ctx context.Context, id int64) (*models.FriendRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM friend_requests WHERE id = $1`

	fr, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return fr, nil
}

func (r *PostgresRepository) FindPending(ctx context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM friend_requests
		 WHERE from_user_id = $1 AND to_user_id = $2 AND status = 'pending'
		 LIMIT 1`

	fr, err := scanRequest(r.db.QueryRowContext(ctx, query, fromUserID, toUserID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return fr, nil
}

func (r *PostgresRepository) ListIncoming(ctx context.Context, toUserID int64) ([]models.IncomingFriendRequest, error) {
	query :=
		`SELECT fr.id, fr.from_user_id, fr.to_user_id, fr.status, fr.created_at, fr.updated_at, u.nickname
		 FROM friend_requests fr
		 JOIN users u ON u.id = fr.from_user_id
		 WHERE fr.to_user_id = $1 AND fr.status = 'pending'
		 ORDER BY fr.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, toUserID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.IncomingFriendRequest{}
	for rows.Next() {
		var in models.IncomingFriendRequest
		if err := rows.Scan(&in.ID, &in.FromUserID, &in.ToUserID, &in.Status,
			&in.CreatedAt, &in.UpdatedAt, &in.FromNickname); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id int64, status string) (*models.FriendRequest, error) {
	query :=
		`UPDATE friend_requests SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = 'pending'
		 RETURNING ` + requestColumns

	fr, err := scanRequest(r.db.QueryRowContext(ctx, query, id, status))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return fr, nil
}

func (r *PostgresRepository) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM friends WHERE user_id = $1 AND friend_user_id = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, a, b).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) AddFriendship(ctx context.Context, a, b int64) error {
	query :=
		`INSERT INTO friends (user_id, friend_user_id)
		 VALUES ($1, $2), ($2, $1)
		 ON CONFLICT DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, a, b); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func scanRequest(row *sql.Row) (*models.FriendRequest, error) {
	fr := &models.FriendRequest{}
	if err := row.Scan(&fr.ID, &fr.FromUserID, &fr.ToUserID, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt); err != nil {
		return nil, err
	}
	return fr, nil
}
