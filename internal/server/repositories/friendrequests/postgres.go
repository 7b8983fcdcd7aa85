package friendrequests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/dbx"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
)

const requestColumns = `id, request_from, request_to, request_status, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.FriendRequest, error) {
	fr := &models.FriendRequest{}
	err := row.Scan(&fr.ID, &fr.RequestFrom, &fr.RequestTo, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return fr, nil
}

func (r *PostgresRepository) Create(ctx context.Context, fr *models.FriendRequest) (*models.FriendRequest, error) {
	if fr.ID == "" {
		fr.ID = common.NewID()
	}
	if fr.Status == "" {
		fr.Status = models.RequestStatusPending
	}
	now := time.Now().UTC()
	fr.CreatedAt, fr.UpdatedAt = now, now

	query :=
		`INSERT INTO friend_requests (id, request_from, request_to, request_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, fr.ID, fr.RequestFrom, fr.RequestTo, string(fr.Status), fr.CreatedAt, fr.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return fr, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM friend_requests WHERE id = $1`
	return scanRequest(r.db.QueryRowContext(ctx, query, id))
}

// ExistsBetween reports whether any request, in any status, links a and b
// in either direction.
func (r *PostgresRepository) ExistsBetween(ctx context.Context, a string, b string) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM friend_requests
		   WHERE (request_from = $1 AND request_to = $2)
		      OR (request_from = $2 AND request_to = $1)
		 )`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, a, b).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// ListPending returns the newest pending requests addressed to to.
func (r *PostgresRepository) ListPending(ctx context.Context, to string, limit int) ([]*models.FriendRequest, error) {
	query :=
		`SELECT ` + requestColumns + ` FROM friend_requests
		 WHERE request_to = $1 AND request_status = $2
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, to, string(models.RequestStatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.FriendRequest{}
	for rows.Next() {
		fr, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, from models.RequestStatus, to models.RequestStatus) error {
	query :=
		`UPDATE friend_requests SET request_status = $3, updated_at = now()
		 WHERE id = $1 AND request_status = $2`

	res, err := r.db.ExecContext(ctx, query, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
