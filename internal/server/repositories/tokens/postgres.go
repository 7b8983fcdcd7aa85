package tokens

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

const tokenColumns = `id, user_id, kind, hash, expires_at, created_at`

// PostgresRepository implements token storage over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanToken(row *sql.Row) (*models.Token, error) {
	t := &models.Token{}
	if err := row.Scan(&t.ID, &t.UserID, &t.Kind, &t.Hash, &t.ExpiresAt, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// Create inserts token. ID and CreatedAt are assigned when empty.
func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) error {
	if token.ID == "" {
		token.ID = common.NewID()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO user_tokens (id, user_id, kind, hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, token.ID, token.UserID, string(token.Kind), token.Hash, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, userID string, kind models.TokenKind) (*models.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM user_tokens
		WHERE user_id = $1 AND kind = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanToken(r.db.QueryRowContext(ctx, query, userID, string(kind)))
}

func (r *PostgresRepository) FindByHash(ctx context.Context, kind models.TokenKind, hash string) (*models.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM user_tokens
		WHERE kind = $1 AND hash = $2
	`
	return scanToken(r.db.QueryRowContext(ctx, query, string(kind), hash))
}

// Delete removes a token by id. A missing token is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string, kind models.TokenKind) error {
	query := `DELETE FROM user_tokens WHERE user_id = $1 AND kind = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, string(kind)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ExpiredUserIDs(ctx context.Context, kind models.TokenKind, now time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM user_tokens
		WHERE kind = $1 AND expires_at <= $2
	`
	rows, err := r.db.QueryContext(ctx, query, string(kind), now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}
