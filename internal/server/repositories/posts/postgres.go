package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/dbx"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
)

const postColumns = `id, user_id, description, image, likes, comments, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	p := &models.Post{}
	err := row.Scan(&p.ID, &p.UserID, &p.Description, &p.Image,
		dbx.TextArray(&p.Likes), dbx.TextArray(&p.Comments), &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	if post.ID == "" {
		post.ID = common.NewID()
	}
	now := time.Now().UTC()
	post.CreatedAt, post.UpdatedAt = now, now
	post.Likes = []string{}
	post.Comments = []string{}

	query :=
		`INSERT INTO posts (id, user_id, description, image, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(ctx, query, post.ID, post.UserID, post.Description, post.Image, post.CreatedAt, post.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	return scanPost(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) Search(ctx context.Context, search string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE description ILIKE $1 ESCAPE '\' ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, likePattern(search))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns s into an ILIKE pattern matching it as a substring.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (r *PostgresRepository) ToggleLike(ctx context.Context, id string, userID string) (*models.Post, error) {
	query :=
		`UPDATE posts SET
		   likes = CASE WHEN $2::text = ANY(likes) THEN array_remove(likes, $2::text) ELSE array_append(likes, $2::text) END,
		   updated_at = now()
		 WHERE id = $1
		 RETURNING ` + postColumns

	return scanPost(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) AppendComment(ctx context.Context, postID string, commentID string) error {
	query := `UPDATE posts SET comments = array_append(comments, $2::text), updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, postID, commentID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM posts WHERE id = $1`, id)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
