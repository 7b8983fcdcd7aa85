package comments

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

const commentColumns = `id, post_id, user_id, comment, from_name, likes, created_at`

const replyColumns = `id, comment_id, user_id, comment, from_name, reply_at, likes, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*models.Comment, error) {
	c := &models.Comment{Replies: []models.Reply{}}
	err := row.Scan(&c.ID, &c.PostID, &c.UserID, &c.Comment, &c.From, dbx.TextArray(&c.Likes), &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// replies loads replies oldest first and groups them by comment id.
func (r *PostgresRepository) replies(ctx context.Context, where string, arg any) (map[string][]models.Reply, error) {
	query := `SELECT ` + replyColumns + ` FROM comment_replies WHERE ` + where + ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := map[string][]models.Reply{}
	for rows.Next() {
		var (
			rp        models.Reply
			commentID string
		)
		if err := rows.Scan(&rp.ID, &commentID, &rp.UserID, &rp.Comment, &rp.From, &rp.ReplyAt,
			dbx.TextArray(&rp.Likes), &rp.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out[commentID] = append(out[commentID], rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) withReplies(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	byComment, err := r.replies(ctx, `comment_id = $1`, c.ID)
	if err != nil {
		return nil, err
	}
	if rs, ok := byComment[c.ID]; ok {
		c.Replies = rs
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	if c.ID == "" {
		c.ID = common.NewID()
	}
	c.CreatedAt = time.Now().UTC()
	c.Likes = []string{}
	c.Replies = []models.Reply{}

	query :=
		`INSERT INTO comments (id, post_id, user_id, comment, from_name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.db.ExecContext(ctx, query, c.ID, c.PostID, c.UserID, c.Comment, c.From, c.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	c, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return r.withReplies(ctx, c)
}

func (r *PostgresRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	byComment, err := r.replies(ctx, `comment_id IN (SELECT id FROM comments WHERE post_id = $1)`, postID)
	if err != nil {
		return nil, err
	}
	for _, c := range out {
		if rs, ok := byComment[c.ID]; ok {
			c.Replies = rs
		}
	}
	return out, nil
}

// AddReply inserts the reply only when the parent comment exists.
func (r *PostgresRepository) AddReply(ctx context.Context, commentID string, reply *models.Reply) (*models.Reply, error) {
	if reply.ID == "" {
		reply.ID = common.NewID()
	}
	reply.CreatedAt = time.Now().UTC()
	reply.Likes = []string{}

	query :=
		`INSERT INTO comment_replies (id, comment_id, user_id, comment, from_name, reply_at, created_at)
		 SELECT $1, $2, $3, $4, $5, $6, $7
		 WHERE EXISTS (SELECT 1 FROM comments WHERE id = $2)`

	res, err := r.db.ExecContext(ctx, query, reply.ID, commentID, reply.UserID, reply.Comment, reply.From, reply.ReplyAt, reply.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, common.ErrorNotFound
	}
	return reply, nil
}

func (r *PostgresRepository) ToggleLike(ctx context.Context, id string, userID string) (*models.Comment, error) {
	query :=
		`UPDATE comments SET
		   likes = CASE WHEN $2::text = ANY(likes) THEN array_remove(likes, $2::text) ELSE array_append(likes, $2::text) END
		 WHERE id = $1
		 RETURNING ` + commentColumns

	c, err := scanComment(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, err
	}
	return r.withReplies(ctx, c)
}

func (r *PostgresRepository) ToggleReplyLike(ctx context.Context, commentID string, replyID string, userID string) (*models.Comment, error) {
	query :=
		`UPDATE comment_replies SET
		   likes = CASE WHEN $3::text = ANY(likes) THEN array_remove(likes, $3::text) ELSE array_append(likes, $3::text) END
		 WHERE id = $1 AND comment_id = $2`

	res, err := r.db.ExecContext(ctx, query, replyID, commentID, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, common.ErrorNotFound
	}
	return r.GetByID(ctx, commentID)
}
