package users

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

const userColumns = `id, first_name, last_name, email, password, location, profession, profile_url, friends, views, verified, created_at, updated_at`

const profileColumns = `id, first_name, last_name, location, profession, profile_url`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Location, &u.Profession, &u.ProfileURL,
		dbx.TextArray(&u.Friends), dbx.TextArray(&u.Views),
		&u.Verified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func scanProfile(row rowScanner) (*models.PublicProfile, error) {
	p := &models.PublicProfile{}
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Location, &p.Profession, &p.ProfileURL); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = common.NewID()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Friends == nil {
		user.Friends = []string{}
	}
	if user.Views == nil {
		user.Views = []string{}
	}

	query :=
		`INSERT INTO users (id, first_name, last_name, email, password, location, profession, profile_url, verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash,
		user.Location, user.Profession, user.ProfileURL, user.Verified, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetProfiles returns the public profiles of the given ids keyed by id.
// Unknown ids are skipped.
func (r *PostgresRepository) GetProfiles(ctx context.Context, ids []string) (map[string]*models.PublicProfile, error) {
	out := make(map[string]*models.PublicProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT ` + profileColumns + ` FROM users WHERE id = ANY($1::text[])`
	rows, err := r.db.QueryContext(ctx, query, dbx.TextArrayValue(ids))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// Suggest lists users other than userID that do not have userID among
// their friends.
func (r *PostgresRepository) Suggest(ctx context.Context, userID string, limit int) ([]*models.PublicProfile, error) {
	query :=
		`SELECT ` + profileColumns + ` FROM users
		 WHERE id <> $1 AND NOT ($1 = ANY(friends))
		 ORDER BY created_at DESC
		 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.PublicProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
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

func (r *PostgresRepository) Update(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	query :=
		`UPDATE users SET
		   first_name = COALESCE(NULLIF($2, ''), first_name),
		   last_name = COALESCE(NULLIF($3, ''), last_name),
		   location = COALESCE(NULLIF($4, ''), location),
		   profession = COALESCE(NULLIF($5, ''), profession),
		   profile_url = COALESCE(NULLIF($6, ''), profile_url),
		   updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query, id,
		upd.FirstName, upd.LastName, upd.Location, upd.Profession, upd.ProfileURL))
}

func (r *PostgresRepository) SetVerified(ctx context.Context, id string) error {
	query := `UPDATE users SET verified = TRUE, updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) SetPassword(ctx context.Context, id string, hash string) error {
	query := `UPDATE users SET password = $2, updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id, hash)
}

// AddFriend inserts friendID into the friends set; an existing member is
// left in place.
func (r *PostgresRepository) AddFriend(ctx context.Context, userID string, friendID string) error {
	query :=
		`UPDATE users SET
		   friends = CASE WHEN $2::text = ANY(friends) THEN friends ELSE array_append(friends, $2::text) END,
		   updated_at = now()
		 WHERE id = $1`
	return r.execOne(ctx, query, userID, friendID)
}

func (r *PostgresRepository) AppendView(ctx context.Context, userID string, viewerID string) error {
	query := `UPDATE users SET views = array_append(views, $2::text) WHERE id = $1`
	return r.execOne(ctx, query, userID, viewerID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`
	return r.execOne(ctx, query, id)
}

// execOne runs a statement addressed by primary key and maps zero affected
// rows to common.ErrorNotFound.
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
