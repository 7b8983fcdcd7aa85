// Package tokens stores the hashed single-use secrets issued to users:
// email verification, password reset and refresh tokens.
package tokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/server/models"
)

// Repository is implemented by every storage backend. Only token hashes are
// stored; callers hash the secret with common.HashToken.
type Repository interface {
	Create(ctx context.Context, token *models.Token) error
	// Find returns the newest token of kind for userID.
	Find(ctx context.Context, userID string, kind models.TokenKind) (*models.Token, error)
	FindByHash(ctx context.Context, kind models.TokenKind, hash string) (*models.Token, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string, kind models.TokenKind) error
	// ExpiredUserIDs lists users holding a token of kind that expired before now.
	ExpiredUserIDs(ctx context.Context, kind models.TokenKind, now time.Time) ([]string, error)
}
