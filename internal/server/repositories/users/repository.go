// Package users stores accounts together with their friends set and
// profile-view list.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophsocial/internal/server/models"
)

// Repository is implemented by every storage backend.
//
// Lookups return common.ErrorNotFound for a missing user. Create returns
// common.ErrorAlreadyExists when the email is taken. AddFriend is a set
// insert and AppendView an unconditional append; both are single atomic
// writes.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetProfiles(ctx context.Context, ids []string) (map[string]*models.PublicProfile, error)
	Suggest(ctx context.Context, userID string, limit int) ([]*models.PublicProfile, error)
	Update(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
	SetVerified(ctx context.Context, id string) error
	SetPassword(ctx context.Context, id string, hash string) error
	AddFriend(ctx context.Context, userID string, friendID string) error
	AppendView(ctx context.Context, userID string, viewerID string) error
	Delete(ctx context.Context, id string) error
}
