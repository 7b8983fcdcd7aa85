// Package friendrequests stores directed friend requests and their status.
package friendrequests

import (
	"context"

	"github.com/dmitrijs2005/gophsocial/internal/server/models"
)

// Repository is implemented by every storage backend.
//
// UpdateStatus is a compare-and-set: it changes the status only while the
// request is still in status from, and reports common.ErrorNotFound when
// nothing matched.
type Repository interface {
	Create(ctx context.Context, fr *models.FriendRequest) (*models.FriendRequest, error)
	GetByID(ctx context.Context, id string) (*models.FriendRequest, error)
	ExistsBetween(ctx context.Context, a string, b string) (bool, error)
	ListPending(ctx context.Context, to string, limit int) ([]*models.FriendRequest, error)
	UpdateStatus(ctx context.Context, id string, from models.RequestStatus, to models.RequestStatus) error
}
