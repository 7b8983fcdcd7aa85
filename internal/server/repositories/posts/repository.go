// Package posts stores posts with their likes set and comment id list.
package posts

import (
	"context"

	"github.com/dmitrijs2005/gophsocial/internal/server/models"
)

// Repository is implemented by every storage backend.
//
// Lists are ordered newest first. Search matches description
// case-insensitively as a literal substring; an empty search matches every
// post. ToggleLike adds userID when absent and removes it when present in a
// single atomic write and returns the post after the change.
type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Post, error)
	Search(ctx context.Context, search string) ([]*models.Post, error)
	ToggleLike(ctx context.Context, id string, userID string) (*models.Post, error)
	AppendComment(ctx context.Context, postID string, commentID string) error
	Delete(ctx context.Context, id string) error
}
