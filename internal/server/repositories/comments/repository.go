// Package comments stores post comments and the replies they own.
package comments

import (
	"context"

	"github.com/dmitrijs2005/gophsocial/internal/server/models"
)

// Repository is implemented by every storage backend.
//
// Comments come back newest first with their replies oldest first. Like
// toggles are single atomic writes; ToggleReplyLike touches only the likes
// of the addressed reply and reports common.ErrorNotFound when the comment
// has no such reply.
type Repository interface {
	Create(ctx context.Context, c *models.Comment) (*models.Comment, error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	AddReply(ctx context.Context, commentID string, reply *models.Reply) (*models.Reply, error)
	ToggleLike(ctx context.Context, id string, userID string) (*models.Comment, error)
	ToggleReplyLike(ctx context.Context, commentID string, replyID string, userID string) (*models.Comment, error)
}
