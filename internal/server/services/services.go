// Package services contains server-side business logic. Services depend on
// a repomanager.RepositoryManager and never call each other; HTTP handlers
// translate their sentinel errors (internal/common) into status codes.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"github.com/dmitrijs2005/gophsocial/internal/server/notify"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/users"
)

// validationError wraps common.ErrorValidation with a user-facing message.
func validationError(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, msg)
}

// publish delivers ev to userID when a notifier is configured.
func publish(ctx context.Context, n notify.Notifier, userID string, ev notify.Event) {
	if n == nil || userID == "" {
		return
	}
	n.Notify(ctx, userID, ev)
}

// profiles loads the public profiles of ids, skipping duplicates and blanks.
func profiles(ctx context.Context, repo users.Repository, ids []string) (map[string]*models.PublicProfile, error) {
	seen := make(map[string]struct{}, len(ids))
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	if len(uniq) == 0 {
		return map[string]*models.PublicProfile{}, nil
	}
	out, err := repo.GetProfiles(ctx, uniq)
	if err != nil {
		return nil, fmt.Errorf("error loading profiles: %w", err)
	}
	return out, nil
}

// attachPostAuthors sets Author on every post.
func attachPostAuthors(ctx context.Context, repo users.Repository, posts ...*models.Post) error {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.UserID)
	}
	byID, err := profiles(ctx, repo, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.Author = byID[p.UserID]
	}
	return nil
}

// attachCommentAuthors sets Author on every comment and each of its replies.
func attachCommentAuthors(ctx context.Context, repo users.Repository, comments ...*models.Comment) error {
	var ids []string
	for _, c := range comments {
		ids = append(ids, c.UserID)
		for _, r := range c.Replies {
			ids = append(ids, r.UserID)
		}
	}
	byID, err := profiles(ctx, repo, ids)
	if err != nil {
		return err
	}
	for _, c := range comments {
		c.Author = byID[c.UserID]
		for i := range c.Replies {
			c.Replies[i].Author = byID[c.Replies[i].UserID]
		}
	}
	return nil
}
