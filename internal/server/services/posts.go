package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/logging"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"github.com/dmitrijs2005/gophsocial/internal/server/notify"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/repomanager"
)

// PostService handles posts, the feed, comments, replies and likes.
type PostService struct {
	repomanager repomanager.RepositoryManager
	notifier    notify.Notifier
	log         logging.Logger
}

func NewPostService(m repomanager.RepositoryManager, n notify.Notifier, log logging.Logger) *PostService {
	return &PostService{repomanager: m, notifier: n, log: log}
}

func notFound(what string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: %s not found", common.ErrorNotFound, what)
	}
	return fmt.Errorf("error loading %s: %w", what, err)
}

// CreatePost publishes a post with no likes or comments.
func (s *PostService) CreatePost(ctx context.Context, ownerID, description, image string) (*models.Post, error) {
	if strings.TrimSpace(description) == "" {
		return nil, validationError("you must provide a description")
	}

	post, err := s.repomanager.Posts().Create(ctx, &models.Post{
		UserID:      ownerID,
		Description: description,
		Image:       image,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	if err := attachPostAuthors(ctx, s.repomanager.Users(), post); err != nil {
		return nil, err
	}
	return post, nil
}

// ListFeed returns every post matching search, newest first, ranked by
// RankFeed for viewerID.
func (s *PostService) ListFeed(ctx context.Context, viewerID, search string) ([]*models.Post, error) {
	viewer, err := s.repomanager.Users().GetByID(ctx, viewerID)
	if err != nil {
		return nil, notFound("user", err)
	}

	search = strings.TrimSpace(search)
	posts, err := s.repomanager.Posts().Search(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	circle := append([]string{viewerID}, viewer.Friends...)
	ranked := RankFeed(posts, circle, search != "")
	if err := attachPostAuthors(ctx, s.repomanager.Users(), ranked...); err != nil {
		return nil, err
	}
	return ranked, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.repomanager.Posts().GetByID(ctx, id)
	if err != nil {
		return nil, notFound("post", err)
	}
	if err := attachPostAuthors(ctx, s.repomanager.Users(), post); err != nil {
		return nil, err
	}
	return post, nil
}

// ListUserPosts returns userID's posts, newest first.
func (s *PostService) ListUserPosts(ctx context.Context, userID string) ([]*models.Post, error) {
	posts, err := s.repomanager.Posts().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	if err := attachPostAuthors(ctx, s.repomanager.Users(), posts...); err != nil {
		return nil, err
	}
	return posts, nil
}

// TogglePostLike likes the post for userID, or unlikes it if already liked.
func (s *PostService) TogglePostLike(ctx context.Context, userID, postID string) (*models.Post, error) {
	post, err := s.repomanager.Posts().ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, notFound("post", err)
	}
	if err := attachPostAuthors(ctx, s.repomanager.Users(), post); err != nil {
		return nil, err
	}

	if post.LikedBy(userID) && post.UserID != userID {
		publish(ctx, s.notifier, post.UserID, notify.Event{
			Type:    notify.EventPostLiked,
			Payload: map[string]string{"postId": post.ID, "by": userID},
		})
	}
	return post, nil
}

// ToggleCommentLike likes or unlikes a comment for userID.
func (s *PostService) ToggleCommentLike(ctx context.Context, userID, commentID string) (*models.Comment, error) {
	comment, err := s.repomanager.Comments().ToggleLike(ctx, commentID, userID)
	if err != nil {
		return nil, notFound("comment", err)
	}
	if err := attachCommentAuthors(ctx, s.repomanager.Users(), comment); err != nil {
		return nil, err
	}

	if comment.LikedBy(userID) && comment.UserID != userID {
		publish(ctx, s.notifier, comment.UserID, notify.Event{
			Type:    notify.EventCommentLiked,
			Payload: map[string]string{"commentId": comment.ID, "postId": comment.PostID, "by": userID},
		})
	}
	return comment, nil
}

// ToggleReplyLike likes or unlikes one reply of a comment for userID. The
// likes of the comment and of its other replies are untouched.
func (s *PostService) ToggleReplyLike(ctx context.Context, userID, commentID, replyID string) (*models.Comment, error) {
	comment, err := s.repomanager.Comments().ToggleReplyLike(ctx, commentID, replyID, userID)
	if err != nil {
		return nil, notFound("reply", err)
	}
	if err := attachCommentAuthors(ctx, s.repomanager.Users(), comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// AddComment creates a comment on postID and appends its id to the post.
func (s *PostService) AddComment(ctx context.Context, postID, authorID, text, from string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, validationError("comment is required")
	}

	var post *models.Post
	var comment *models.Comment
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, m repomanager.RepositoryManager) error {
		var err error
		post, err = m.Posts().GetByID(ctx, postID)
		if err != nil {
			return notFound("post", err)
		}
		comment, err = m.Comments().Create(ctx, &models.Comment{
			PostID:  postID,
			UserID:  authorID,
			Comment: text,
			From:    from,
		})
		if err != nil {
			return fmt.Errorf("error creating comment: %w", err)
		}
		if err := m.Posts().AppendComment(ctx, postID, comment.ID); err != nil {
			return notFound("post", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := attachCommentAuthors(ctx, s.repomanager.Users(), comment); err != nil {
		return nil, err
	}
	if post.UserID != authorID {
		publish(ctx, s.notifier, post.UserID, notify.Event{
			Type:    notify.EventPostCommented,
			Payload: map[string]string{"postId": postID, "commentId": comment.ID, "by": authorID},
		})
	}
	return comment, nil
}

// AddReply appends a reply to commentID and returns the comment with all of
// its replies.
func (s *PostService) AddReply(ctx context.Context, commentID, authorID, text, replyAt, from string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, validationError("comment is required")
	}

	_, err := s.repomanager.Comments().AddReply(ctx, commentID, &models.Reply{
		UserID:  authorID,
		Comment: text,
		ReplyAt: replyAt,
		From:    from,
	})
	if err != nil {
		return nil, notFound("comment", err)
	}

	comment, err := s.repomanager.Comments().GetByID(ctx, commentID)
	if err != nil {
		return nil, notFound("comment", err)
	}
	if err := attachCommentAuthors(ctx, s.repomanager.Users(), comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns the comments of postID newest first, each with its
// replies oldest first.
func (s *PostService) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	comments, err := s.repomanager.Comments().ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error listing comments: %w", err)
	}
	if err := attachCommentAuthors(ctx, s.repomanager.Users(), comments...); err != nil {
		return nil, err
	}
	return comments, nil
}

// DeletePost removes a post owned by callerID. Its comments are kept.
func (s *PostService) DeletePost(ctx context.Context, callerID, id string) error {
	post, err := s.repomanager.Posts().GetByID(ctx, id)
	if err != nil {
		return notFound("post", err)
	}
	if post.UserID != callerID {
		return fmt.Errorf("%w: you can only delete your own posts", common.ErrorForbidden)
	}
	if err := s.repomanager.Posts().Delete(ctx, id); err != nil {
		return notFound("post", err)
	}
	s.log.Info(ctx, "post deleted", "post_id", id, "user_id", callerID)
	return nil
}
