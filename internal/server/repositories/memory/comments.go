package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/comments"
)

var _ comments.Repository = (*Comments)(nil)

type Comments struct{ v *View }

func (r *Comments) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	err := r.v.do(func(st *state) error {
		if c.ID == "" {
			c.ID = common.NewID()
		}
		c.CreatedAt = now()
		c.Likes = []string{}
		c.Replies = []models.Reply{}
		st.comments[c.ID] = cloneComment(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Comments) GetByID(_ context.Context, id string) (*models.Comment, error) {
	var out *models.Comment
	err := r.v.do(func(st *state) error {
		c, ok := st.comments[id]
		if !ok {
			return common.ErrorNotFound
		}
		out = cloneComment(c)
		return nil
	})
	return out, err
}

func (r *Comments) ListByPost(_ context.Context, postID string) ([]*models.Comment, error) {
	out := []*models.Comment{}
	err := r.v.do(func(st *state) error {
		for _, c := range st.comments {
			if c.PostID == postID {
				out = append(out, cloneComment(c))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	newestFirst(out, func(c *models.Comment) (time.Time, string) { return c.CreatedAt, c.ID })
	return out, nil
}

func (r *Comments) AddReply(_ context.Context, commentID string, reply *models.Reply) (*models.Reply, error) {
	err := r.v.do(func(st *state) error {
		c, ok := st.comments[commentID]
		if !ok {
			return common.ErrorNotFound
		}
		if reply.ID == "" {
			reply.ID = common.NewID()
		}
		reply.CreatedAt = now()
		reply.Likes = []string{}
		c.Replies = append(c.Replies, cloneReply(*reply))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (r *Comments) ToggleLike(_ context.Context, id string, userID string) (*models.Comment, error) {
	var out *models.Comment
	err := r.v.do(func(st *state) error {
		c, ok := st.comments[id]
		if !ok {
			return common.ErrorNotFound
		}
		c.Likes = toggle(c.Likes, userID)
		out = cloneComment(c)
		return nil
	})
	return out, err
}

func (r *Comments) ToggleReplyLike(_ context.Context, commentID string, replyID string, userID string) (*models.Comment, error) {
	var out *models.Comment
	err := r.v.do(func(st *state) error {
		c, ok := st.comments[commentID]
		if !ok {
			return common.ErrorNotFound
		}
		reply := c.FindReply(replyID)
		if reply == nil {
			return common.ErrorNotFound
		}
		reply.Likes = toggle(reply.Likes, userID)
		out = cloneComment(c)
		return nil
	})
	return out, err
}
