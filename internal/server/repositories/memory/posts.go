package memory

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/posts"
)

var _ posts.Repository = (*Posts)(nil)

type Posts struct{ v *View }

func (r *Posts) Create(_ context.Context, post *models.Post) (*models.Post, error) {
	err := r.v.do(func(st *state) error {
		if post.ID == "" {
			post.ID = common.NewID()
		}
		t := now()
		post.CreatedAt, post.UpdatedAt = t, t
		post.Likes = []string{}
		post.Comments = []string{}
		st.posts[post.ID] = clonePost(post)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *Posts) GetByID(_ context.Context, id string) (*models.Post, error) {
	var out *models.Post
	err := r.v.do(func(st *state) error {
		p, ok := st.posts[id]
		if !ok {
			return common.ErrorNotFound
		}
		out = clonePost(p)
		return nil
	})
	return out, err
}

func (r *Posts) filter(match func(p *models.Post) bool) ([]*models.Post, error) {
	out := []*models.Post{}
	err := r.v.do(func(st *state) error {
		for _, p := range st.posts {
			if match(p) {
				out = append(out, clonePost(p))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	newestFirst(out, func(p *models.Post) (time.Time, string) { return p.CreatedAt, p.ID })
	return out, nil
}

func (r *Posts) ListByUser(_ context.Context, userID string) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool { return p.UserID == userID })
}

func (r *Posts) Search(_ context.Context, search string) ([]*models.Post, error) {
	needle := strings.ToLower(search)
	return r.filter(func(p *models.Post) bool {
		return strings.Contains(strings.ToLower(p.Description), needle)
	})
}

func (r *Posts) ToggleLike(_ context.Context, id string, userID string) (*models.Post, error) {
	var out *models.Post
	err := r.v.do(func(st *state) error {
		p, ok := st.posts[id]
		if !ok {
			return common.ErrorNotFound
		}
		p.Likes = toggle(p.Likes, userID)
		p.UpdatedAt = now()
		out = clonePost(p)
		return nil
	})
	return out, err
}

func (r *Posts) AppendComment(_ context.Context, postID string, commentID string) error {
	return r.v.do(func(st *state) error {
		p, ok := st.posts[postID]
		if !ok {
			return common.ErrorNotFound
		}
		p.Comments = append(p.Comments, commentID)
		p.UpdatedAt = now()
		return nil
	})
}

func (r *Posts) Delete(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.posts[id]; !ok {
			return common.ErrorNotFound
		}
		delete(st.posts, id)
		return nil
	})
}
