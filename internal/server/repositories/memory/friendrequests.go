package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/friendrequests"
)

var _ friendrequests.Repository = (*FriendRequests)(nil)

type FriendRequests struct{ v *View }

func (r *FriendRequests) Create(_ context.Context, fr *models.FriendRequest) (*models.FriendRequest, error) {
	err := r.v.do(func(st *state) error {
		if fr.ID == "" {
			fr.ID = common.NewID()
		}
		if fr.Status == "" {
			fr.Status = models.RequestStatusPending
		}
		t := now()
		fr.CreatedAt, fr.UpdatedAt = t, t
		st.requests[fr.ID] = cloneRequest(fr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fr, nil
}

func (r *FriendRequests) GetByID(_ context.Context, id string) (*models.FriendRequest, error) {
	var out *models.FriendRequest
	err := r.v.do(func(st *state) error {
		fr, ok := st.requests[id]
		if !ok {
			return common.ErrorNotFound
		}
		out = cloneRequest(fr)
		return nil
	})
	return out, err
}

func (r *FriendRequests) ExistsBetween(_ context.Context, a string, b string) (bool, error) {
	var found bool
	err := r.v.do(func(st *state) error {
		for _, fr := range st.requests {
			if (fr.RequestFrom == a && fr.RequestTo == b) || (fr.RequestFrom == b && fr.RequestTo == a) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *FriendRequests) ListPending(_ context.Context, to string, limit int) ([]*models.FriendRequest, error) {
	out := []*models.FriendRequest{}
	err := r.v.do(func(st *state) error {
		for _, fr := range st.requests {
			if fr.RequestTo == to && fr.Status == models.RequestStatusPending {
				out = append(out, cloneRequest(fr))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	newestFirst(out, func(fr *models.FriendRequest) (time.Time, string) { return fr.CreatedAt, fr.ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *FriendRequests) UpdateStatus(_ context.Context, id string, from models.RequestStatus, to models.RequestStatus) error {
	return r.v.do(func(st *state) error {
		fr, ok := st.requests[id]
		if !ok || fr.Status != from {
			return common.ErrorNotFound
		}
		fr.Status = to
		fr.UpdatedAt = now()
		return nil
	})
}
