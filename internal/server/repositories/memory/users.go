package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/users"
)

var _ users.Repository = (*Users)(nil)

type Users struct{ v *View }

func (r *Users) Create(_ context.Context, user *models.User) (*models.User, error) {
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, user.Email) {
				return common.ErrorAlreadyExists
			}
		}
		if user.ID == "" {
			user.ID = common.NewID()
		}
		t := now()
		user.CreatedAt, user.UpdatedAt = t, t
		user.Friends = cloneStrings(user.Friends)
		user.Views = cloneStrings(user.Views)
		st.users[user.ID] = cloneUser(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Users) GetByID(_ context.Context, id string) (*models.User, error) {
	var out *models.User
	err := r.v.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return common.ErrorNotFound
		}
		out = cloneUser(u)
		return nil
	})
	return out, err
}

func (r *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				out = cloneUser(u)
				return nil
			}
		}
		return common.ErrorNotFound
	})
	return out, err
}

func (r *Users) GetProfiles(_ context.Context, ids []string) (map[string]*models.PublicProfile, error) {
	out := make(map[string]*models.PublicProfile, len(ids))
	err := r.v.do(func(st *state) error {
		for _, id := range ids {
			if u, ok := st.users[id]; ok {
				out[id] = u.Profile()
			}
		}
		return nil
	})
	return out, err
}

func (r *Users) Suggest(_ context.Context, userID string, limit int) ([]*models.PublicProfile, error) {
	out := []*models.PublicProfile{}
	err := r.v.do(func(st *state) error {
		candidates := make([]*models.User, 0, len(st.users))
		for _, u := range st.users {
			if u.ID != userID && !slices.Contains(u.Friends, userID) {
				candidates = append(candidates, u)
			}
		}
		newestFirst(candidates, func(u *models.User) (t time.Time, id string) { return u.CreatedAt, u.ID })
		for _, u := range candidates {
			if len(out) == limit {
				break
			}
			out = append(out, u.Profile())
		}
		return nil
	})
	return out, err
}

func (r *Users) Update(_ context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	var out *models.User
	err := r.v.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return common.ErrorNotFound
		}
		set := func(dst *string, v string) {
			if v != "" {
				*dst = v
			}
		}
		set(&u.FirstName, upd.FirstName)
		set(&u.LastName, upd.LastName)
		set(&u.Location, upd.Location)
		set(&u.Profession, upd.Profession)
		set(&u.ProfileURL, upd.ProfileURL)
		u.UpdatedAt = now()
		out = cloneUser(u)
		return nil
	})
	return out, err
}

func (r *Users) mutate(id string, fn func(u *models.User)) error {
	return r.v.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return common.ErrorNotFound
		}
		fn(u)
		return nil
	})
}

func (r *Users) SetVerified(_ context.Context, id string) error {
	return r.mutate(id, func(u *models.User) { u.Verified = true; u.UpdatedAt = now() })
}

func (r *Users) SetPassword(_ context.Context, id string, hash string) error {
	return r.mutate(id, func(u *models.User) { u.PasswordHash = hash; u.UpdatedAt = now() })
}

func (r *Users) AddFriend(_ context.Context, userID string, friendID string) error {
	return r.mutate(userID, func(u *models.User) {
		if !slices.Contains(u.Friends, friendID) {
			u.Friends = append(u.Friends, friendID)
			u.UpdatedAt = now()
		}
	})
}

func (r *Users) AppendView(_ context.Context, userID string, viewerID string) error {
	return r.mutate(userID, func(u *models.User) { u.Views = append(u.Views, viewerID) })
}

func (r *Users) Delete(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return common.ErrorNotFound
		}
		delete(st.users, id)
		return nil
	})
}
