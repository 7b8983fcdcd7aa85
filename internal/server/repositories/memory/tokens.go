package memory

import (
	"context"
	"slices"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/tokens"
)

var _ tokens.Repository = (*Tokens)(nil)

type Tokens struct{ v *View }

func (r *Tokens) Create(_ context.Context, token *models.Token) error {
	return r.v.do(func(st *state) error {
		for _, t := range st.tokens {
			if t.Kind == token.Kind && t.Hash == token.Hash {
				return common.ErrorAlreadyExists
			}
		}
		if token.ID == "" {
			token.ID = common.NewID()
		}
		if token.CreatedAt.IsZero() {
			token.CreatedAt = now()
		}
		st.tokens[token.ID] = cloneToken(token)
		return nil
	})
}

func (r *Tokens) Find(_ context.Context, userID string, kind models.TokenKind) (*models.Token, error) {
	var out *models.Token
	err := r.v.do(func(st *state) error {
		for _, t := range st.tokens {
			if t.UserID != userID || t.Kind != kind {
				continue
			}
			if out == nil || t.CreatedAt.After(out.CreatedAt) || (t.CreatedAt.Equal(out.CreatedAt) && t.ID > out.ID) {
				out = t
			}
		}
		if out == nil {
			return common.ErrorNotFound
		}
		out = cloneToken(out)
		return nil
	})
	return out, err
}

func (r *Tokens) FindByHash(_ context.Context, kind models.TokenKind, hash string) (*models.Token, error) {
	var out *models.Token
	err := r.v.do(func(st *state) error {
		for _, t := range st.tokens {
			if t.Kind == kind && t.Hash == hash {
				out = cloneToken(t)
				return nil
			}
		}
		return common.ErrorNotFound
	})
	return out, err
}

func (r *Tokens) Delete(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		delete(st.tokens, id)
		return nil
	})
}

func (r *Tokens) DeleteByUser(_ context.Context, userID string, kind models.TokenKind) error {
	return r.v.do(func(st *state) error {
		for id, t := range st.tokens {
			if t.UserID == userID && t.Kind == kind {
				delete(st.tokens, id)
			}
		}
		return nil
	})
}

func (r *Tokens) ExpiredUserIDs(_ context.Context, kind models.TokenKind, at time.Time) ([]string, error) {
	ids := []string{}
	err := r.v.do(func(st *state) error {
		for _, t := range st.tokens {
			if t.Kind == kind && t.Expired(at) && !slices.Contains(ids, t.UserID) {
				ids = append(ids, t.UserID)
			}
		}
		return nil
	})
	slices.Sort(ids)
	return ids, err
}
