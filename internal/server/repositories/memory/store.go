// Package memory implements every repository on process memory. It backs
// the memory:// DSN used for local runs and the service tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/server/models"
)

// Store holds all collections behind one mutex. Every repository call is
// atomic; WithTx holds the mutex for the whole callback and restores a
// snapshot when the callback fails.
type Store struct {
	mu    sync.Mutex
	state state
}

type state struct {
	users    map[string]*models.User
	requests map[string]*models.FriendRequest
	posts    map[string]*models.Post
	comments map[string]*models.Comment
	tokens   map[string]*models.Token
}

func NewStore() *Store {
	return &Store{state: state{
		users:    map[string]*models.User{},
		requests: map[string]*models.FriendRequest{},
		posts:    map[string]*models.Post{},
		comments: map[string]*models.Comment{},
		tokens:   map[string]*models.Token{},
	}}
}

// View is a handle on the store's repositories. Views handed out by WithTx
// run under the already held mutex.
type View struct {
	s    *Store
	held bool
}

// View returns a handle whose every call takes the mutex.
func (s *Store) View() *View {
	return &View{s: s}
}

func (v *View) Users() *Users                   { return &Users{v} }
func (v *View) FriendRequests() *FriendRequests { return &FriendRequests{v} }
func (v *View) Posts() *Posts                   { return &Posts{v} }
func (v *View) Comments() *Comments             { return &Comments{v} }
func (v *View) Tokens() *Tokens                 { return &Tokens{v} }

// do runs fn with exclusive access to the state.
func (v *View) do(fn func(st *state) error) error {
	if !v.held {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	return fn(&v.s.state)
}

// WithTx runs fn with exclusive access to the store. If fn returns an error
// or panics, every change it made is discarded.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, v *View) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
		if err != nil {
			s.state = snapshot
		}
	}()

	return fn(ctx, &View{s: s, held: true})
}

func (st *state) clone() state {
	return state{
		users:    cloneMap(st.users, cloneUser),
		requests: cloneMap(st.requests, cloneRequest),
		posts:    cloneMap(st.posts, clonePost),
		comments: cloneMap(st.comments, cloneComment),
		tokens:   cloneMap(st.tokens, cloneToken),
	}
}

func cloneMap[T any](m map[string]*T, clone func(*T) *T) map[string]*T {
	out := make(map[string]*T, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Friends = cloneStrings(u.Friends)
	c.Views = cloneStrings(u.Views)
	return &c
}

func cloneRequest(fr *models.FriendRequest) *models.FriendRequest {
	c := *fr
	c.From = nil
	return &c
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Likes = cloneStrings(p.Likes)
	c.Comments = cloneStrings(p.Comments)
	c.Author = nil
	return &c
}

func cloneReply(r models.Reply) models.Reply {
	r.Likes = cloneStrings(r.Likes)
	r.Author = nil
	return r
}

func cloneComment(cm *models.Comment) *models.Comment {
	c := *cm
	c.Likes = cloneStrings(cm.Likes)
	c.Replies = make([]models.Reply, 0, len(cm.Replies))
	for _, r := range cm.Replies {
		c.Replies = append(c.Replies, cloneReply(r))
	}
	c.Author = nil
	return &c
}

func cloneToken(t *models.Token) *models.Token {
	c := *t
	return &c
}

// toggle removes id from set when present and appends it otherwise.
func toggle(set []string, id string) []string {
	if i := slices.Index(set, id); i >= 0 {
		return slices.Delete(set, i, i+1)
	}
	return append(set, id)
}

// newestFirst orders by creation time, then by id; ids are time ordered.
func newestFirst[T any](items []*T, key func(*T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, ii := key(items[i])
		tj, ij := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return ii > ij
	})
}

func now() time.Time {
	return time.Now().UTC()
}
