package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/comments"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/friendrequests"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/posts"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/users"
)

// MemoryRepositoryManager vends repositories over a process-local store.
type MemoryRepositoryManager struct {
	store *memory.Store
	view  *memory.View
	inTx  bool
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	s := memory.NewStore()
	return &MemoryRepositoryManager{store: s, view: s.View()}
}

func (m *MemoryRepositoryManager) Users() users.Repository { return m.view.Users() }
func (m *MemoryRepositoryManager) FriendRequests() friendrequests.Repository {
	return m.view.FriendRequests()
}
func (m *MemoryRepositoryManager) Posts() posts.Repository       { return m.view.Posts() }
func (m *MemoryRepositoryManager) Comments() comments.Repository { return m.view.Comments() }
func (m *MemoryRepositoryManager) Tokens() tokens.Repository     { return m.view.Tokens() }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error {
	if m.inTx {
		return common.ErrorAlreadyInTransaction
	}
	return m.store.WithTx(ctx, func(ctx context.Context, v *memory.View) error {
		return fn(ctx, &MemoryRepositoryManager{store: m.store, view: v, inTx: true})
	})
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Ping(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close(context.Context) error { return nil }
