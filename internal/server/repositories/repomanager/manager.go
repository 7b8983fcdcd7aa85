// Package repomanager wires the repositories of one storage backend together
// and gives services a single handle for queries, transactions and
// migrations.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophsocial/internal/server/config"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/comments"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/friendrequests"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/posts"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/users"
)

// RepositoryManager vends the repositories of one backend.
//
// WithTx runs fn in a storage transaction; the manager passed to fn is
// bound to it and must be used for every call that belongs to the
// transaction. Nested transactions are refused with
// common.ErrorAlreadyInTransaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	FriendRequests() friendrequests.Repository
	Posts() posts.Repository
	Comments() comments.Repository
	Tokens() tokens.Repository
	WithTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the backend named by cfg.DatabaseDSN.
func Open(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.Backend() {
	case config.BackendPostgres:
		return OpenPostgres(ctx, cfg.DatabaseDSN)
	case config.BackendMongo:
		return OpenMongo(ctx, cfg.DatabaseDSN, cfg.MongoDatabase)
	case config.BackendMemory:
		return NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unsupported database DSN %q", cfg.DatabaseDSN)
	}
}
