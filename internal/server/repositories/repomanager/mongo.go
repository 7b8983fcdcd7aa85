package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/mongox"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/comments"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/friendrequests"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/posts"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/gophsocial/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoRepositoryManager vends MongoDB-backed repositories. Transactions
// travel in the context, so the same repositories serve inside WithTx.
type MongoRepositoryManager struct {
	client         *mongo.Client
	users          *users.MongoRepository
	friendRequests *friendrequests.MongoRepository
	posts          *posts.MongoRepository
	comments       *comments.MongoRepository
	tokens         *tokens.MongoRepository
}

// NewMongoRepositoryManager binds repositories to database db of client.
func NewMongoRepositoryManager(client *mongo.Client, db *mongo.Database) *MongoRepositoryManager {
	return &MongoRepositoryManager{
		client:         client,
		users:          users.NewMongoRepository(db),
		friendRequests: friendrequests.NewMongoRepository(db),
		posts:          posts.NewMongoRepository(db),
		comments:       comments.NewMongoRepository(db),
		tokens:         tokens.NewMongoRepository(db),
	}
}

// OpenMongo connects to uri and uses database dbName.
func OpenMongo(ctx context.Context, uri string, dbName string) (*MongoRepositoryManager, error) {
	client, err := mongox.Connect(ctx, uri)
	if err != nil {
		return nil, err
	}
	return NewMongoRepositoryManager(client, client.Database(dbName)), nil
}

func (m *MongoRepositoryManager) Users() users.Repository                   { return m.users }
func (m *MongoRepositoryManager) FriendRequests() friendrequests.Repository { return m.friendRequests }
func (m *MongoRepositoryManager) Posts() posts.Repository                   { return m.posts }
func (m *MongoRepositoryManager) Comments() comments.Repository             { return m.comments }
func (m *MongoRepositoryManager) Tokens() tokens.Repository                 { return m.tokens }

// WithTx runs fn in a multi-document transaction (replica set required).
func (m *MongoRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error {
	if mongox.InTx(ctx) {
		return common.ErrorAlreadyInTransaction
	}
	return mongox.WithTx(ctx, m.client, func(ctx context.Context) error {
		return fn(ctx, m)
	})
}

// RunMigrations creates the collection indexes.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	for _, ensure := range []func(context.Context) error{
		m.users.EnsureIndexes,
		m.friendRequests.EnsureIndexes,
		m.posts.EnsureIndexes,
		m.comments.EnsureIndexes,
		m.tokens.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoRepositoryManager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}
