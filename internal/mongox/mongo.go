// Package mongox holds the MongoDB helpers shared by the document-store
// repositories: connecting, running transactions, and translating driver
// errors into the common sentinels.
package mongox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// Connect opens a client for uri and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// WithTx runs fn inside a multi-document transaction. The context passed to
// fn carries the session; repository calls made with it join the
// transaction. Requires a replica set.
func WithTx(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

// InTx reports whether ctx already carries a session.
func InTx(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}

// Translate maps driver errors to common sentinels. Other errors are
// wrapped as db errors.
func Translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return common.ErrorNotFound
	case mongo.IsDuplicateKeyError(err):
		return common.ErrorAlreadyExists
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

// EnsureIndexes creates the given indexes on coll; existing indexes with the
// same definition are left alone.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection, models ...mongo.IndexModel) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
	}
	return nil
}

// FindAll runs find on coll and decodes every document into a new T.
func FindAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, Translate(err)
	}
	defer cur.Close(ctx)

	out := []*T{}
	for cur.Next(ctx) {
		v := new(T)
		if err := cur.Decode(v); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, v)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// ToggleMember flips membership of value in the array at path. The
// document matched by present loses value; otherwise the document matched by
// absent gains it. Each branch is one atomic update and out receives the
// document as it is after the change. When neither filter matches the
// result is common.ErrorNotFound.
func ToggleMember(ctx context.Context, coll *mongo.Collection, present, absent bson.M, path string, value string, out any) error {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err := coll.FindOneAndUpdate(ctx, present, bson.M{"$pull": bson.M{path: value}}, opts).Decode(out)
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return Translate(err)
	}

	err = coll.FindOneAndUpdate(ctx, absent, bson.M{"$addToSet": bson.M{path: value}}, opts).Decode(out)
	return Translate(err)
}

// In builds an {$in: values} operand.
func In(values []string) bson.M {
	if values == nil {
		values = []string{}
	}
	return bson.M{"$in": values}
}
