package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/mongox"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the Mongo collection holding user tokens.
const CollectionName = "user_tokens"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	return mongox.EnsureIndexes(ctx, r.coll,
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "kind", Value: 1}}},
		mongo.IndexModel{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	)
}

func (r *MongoRepository) Create(ctx context.Context, token *models.Token) error {
	if token.ID == "" {
		token.ID = common.NewID()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, token); err != nil {
		return mongox.Translate(err)
	}
	return nil
}

func (r *MongoRepository) Find(ctx context.Context, userID string, kind models.TokenKind) (*models.Token, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.findOne(ctx, bson.M{"userId": userID, "kind": kind}, opts)
}

func (r *MongoRepository) FindByHash(ctx context.Context, kind models.TokenKind, hash string) (*models.Token, error) {
	return r.findOne(ctx, bson.M{"kind": kind, "hash": hash})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.Token, error) {
	t := &models.Token{}
	if err := r.coll.FindOne(ctx, filter, opts...).Decode(t); err != nil {
		return nil, mongox.Translate(err)
	}
	return t, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return mongox.Translate(err)
	}
	return nil
}

func (r *MongoRepository) DeleteByUser(ctx context.Context, userID string, kind models.TokenKind) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID, "kind": kind}); err != nil {
		return mongox.Translate(err)
	}
	return nil
}

func (r *MongoRepository) ExpiredUserIDs(ctx context.Context, kind models.TokenKind, now time.Time) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "userId", bson.M{"kind": kind, "expiresAt": bson.M{"$lte": now}})
	if err != nil {
		return nil, mongox.Translate(err)
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		id, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("db error: unexpected user id type %T", v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
