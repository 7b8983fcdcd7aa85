package friendrequests

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/mongox"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the Mongo collection holding friend requests.
const CollectionName = "friend_requests"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the lookup indexes used by ListPending and
// ExistsBetween.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	return mongox.EnsureIndexes(ctx, r.coll,
		mongo.IndexModel{Keys: bson.D{{Key: "requestTo", Value: 1}, {Key: "requestStatus", Value: 1}, {Key: "_id", Value: -1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "requestFrom", Value: 1}, {Key: "requestTo", Value: 1}}},
	)
}

func (r *MongoRepository) Create(ctx context.Context, fr *models.FriendRequest) (*models.FriendRequest, error) {
	if fr.ID == "" {
		fr.ID = common.NewID()
	}
	if fr.Status == "" {
		fr.Status = models.RequestStatusPending
	}
	now := time.Now().UTC()
	fr.CreatedAt, fr.UpdatedAt = now, now

	if _, err := r.coll.InsertOne(ctx, fr); err != nil {
		return nil, mongox.Translate(err)
	}
	return fr, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	fr := &models.FriendRequest{}
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(fr); err != nil {
		return nil, mongox.Translate(err)
	}
	return fr, nil
}

func (r *MongoRepository) ExistsBetween(ctx context.Context, a string, b string) (bool, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"requestFrom": a, "requestTo": b},
		bson.M{"requestFrom": b, "requestTo": a},
	}}
	err := r.coll.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, mongox.Translate(err)
	}
	return true, nil
}

func (r *MongoRepository) ListPending(ctx context.Context, to string, limit int) ([]*models.FriendRequest, error) {
	filter := bson.M{"requestTo": to, "requestStatus": models.RequestStatusPending}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return mongox.FindAll[models.FriendRequest](ctx, r.coll, filter, opts)
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, id string, from models.RequestStatus, to models.RequestStatus) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "requestStatus": from},
		bson.M{"$set": bson.M{"requestStatus": to, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return mongox.Translate(err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}
