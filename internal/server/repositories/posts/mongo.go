package posts

import (
	"context"
	"regexp"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/mongox"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the Mongo collection holding posts.
const CollectionName = "posts"

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	return mongox.EnsureIndexes(ctx, r.coll,
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	)
}

func (r *MongoRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	if post.ID == "" {
		post.ID = common.NewID()
	}
	now := time.Now().UTC()
	post.CreatedAt, post.UpdatedAt = now, now
	post.Likes = []string{}
	post.Comments = []string{}

	if _, err := r.coll.InsertOne(ctx, post); err != nil {
		return nil, mongox.Translate(err)
	}
	return post, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	p := &models.Post{}
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(p); err != nil {
		return nil, mongox.Translate(err)
	}
	return p, nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	return mongox.FindAll[models.Post](ctx, r.coll, bson.M{"userId": userID}, options.Find().SetSort(newestFirst))
}

func (r *MongoRepository) Search(ctx context.Context, search string) ([]*models.Post, error) {
	filter := bson.M{}
	if search != "" {
		filter["description"] = primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	}
	return mongox.FindAll[models.Post](ctx, r.coll, filter, options.Find().SetSort(newestFirst))
}

func (r *MongoRepository) ToggleLike(ctx context.Context, id string, userID string) (*models.Post, error) {
	p := &models.Post{}
	err := mongox.ToggleMember(ctx, r.coll,
		bson.M{"_id": id, "likes": userID},
		bson.M{"_id": id, "likes": bson.M{"$ne": userID}},
		"likes", userID, p)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *MongoRepository) AppendComment(ctx context.Context, postID string, commentID string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{
		"$push": bson.M{"comments": commentID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return mongox.Translate(err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongox.Translate(err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}
