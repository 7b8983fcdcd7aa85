package comments

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/mongox"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the Mongo collection holding comments. Replies are
// embedded in their comment document.
const CollectionName = "comments"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	return mongox.EnsureIndexes(ctx, r.coll,
		mongo.IndexModel{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: -1}}},
	)
}

func (r *MongoRepository) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	if c.ID == "" {
		c.ID = common.NewID()
	}
	c.CreatedAt = time.Now().UTC()
	c.Likes = []string{}
	c.Replies = []models.Reply{}

	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		return nil, mongox.Translate(err)
	}
	return c, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	c := &models.Comment{}
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(c); err != nil {
		return nil, mongox.Translate(err)
	}
	return c, nil
}

func (r *MongoRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return mongox.FindAll[models.Comment](ctx, r.coll, bson.M{"postId": postID}, opts)
}

func (r *MongoRepository) AddReply(ctx context.Context, commentID string, reply *models.Reply) (*models.Reply, error) {
	if reply.ID == "" {
		reply.ID = common.NewID()
	}
	reply.CreatedAt = time.Now().UTC()
	reply.Likes = []string{}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": commentID}, bson.M{"$push": bson.M{"replies": reply}})
	if err != nil {
		return nil, mongox.Translate(err)
	}
	if res.MatchedCount == 0 {
		return nil, common.ErrorNotFound
	}
	return reply, nil
}

func (r *MongoRepository) ToggleLike(ctx context.Context, id string, userID string) (*models.Comment, error) {
	c := &models.Comment{}
	err := mongox.ToggleMember(ctx, r.coll,
		bson.M{"_id": id, "likes": userID},
		bson.M{"_id": id, "likes": bson.M{"$ne": userID}},
		"likes", userID, c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ToggleReplyLike addresses the reply through $elemMatch so the positional
// operator updates only that element.
func (r *MongoRepository) ToggleReplyLike(ctx context.Context, commentID string, replyID string, userID string) (*models.Comment, error) {
	c := &models.Comment{}
	err := mongox.ToggleMember(ctx, r.coll,
		bson.M{"_id": commentID, "replies": bson.M{"$elemMatch": bson.M{"_id": replyID, "likes": userID}}},
		bson.M{"_id": commentID, "replies": bson.M{"$elemMatch": bson.M{"_id": replyID, "likes": bson.M{"$ne": userID}}}},
		"replies.$.likes", userID, c)
	if err != nil {
		return nil, err
	}
	return c, nil
}
