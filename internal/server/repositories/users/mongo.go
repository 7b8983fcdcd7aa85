package users

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

// CollectionName is the Mongo collection holding users.
const CollectionName = "users"

var profileProjection = bson.M{
	"firstName": 1, "lastName": 1, "location": 1, "profession": 1, "profileUrl": 1,
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique email index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	return mongox.EnsureIndexes(ctx, r.coll, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
}

func (r *MongoRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = common.NewID()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Friends == nil {
		user.Friends = []string{}
	}
	if user.Views == nil {
		user.Views = []string{}
	}

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return nil, mongox.Translate(err)
	}
	return user, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	u := &models.User{}
	if err := r.coll.FindOne(ctx, filter).Decode(u); err != nil {
		return nil, mongox.Translate(err)
	}
	return u, nil
}

func (r *MongoRepository) GetProfiles(ctx context.Context, ids []string) (map[string]*models.PublicProfile, error) {
	out := make(map[string]*models.PublicProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	profiles, err := mongox.FindAll[models.PublicProfile](ctx, r.coll,
		bson.M{"_id": mongox.In(ids)}, options.Find().SetProjection(profileProjection))
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

func (r *MongoRepository) Suggest(ctx context.Context, userID string, limit int) ([]*models.PublicProfile, error) {
	filter := bson.M{
		"_id":     bson.M{"$ne": userID},
		"friends": bson.M{"$nin": []string{userID}},
	}
	opts := options.Find().
		SetProjection(profileProjection).
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	return mongox.FindAll[models.PublicProfile](ctx, r.coll, filter, opts)
}

func (r *MongoRepository) Update(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for key, v := range map[string]string{
		"firstName":  upd.FirstName,
		"lastName":   upd.LastName,
		"location":   upd.Location,
		"profession": upd.Profession,
		"profileUrl": upd.ProfileURL,
	} {
		if v != "" {
			set[key] = v
		}
	}

	u := &models.User{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(u); err != nil {
		return nil, mongox.Translate(err)
	}
	return u, nil
}

func (r *MongoRepository) SetVerified(ctx context.Context, id string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"verified": true, "updatedAt": time.Now().UTC()}})
}

func (r *MongoRepository) SetPassword(ctx context.Context, id string, hash string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()}})
}

func (r *MongoRepository) AddFriend(ctx context.Context, userID string, friendID string) error {
	return r.updateOne(ctx, userID, bson.M{
		"$addToSet": bson.M{"friends": friendID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *MongoRepository) AppendView(ctx context.Context, userID string, viewerID string) error {
	return r.updateOne(ctx, userID, bson.M{"$push": bson.M{"views": viewerID}})
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

func (r *MongoRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return mongox.Translate(err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}
