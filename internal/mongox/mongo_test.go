package mongox

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type doc struct {
	ID   string `bson:"_id"`
	Name string `bson:"name"`
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, Translate(nil))
	assert.ErrorIs(t, Translate(mongo.ErrNoDocuments), common.ErrorNotFound)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "dup"}}}
	assert.ErrorIs(t, Translate(dup), common.ErrorAlreadyExists)

	err := Translate(errors.New("boom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: boom")
}

func TestIn_NilBecomesEmptyArray(t *testing.T) {
	got := In(nil)
	assert.Equal(t, []string{}, got["$in"])
}

func TestFindAll(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes every batch", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "a"}, {Key: "name", Value: "Ada"}})
		next := mtest.CreateCursorResponse(0, ns, mtest.NextBatch,
			bson.D{{Key: "_id", Value: "b"}, {Key: "name", Value: "Bob"}})
		mt.AddMockResponses(first, next)

		got, err := FindAll[doc](context.Background(), mt.Coll, bson.M{})
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "Ada", got[0].Name)
		assert.Equal(mt, "b", got[1].ID)
	})

	mt.Run("empty result is non-nil", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		got, err := FindAll[doc](context.Background(), mt.Coll, bson.M{})
		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)
	})

	mt.Run("command error is wrapped", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query"}))

		_, err := FindAll[doc](context.Background(), mt.Coll, bson.M{})
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "db error")
	})
}

func TestEnsureIndexes_NoModels(t *testing.T) {
	assert.NoError(t, EnsureIndexes(context.Background(), nil))
}

func TestToggleMember(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	type liked struct {
		ID    string   `bson:"_id"`
		Likes []string `bson:"likes"`
	}

	mt.Run("present value is pulled", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "p1"}, {Key: "likes", Value: bson.A{}},
		}}))

		var out liked
		err := ToggleMember(ctx, mt.Coll, bson.M{"_id": "p1", "likes": "u1"}, bson.M{"_id": "p1"}, "likes", "u1", &out)
		require.NoError(mt, err)
		assert.Empty(mt, out.Likes)
	})

	mt.Run("absent value is added", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: "p1"}, {Key: "likes", Value: bson.A{"u1"}},
			}}),
		)

		var out liked
		err := ToggleMember(ctx, mt.Coll, bson.M{"_id": "p1", "likes": "u1"}, bson.M{"_id": "p1"}, "likes", "u1", &out)
		require.NoError(mt, err)
		assert.Equal(mt, []string{"u1"}, out.Likes)
	})

	mt.Run("missing document", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
		)

		var out liked
		err := ToggleMember(ctx, mt.Coll, bson.M{"_id": "p1"}, bson.M{"_id": "p1"}, "likes", "u1", &out)
		assert.ErrorIs(mt, err, common.ErrorNotFound)
	})
}
