package users

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func userDoc(id, email string, friends ...string) bson.D {
	if friends == nil {
		friends = []string{}
	}
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "firstName", Value: "Ada"},
		{Key: "lastName", Value: "Lovelace"},
		{Key: "email", Value: email},
		{Key: "password", Value: "hash"},
		{Key: "friends", Value: friends},
		{Key: "views", Value: []string{}},
		{Key: "verified", Value: true},
	}
}

func ns(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + CollectionName
}

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("Create assigns id and empty sets", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u, err := repo.Create(ctx, &models.User{Email: "ada@example.com"})
		require.NoError(mt, err)
		assert.NotEmpty(mt, u.ID)
		assert.NotNil(mt, u.Friends)
		assert.NotNil(mt, u.Views)
	})

	mt.Run("Create duplicate email", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		_, err := repo.Create(ctx, &models.User{Email: "ada@example.com"})
		assert.ErrorIs(mt, err, common.ErrorAlreadyExists)
	})

	mt.Run("GetByID found", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, userDoc("u-1", "ada@example.com", "u-2")))

		u, err := repo.GetByID(ctx, "u-1")
		require.NoError(mt, err)
		assert.Equal(mt, "u-1", u.ID)
		assert.Equal(mt, "hash", u.PasswordHash)
		assert.Equal(mt, []string{"u-2"}, u.Friends)
		assert.True(mt, u.Verified)
	})

	mt.Run("GetByEmail not found", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		_, err := repo.GetByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(mt, err, common.ErrorNotFound)
	})

	mt.Run("GetProfiles keyed by id", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "u-1"}, {Key: "firstName", Value: "Ada"}},
			bson.D{{Key: "_id", Value: "u-2"}, {Key: "firstName", Value: "Alan"}},
		))

		got, err := repo.GetProfiles(ctx, []string{"u-1", "u-2"})
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "Alan", got["u-2"].FirstName)
	})

	mt.Run("Suggest", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "u-3"}, {Key: "firstName", Value: "Grace"}},
		))

		got, err := repo.Suggest(ctx, "u-1", 15)
		require.NoError(mt, err)
		require.Len(mt, got, 1)
		assert.Equal(mt, "u-3", got[0].ID)
	})

	mt.Run("Update returns document after", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		doc := userDoc("u-1", "ada@example.com")
		doc = append(doc, bson.E{Key: "location", Value: "Paris"})
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc}))

		u, err := repo.Update(ctx, "u-1", models.ProfileUpdate{Location: "Paris"})
		require.NoError(mt, err)
		assert.Equal(mt, "Paris", u.Location)
	})

	mt.Run("AddFriend matched", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(mt, repo.AddFriend(ctx, "u-1", "u-2"))
	})

	mt.Run("AppendView on missing user", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.AppendView(ctx, "ghost", "u-2")
		assert.ErrorIs(mt, err, common.ErrorNotFound)
	})

	mt.Run("SetVerified and SetPassword", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		require.NoError(mt, repo.SetVerified(ctx, "u-1"))
		require.NoError(mt, repo.SetPassword(ctx, "u-1", "new-hash"))
	})

	mt.Run("Delete", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		require.NoError(mt, repo.Delete(ctx, "u-1"))
		assert.ErrorIs(mt, repo.Delete(ctx, "u-1"), common.ErrorNotFound)
	})

	mt.Run("command error is wrapped", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad"}))

		err := repo.SetVerified(ctx, "u-1")
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, common.ErrorNotFound))
		assert.Contains(mt, err.Error(), "db error")
	})

	mt.Run("EnsureIndexes", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(mt, repo.EnsureIndexes(ctx))
	})
}
