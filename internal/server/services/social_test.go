package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/gophsocial/internal/common"
	"github.com/dmitrijs2005/gophsocial/internal/server/models"
	"github.com/dmitrijs2005/gophsocial/internal/server/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendFriendRequest_ReverseDirectionConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.newUser(t, "alice"), env.newUser(t, "bob")

	fr, err := env.social.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, fr.Status)

	_, err = env.social.SendFriendRequest(ctx, b.ID, a.ID)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = env.social.SendFriendRequest(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	assert.Equal(t, []string{notify.EventFriendRequest}, env.notifier.types(b.ID))
}

func TestSendFriendRequest_AlreadyFriends(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.newUser(t, "alice"), env.newUser(t, "bob")
	require.NoError(t, env.rm.Users().AddFriend(ctx, a.ID, b.ID))
	require.NoError(t, env.rm.Users().AddFriend(ctx, b.ID, a.ID))

	_, err := env.social.SendFriendRequest(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.ErrorContains(t, err, "already friends")
	assert.Empty(t, env.notifier.types(b.ID))
}

func TestSendFriendRequest_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.newUser(t, "alice")

	_, err := env.social.SendFriendRequest(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = env.social.SendFriendRequest(ctx, a.ID, "")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = env.social.SendFriendRequest(ctx, a.ID, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRespondToRequest_AcceptIsSymmetric(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.newUser(t, "alice"), env.newUser(t, "bob")

	fr, err := env.social.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	got, err := env.social.RespondToRequest(ctx, b.ID, fr.ID, models.RequestStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, got.Status)

	ua, err := env.rm.Users().GetByID(ctx, a.ID)
	require.NoError(t, err)
	ub, err := env.rm.Users().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, ua.HasFriend(b.ID))
	assert.True(t, ub.HasFriend(a.ID))

	assert.Equal(t, []string{notify.EventFriendAccepted}, env.notifier.types(a.ID))

	_, err = env.social.RespondToRequest(ctx, b.ID, fr.ID, models.RequestStatusRejected)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists, "only pending requests can be answered")
}

func TestRespondToRequest_Reject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.newUser(t, "alice"), env.newUser(t, "bob")

	fr, err := env.social.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = env.social.RespondToRequest(ctx, b.ID, fr.ID, models.RequestStatusRejected)
	require.NoError(t, err)

	ua, err := env.rm.Users().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, ua.Friends)
	assert.Empty(t, env.notifier.types(a.ID))
}

func TestRespondToRequest_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b, c := env.newUser(t, "alice"), env.newUser(t, "bob"), env.newUser(t, "carol")

	fr, err := env.social.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = env.social.RespondToRequest(ctx, b.ID, fr.ID, models.RequestStatusPending)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = env.social.RespondToRequest(ctx, b.ID, fr.ID, models.RequestStatus("Maybe"))
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = env.social.RespondToRequest(ctx, b.ID, "missing", models.RequestStatusAccepted)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = env.social.RespondToRequest(ctx, c.ID, fr.ID, models.RequestStatusAccepted)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = env.social.RespondToRequest(ctx, a.ID, fr.ID, models.RequestStatusAccepted)
	assert.ErrorIs(t, err, common.ErrorForbidden, "the sender cannot accept their own request")

	stored, err := env.rm.FriendRequests().GetByID(ctx, fr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, stored.Status)
}

func TestListPendingRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	target := env.newUser(t, "target")

	for i := 0; i < common.PendingRequestsLimit+2; i++ {
		u := env.newUser(t, fmt.Sprintf("user%02d", i))
		_, err := env.social.SendFriendRequest(ctx, u.ID, target.ID)
		require.NoError(t, err)
	}

	list, err := env.social.ListPendingRequests(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, list, common.PendingRequestsLimit)
	assert.Equal(t, "user11", list[0].From.FirstName, "newest first")
	for _, fr := range list {
		require.NotNil(t, fr.From)
		assert.Equal(t, fr.RequestFrom, fr.From.ID)
	}

	_, err = env.social.RespondToRequest(ctx, target.ID, list[0].ID, models.RequestStatusRejected)
	require.NoError(t, err)
	list, err = env.social.ListPendingRequests(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, "user10", list[0].From.FirstName)
}

func TestRecordProfileView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.newUser(t, "alice"), env.newUser(t, "bob")

	err := env.social.RecordProfileView(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, common.ErrorValidation)
	ua, err := env.rm.Users().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, ua.Views, "self view is not recorded")

	require.NoError(t, env.social.RecordProfileView(ctx, b.ID, a.ID))
	require.NoError(t, env.social.RecordProfileView(ctx, b.ID, a.ID))
	ua, err = env.rm.Users().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, b.ID}, ua.Views)

	assert.ErrorIs(t, env.social.RecordProfileView(ctx, a.ID, "missing"), common.ErrorNotFound)
	assert.ErrorIs(t, env.social.RecordProfileView(ctx, a.ID, ""), common.ErrorValidation)
}

func TestSuggestFriends_ExcludesSelfAndFriends(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.newUser(t, "alice"), env.newUser(t, "bob")
	for i := 0; i < common.SuggestedFriendsLimit+3; i++ {
		env.newUser(t, fmt.Sprintf("stranger%02d", i))
	}
	env.befriend(t, a, b)

	got, err := env.social.SuggestFriends(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, got, common.SuggestedFriendsLimit)
	for _, p := range got {
		assert.NotEqual(t, a.ID, p.ID)
		assert.NotEqual(t, b.ID, p.ID)
	}
}
