package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_JSONHidesPassword(t *testing.T) {
	u := &User{ID: "u1", Email: "a@b.c", PasswordHash: "$2a$10$secret"}
	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "password")
}

func TestUser_ProfileDropsCredentials(t *testing.T) {
	u := &User{ID: "u1", FirstName: "Ada", Email: "ada@example.com", PasswordHash: "h", Profession: "engineer"}
	p := u.Profile()
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, "engineer", p.Profession)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "ada@example.com")
}

func TestUser_HasFriend(t *testing.T) {
	u := &User{Friends: []string{"a", "b"}}
	assert.True(t, u.HasFriend("b"))
	assert.False(t, u.HasFriend("c"))
}

func TestProfileUpdate_IsEmpty(t *testing.T) {
	assert.True(t, ProfileUpdate{}.IsEmpty())
	assert.False(t, ProfileUpdate{Location: "Riga"}.IsEmpty())
}

func TestRequestStatus_IsResponse(t *testing.T) {
	assert.True(t, RequestStatusAccepted.IsResponse())
	assert.True(t, RequestStatusRejected.IsResponse())
	assert.False(t, RequestStatusPending.IsResponse())
	assert.False(t, RequestStatus("Maybe").IsResponse())
}

func TestComment_FindReply(t *testing.T) {
	c := &Comment{Replies: []Reply{{ID: "r1"}, {ID: "r2"}}}
	r := c.FindReply("r2")
	require.NotNil(t, r)
	r.Likes = append(r.Likes, "u1")
	assert.Equal(t, []string{"u1"}, c.Replies[1].Likes, "FindReply must return a pointer into the slice")
	assert.Nil(t, c.FindReply("missing"))
}

func TestPost_JSONShape(t *testing.T) {
	p := &Post{ID: "p1", UserID: "u1", Description: "hi", Author: &PublicProfile{ID: "u1", FirstName: "Ada"}}
	b, err := json.Marshal(p)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	author, ok := m["userId"].(map[string]any)
	require.True(t, ok, "userId must carry the populated author")
	assert.Equal(t, "Ada", author["firstName"])
}

func TestToken_Expired(t *testing.T) {
	now := time.Now()
	assert.True(t, (&Token{ExpiresAt: now.Add(-time.Second)}).Expired(now))
	assert.True(t, (&Token{ExpiresAt: now}).Expired(now))
	assert.False(t, (&Token{ExpiresAt: now.Add(time.Minute)}).Expired(now))
}
