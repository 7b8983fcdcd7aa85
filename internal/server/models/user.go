// Package models defines server-side data models persisted by the
// repositories and returned by the services.
package models

import "time"

// User is a registered account. Friends is a set of user ids; Views is the
// append-only list of viewer ids and may contain duplicates.
type User struct {
	ID           string    `json:"_id" bson:"_id"`
	FirstName    string    `json:"firstName" bson:"firstName"`
	LastName     string    `json:"lastName" bson:"lastName"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password"`
	Location     string    `json:"location" bson:"location"`
	Profession   string    `json:"profession" bson:"profession"`
	ProfileURL   string    `json:"profileUrl" bson:"profileUrl"`
	Friends      []string  `json:"friends" bson:"friends"`
	Views        []string  `json:"views" bson:"views"`
	Verified     bool      `json:"verified" bson:"verified"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PublicProfile is what other users may see of an account.
type PublicProfile struct {
	ID         string `json:"_id" bson:"_id"`
	FirstName  string `json:"firstName" bson:"firstName"`
	LastName   string `json:"lastName" bson:"lastName"`
	Location   string `json:"location,omitempty" bson:"location"`
	Profession string `json:"profession,omitempty" bson:"profession"`
	ProfileURL string `json:"profileUrl" bson:"profileUrl"`
}

// Profile projects u to its public fields.
func (u *User) Profile() *PublicProfile {
	return &PublicProfile{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Location:   u.Location,
		Profession: u.Profession,
		ProfileURL: u.ProfileURL,
	}
}

// HasFriend reports whether id is in the friends set.
func (u *User) HasFriend(id string) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// UserDetails is a user with the friends set populated.
type UserDetails struct {
	*User
	FriendProfiles []*PublicProfile `json:"friends"`
}

// ProfileUpdate carries the editable profile fields. Empty values are left
// unchanged.
type ProfileUpdate struct {
	FirstName  string
	LastName   string
	Location   string
	Profession string
	ProfileURL string
}

// IsEmpty reports whether no field was provided.
func (p ProfileUpdate) IsEmpty() bool {
	return p.FirstName == "" && p.LastName == "" && p.Location == "" &&
		p.Profession == "" && p.ProfileURL == ""
}
