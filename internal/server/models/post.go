package models

import "time"

// Post is a user's status update. Likes is a set of user ids, Comments the
// ids of its comments in insertion order.
type Post struct {
	ID          string         `json:"_id" bson:"_id"`
	UserID      string         `json:"-" bson:"userId"`
	Description string         `json:"description" bson:"description"`
	Image       string         `json:"image,omitempty" bson:"image,omitempty"`
	Likes       []string       `json:"likes" bson:"likes"`
	Comments    []string       `json:"comments" bson:"comments"`
	CreatedAt   time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt" bson:"updatedAt"`
	Author      *PublicProfile `json:"userId" bson:"-"`
}

// LikedBy reports whether userID is in the likes set.
func (p *Post) LikedBy(userID string) bool {
	return contains(p.Likes, userID)
}

func contains(set []string, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}
