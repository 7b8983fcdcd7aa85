package models

import "time"

// Comment belongs to a post and owns its replies.
type Comment struct {
	ID        string         `json:"_id" bson:"_id"`
	PostID    string         `json:"postId" bson:"postId"`
	UserID    string         `json:"-" bson:"userId"`
	Comment   string         `json:"comment" bson:"comment"`
	From      string         `json:"from" bson:"from"`
	Likes     []string       `json:"likes" bson:"likes"`
	Replies   []Reply        `json:"replies" bson:"replies"`
	CreatedAt time.Time      `json:"createdAt" bson:"createdAt"`
	Author    *PublicProfile `json:"userId" bson:"-"`
}

// Reply is stored inside its parent comment and addressed by its own id.
type Reply struct {
	ID        string         `json:"_id" bson:"_id"`
	UserID    string         `json:"-" bson:"userId"`
	Comment   string         `json:"comment" bson:"comment"`
	From      string         `json:"from" bson:"from"`
	ReplyAt   string         `json:"replyAt" bson:"replyAt"`
	Likes     []string       `json:"likes" bson:"likes"`
	CreatedAt time.Time      `json:"created_At" bson:"created_At"`
	Author    *PublicProfile `json:"userId" bson:"-"`
}

// LikedBy reports whether userID is in the comment's likes set.
func (c *Comment) LikedBy(userID string) bool {
	return contains(c.Likes, userID)
}

// FindReply returns the reply with the given id, or nil.
func (c *Comment) FindReply(id string) *Reply {
	for i := range c.Replies {
		if c.Replies[i].ID == id {
			return &c.Replies[i]
		}
	}
	return nil
}
