package models

import "time"

// RequestStatus is the lifecycle state of a friend request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "Pending"
	RequestStatusAccepted RequestStatus = "Accepted"
	RequestStatusRejected RequestStatus = "Rejected"
)

// IsResponse reports whether s is a valid answer to a pending request.
func (s RequestStatus) IsResponse() bool {
	return s == RequestStatusAccepted || s == RequestStatusRejected
}

// FriendRequest is a directed request from RequestFrom to RequestTo.
// From is populated only by listing queries.
type FriendRequest struct {
	ID          string         `json:"_id" bson:"_id"`
	RequestFrom string         `json:"-" bson:"requestFrom"`
	RequestTo   string         `json:"requestTo" bson:"requestTo"`
	Status      RequestStatus  `json:"requestStatus" bson:"requestStatus"`
	CreatedAt   time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt" bson:"updatedAt"`
	From        *PublicProfile `json:"requestFrom" bson:"-"`
}
