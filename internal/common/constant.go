// Package common contains shared constants and sentinel errors used across
// gophsocial components.
package common

// AccessTokenHeaderName is the HTTP header carrying the bearer access token.
const AccessTokenHeaderName = "Authorization"

// AccessTokenQueryParam carries the access token for websocket upgrades,
// where browsers cannot set headers.
const AccessTokenQueryParam = "token"

// Fixed result limits.
const (
	PendingRequestsLimit  = 10
	SuggestedFriendsLimit = 15
)
