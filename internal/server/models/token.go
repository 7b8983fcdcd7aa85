package models

import "time"

// TokenKind distinguishes the single-use secrets issued to a user.
type TokenKind string

const (
	TokenKindVerification  TokenKind = "verification"
	TokenKindPasswordReset TokenKind = "password_reset"
	TokenKindRefresh       TokenKind = "refresh"
)

// Token is a stored secret. Only the sha256 digest of the secret is kept.
type Token struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	Kind      TokenKind `bson:"kind"`
	Hash      string    `bson:"hash"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

// Expired reports whether the token is no longer valid at now.
func (t *Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
