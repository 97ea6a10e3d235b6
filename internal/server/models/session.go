package models

import "time"

// Session is one live login. The row is keyed by a hash of the bearer
// token, so sign-out can revoke a token before its JWT expiry.
type Session struct {
	ID        string
	UserID    string
	TokenHash []byte
	ExpiresAt time.Time
	CreatedAt time.Time
}
