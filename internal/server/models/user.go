// Package models defines the server-side persistence records. The event
// rows themselves live in internal/events, shared with the client.
package models

import "time"

// User is one phone-identified account. Accounts are created implicitly on
// the first successful code verification.
type User struct {
	ID        string
	Phone     string
	CreatedAt time.Time
}
