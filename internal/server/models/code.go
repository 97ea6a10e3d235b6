package models

import "time"

// VerificationCode is one issued login code. Only the argon2id hash is
// stored; the plaintext code exists transiently in memory and in the SMS.
type VerificationCode struct {
	ID        string
	Phone     string
	CodeHash  []byte
	Salt      []byte
	Attempts  int
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}
