// Package common defines shared constants and sentinel errors used across
// client and server layers of SafeWatch. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Snapshot query failures. The feed converts these into an empty,
	// still-renderable sequence.
	ErrFetchFailed = errors.New("fetch failed")

	// Live channel failures and lifecycle.
	ErrSubscriptionClosed = errors.New("subscription closed")

	// Verification code errors.
	ErrInvalidPhone    = errors.New("phone number must be in E.164 format")
	ErrInvalidCode     = errors.New("verification code must be 6 digits")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrCodeUsed        = errors.New("verification code already used")
	ErrTooManyAttempts = errors.New("too many verification attempts")

	// Auth token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
