// Package events defines the passive event records shared by the server and
// the client feed: inbound one-time-passcode messages and phone calls, each
// annotated upstream with a precomputed trust/risk signal.
package events

import "time"

// Table identifies the storage table (and notification scope) of an event kind.
type Table string

const (
	TableOtpLogs  Table = "otp_logs"
	TableCallLogs Table = "call_logs"
)

// RiskLevel is the precomputed low/medium/high classification attached to
// OTP events upstream. The zero value (or any unknown value) is treated as
// low for display purposes.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// CallerType is the optional caller categorization attached to call events.
type CallerType string

const (
	CallerBusiness CallerType = "business"
	CallerPersonal CallerType = "personal"
	CallerSpam     CallerType = "spam"
	CallerUnknown  CallerType = "unknown"
)

// Location is an optional structured origin. Absence is a first-class state:
// a nil *Location means the event carries no location at all.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Event is implemented by every record kind in the feed. IDs are opaque,
// unique, and owner-scoped.
type Event interface {
	EventID() string
}

// OtpEvent is one inbound one-time-passcode message.
type OtpEvent struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	SenderNumber string     `json:"sender_number"`
	SenderName   *string    `json:"sender_name,omitempty"`
	Code         string     `json:"otp_code"`
	Message      string     `json:"message_content"`
	Purpose      *string    `json:"purpose,omitempty"`
	Location     *Location  `json:"location,omitempty"`
	RiskLevel    RiskLevel  `json:"risk_level"`
	Suspicious   bool       `json:"is_suspicious"`
	ReceivedAt   time.Time  `json:"received_at"`
}

func (e OtpEvent) EventID() string { return e.ID }

// Sender returns the display name when known, otherwise the raw number.
func (e OtpEvent) Sender() string {
	if e.SenderName != nil && *e.SenderName != "" {
		return *e.SenderName
	}
	return e.SenderNumber
}

// CallEvent is one inbound phone call. Duration is in seconds; zero means
// the call was missed.
type CallEvent struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	CallerNumber string      `json:"caller_number"`
	CallerName   *string     `json:"caller_name,omitempty"`
	CallerType   *CallerType `json:"caller_type,omitempty"`
	Duration     int         `json:"call_duration"`
	CallTime     time.Time   `json:"call_time"`
	Spam         bool        `json:"is_spam"`
	Blocked      bool        `json:"is_blocked"`
	Location     *Location   `json:"location,omitempty"`
}

func (e CallEvent) EventID() string { return e.ID }

// Caller returns the display name when known, otherwise the raw number.
func (e CallEvent) Caller() string {
	if e.CallerName != nil && *e.CallerName != "" {
		return *e.CallerName
	}
	return e.CallerNumber
}
