package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/safewatch/internal/events"
	"github.com/google/uuid"
)

func newLogService() (*LogService, *fakeRepoManager) {
	rm := newFakeRepoManager()
	return NewLogService(nil, rm), rm
}

func TestOtpSnapshot_ClampsLimit(t *testing.T) {
	svc, rm := newLogService()

	cases := []struct {
		in   int
		want int
	}{
		{0, 10},
		{-5, 10},
		{50, 10},
		{5, 5},
		{10, 10},
	}
	for _, tc := range cases {
		if _, err := svc.OtpSnapshot(context.Background(), "u-1", tc.in); err != nil {
			t.Fatalf("OtpSnapshot(%d) error: %v", tc.in, err)
		}
		if rm.otplogs.lastLimit != tc.want {
			t.Fatalf("limit %d: repo got %d, want %d", tc.in, rm.otplogs.lastLimit, tc.want)
		}
		if rm.otplogs.lastUser != "u-1" {
			t.Fatalf("unexpected user: %q", rm.otplogs.lastUser)
		}
	}
}

func TestOtpSnapshot_Error(t *testing.T) {
	svc, rm := newLogService()
	rm.otplogs.listErr = errors.New("db down")

	if _, err := svc.OtpSnapshot(context.Background(), "u-1", 10); err == nil {
		t.Fatal("want wrapped error")
	}
}

func TestCallSnapshot_PassesThrough(t *testing.T) {
	svc, rm := newLogService()
	rm.calllogs.list = []events.CallEvent{{ID: "c-1"}, {ID: "c-2"}}

	got, err := svc.CallSnapshot(context.Background(), "u-1", 2)
	if err != nil {
		t.Fatalf("CallSnapshot error: %v", err)
	}
	if len(got) != 2 || rm.calllogs.lastLimit != 2 {
		t.Fatalf("unexpected result: %v limit=%d", got, rm.calllogs.lastLimit)
	}
}

func TestIngestOtp_Defaults(t *testing.T) {
	svc, rm := newLogService()

	e := &events.OtpEvent{
		UserID:       "spoofed-owner",
		SenderNumber: "+1800BANK",
		Code:         "111222",
		Message:      "Your code is 111222",
	}
	got, err := svc.IngestOtp(context.Background(), "u-1", e)
	if err != nil {
		t.Fatalf("IngestOtp error: %v", err)
	}

	if got.UserID != "u-1" {
		t.Fatalf("owner must come from the token, got %q", got.UserID)
	}
	if _, err := uuid.Parse(got.ID); err != nil {
		t.Fatalf("generated id is not a uuid: %q", got.ID)
	}
	if got.RiskLevel != events.RiskLow {
		t.Fatalf("risk level default missing: %q", got.RiskLevel)
	}
	if got.ReceivedAt.IsZero() {
		t.Fatal("timestamp default missing")
	}
	if len(rm.otplogs.created) != 1 {
		t.Fatal("event not stored")
	}
}

func TestIngestOtp_KeepsProvidedFields(t *testing.T) {
	svc, _ := newLogService()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := &events.OtpEvent{
		ID:           "evt-1",
		SenderNumber: "+1800BANK",
		Code:         "111222",
		Message:      "m",
		RiskLevel:    events.RiskHigh,
		ReceivedAt:   ts,
	}
	got, err := svc.IngestOtp(context.Background(), "u-1", e)
	if err != nil {
		t.Fatalf("IngestOtp error: %v", err)
	}
	if got.ID != "evt-1" || got.RiskLevel != events.RiskHigh || !got.ReceivedAt.Equal(ts) {
		t.Fatalf("provided fields overwritten: %+v", got)
	}
}

func TestIngestOtp_Error(t *testing.T) {
	svc, rm := newLogService()
	rm.otplogs.createErr = errors.New("db down")

	if _, err := svc.IngestOtp(context.Background(), "u-1", &events.OtpEvent{}); err == nil {
		t.Fatal("want wrapped error")
	}
}

func TestIngestCall_Defaults(t *testing.T) {
	svc, rm := newLogService()

	got, err := svc.IngestCall(context.Background(), "u-1", &events.CallEvent{CallerNumber: "+15550003333"})
	if err != nil {
		t.Fatalf("IngestCall error: %v", err)
	}
	if got.UserID != "u-1" {
		t.Fatalf("owner not forced: %q", got.UserID)
	}
	if _, err := uuid.Parse(got.ID); err != nil {
		t.Fatalf("generated id is not a uuid: %q", got.ID)
	}
	if got.CallTime.IsZero() {
		t.Fatal("timestamp default missing")
	}
	if len(rm.calllogs.created) != 1 {
		t.Fatal("event not stored")
	}
}
