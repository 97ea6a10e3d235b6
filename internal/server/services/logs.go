package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/safewatch/internal/common"
	"github.com/dmitrijs2005/safewatch/internal/events"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// LogService serves event history snapshots and accepts ingested events
// from device agents.
type LogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewLogService(db *sql.DB, m repomanager.RepositoryManager) *LogService {
	return &LogService{db: db, repomanager: m}
}

// clampLimit keeps snapshot sizes within the feed window. Non-positive or
// oversized requests fall back to the default.
func clampLimit(limit int) int {
	if limit <= 0 || limit > common.SnapshotLimit {
		return common.SnapshotLimit
	}
	return limit
}

// OtpSnapshot returns the owner's newest OTP events, newest first.
func (s *LogService) OtpSnapshot(ctx context.Context, userID string, limit int) ([]events.OtpEvent, error) {
	list, err := s.repomanager.OtpLogs(s.db).List(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("otp snapshot: %w", err)
	}
	return list, nil
}

// CallSnapshot returns the owner's newest calls, newest first.
func (s *LogService) CallSnapshot(ctx context.Context, userID string, limit int) ([]events.CallEvent, error) {
	list, err := s.repomanager.CallLogs(s.db).List(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("call snapshot: %w", err)
	}
	return list, nil
}

// IngestOtp stores one reported OTP event for the owner. Missing id,
// timestamp and risk level get server-side defaults. The insert fires the
// notification trigger, which feeds live streams.
func (s *LogService) IngestOtp(ctx context.Context, userID string, event *events.OtpEvent) (*events.OtpEvent, error) {
	event.UserID = userID
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}
	if event.RiskLevel == "" {
		event.RiskLevel = events.RiskLow
	}

	stored, err := s.repomanager.OtpLogs(s.db).Create(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("otp ingest: %w", err)
	}
	return stored, nil
}

// IngestCall stores one reported call event for the owner.
func (s *LogService) IngestCall(ctx context.Context, userID string, event *events.CallEvent) (*events.CallEvent, error) {
	event.UserID = userID
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CallTime.IsZero() {
		event.CallTime = time.Now()
	}

	stored, err := s.repomanager.CallLogs(s.db).Create(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("call ingest: %w", err)
	}
	return stored, nil
}
