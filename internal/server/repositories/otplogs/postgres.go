package otplogs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/safewatch/internal/dbx"
	"github.com/dmitrijs2005/safewatch/internal/events"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns the owner's newest OTP events, received_at descending.
func (r *PostgresRepository) List(ctx context.Context, userID string, limit int) ([]events.OtpEvent, error) {

	query :=
		`SELECT id, user_id, sender_number, sender_name, otp_code, message_content,
		        purpose, location, risk_level, is_suspicious, received_at
		 FROM otp_logs
		 WHERE user_id = $1
		 ORDER BY received_at DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []events.OtpEvent{}
	for rows.Next() {
		var e events.OtpEvent
		var location []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.SenderNumber, &e.SenderName, &e.Code,
			&e.Message, &e.Purpose, &location, &e.RiskLevel, &e.Suspicious, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if len(location) > 0 {
			if err := json.Unmarshal(location, &e.Location); err != nil {
				return nil, fmt.Errorf("location decode error: %w", err)
			}
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, event *events.OtpEvent) (*events.OtpEvent, error) {

	var location []byte
	if event.Location != nil {
		b, err := json.Marshal(event.Location)
		if err != nil {
			return nil, fmt.Errorf("location encode error: %w", err)
		}
		location = b
	}

	query :=
		`INSERT INTO otp_logs (id, user_id, sender_number, sender_name, otp_code,
		                       message_content, purpose, location, risk_level,
		                       is_suspicious, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		event.ID, event.UserID, event.SenderNumber, event.SenderName, event.Code,
		event.Message, event.Purpose, location, event.RiskLevel,
		event.Suspicious, event.ReceivedAt).Scan(&event.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return event, nil
}
