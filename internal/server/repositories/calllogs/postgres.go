package calllogs

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

// List returns the owner's newest calls, call_time descending.
func (r *PostgresRepository) List(ctx context.Context, userID string, limit int) ([]events.CallEvent, error) {

	query :=
		`SELECT id, user_id, caller_number, caller_name, caller_type, call_duration,
		        call_time, is_spam, is_blocked, location
		 FROM call_logs
		 WHERE user_id = $1
		 ORDER BY call_time DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []events.CallEvent{}
	for rows.Next() {
		var e events.CallEvent
		var location []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.CallerNumber, &e.CallerName, &e.CallerType,
			&e.Duration, &e.CallTime, &e.Spam, &e.Blocked, &location); err != nil {
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

func (r *PostgresRepository) Create(ctx context.Context, event *events.CallEvent) (*events.CallEvent, error) {

	var location []byte
	if event.Location != nil {
		b, err := json.Marshal(event.Location)
		if err != nil {
			return nil, fmt.Errorf("location encode error: %w", err)
		}
		location = b
	}

	query :=
		`INSERT INTO call_logs (id, user_id, caller_number, caller_name, caller_type,
		                        call_duration, call_time, is_spam, is_blocked, location)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		event.ID, event.UserID, event.CallerNumber, event.CallerName, event.CallerType,
		event.Duration, event.CallTime, event.Spam, event.Blocked, location).Scan(&event.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return event, nil
}
