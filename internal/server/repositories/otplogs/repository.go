package otplogs

import (
	"context"

	"github.com/dmitrijs2005/safewatch/internal/events"
)

type Repository interface {
	List(ctx context.Context, userID string, limit int) ([]events.OtpEvent, error)
	Create(ctx context.Context, event *events.OtpEvent) (*events.OtpEvent, error)
}
