package calllogs

import (
	"context"

	"github.com/dmitrijs2005/safewatch/internal/events"
)

type Repository interface {
	List(ctx context.Context, userID string, limit int) ([]events.CallEvent, error)
	Create(ctx context.Context, event *events.CallEvent) (*events.CallEvent, error)
}
