package codes

import (
	"context"

	"github.com/dmitrijs2005/safewatch/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, code *models.VerificationCode) (*models.VerificationCode, error)
	FindActive(ctx context.Context, phone string) (*models.VerificationCode, error)
	IncrementAttempts(ctx context.Context, id string) (int, error)
	MarkUsed(ctx context.Context, id string) error
	InvalidateActive(ctx context.Context, phone string) error
}
