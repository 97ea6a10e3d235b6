package users

import (
	"context"

	"github.com/dmitrijs2005/safewatch/internal/server/models"
)

type Repository interface {
	UpsertByPhone(ctx context.Context, phone string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
