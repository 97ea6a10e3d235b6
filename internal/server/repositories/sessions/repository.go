package sessions

import (
	"context"

	"github.com/dmitrijs2005/safewatch/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	Find(ctx context.Context, tokenHash []byte) (*models.Session, error)
	Delete(ctx context.Context, tokenHash []byte) error
	DeleteExpired(ctx context.Context) (int64, error)
}
