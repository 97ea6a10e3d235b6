package codes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/safewatch/internal/common"
	"github.com/dmitrijs2005/safewatch/internal/dbx"
	"github.com/dmitrijs2005/safewatch/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, code *models.VerificationCode) (*models.VerificationCode, error) {

	query :=
		`INSERT INTO verification_codes (phone, code_hash, salt, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		code.Phone, code.CodeHash, code.Salt, code.ExpiresAt).Scan(&code.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return code, nil
}

// FindActive returns the most recently issued unused code for the phone.
// Expiry and attempt limits are enforced by the service layer so their
// violations can map to distinct errors.
func (r *PostgresRepository) FindActive(ctx context.Context, phone string) (*models.VerificationCode, error) {
	query :=
		`SELECT id, phone, code_hash, salt, attempts, used, expires_at, created_at
		 FROM verification_codes
		 WHERE phone = $1 AND NOT used
		 ORDER BY created_at DESC
		 LIMIT 1
		 `

	code := &models.VerificationCode{}
	err := r.db.QueryRowContext(ctx, query, phone).Scan(
		&code.ID, &code.Phone, &code.CodeHash, &code.Salt,
		&code.Attempts, &code.Used, &code.ExpiresAt, &code.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return code, nil
}

func (r *PostgresRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	query :=
		`UPDATE verification_codes SET attempts = attempts + 1
		 WHERE id = $1
		 RETURNING attempts
		 `

	var attempts int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&attempts)

	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return attempts, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id string) error {
	query :=
		`UPDATE verification_codes SET used = true
		 WHERE id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// InvalidateActive retires every outstanding code for the phone. Called
// before issuing a new one so only the latest code can ever verify.
func (r *PostgresRepository) InvalidateActive(ctx context.Context, phone string) error {
	query :=
		`UPDATE verification_codes SET used = true
		 WHERE phone = $1 AND NOT used
		 `

	if _, err := r.db.ExecContext(ctx, query, phone); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
