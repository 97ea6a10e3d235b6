// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/safewatch/internal/dbx"
	"github.com/dmitrijs2005/safewatch/internal/server/migrations"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/calllogs"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/codes"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/otplogs"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Codes returns a codes.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Codes(db dbx.DBTX) codes.Repository {
	return codes.NewPostgresRepository(db)
}

// Sessions returns a sessions.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

// OtpLogs returns an otplogs.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) OtpLogs(db dbx.DBTX) otplogs.Repository {
	return otplogs.NewPostgresRepository(db)
}

// CallLogs returns a calllogs.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) CallLogs(db dbx.DBTX) calllogs.Repository {
	return calllogs.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
