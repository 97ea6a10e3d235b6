package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/safewatch/internal/dbx"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/calllogs"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/codes"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/otplogs"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Codes(db dbx.DBTX) codes.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	OtpLogs(db dbx.DBTX) otplogs.Repository
	CallLogs(db dbx.DBTX) calllogs.Repository
}
