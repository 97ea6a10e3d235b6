package services

import (
	"bytes"
	"context"
	"database/sql"

	"github.com/dmitrijs2005/safewatch/internal/common"
	"github.com/dmitrijs2005/safewatch/internal/dbx"
	"github.com/dmitrijs2005/safewatch/internal/events"
	"github.com/dmitrijs2005/safewatch/internal/server/models"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/calllogs"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/codes"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/otplogs"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/users"
)

type fakeCodesRepo struct {
	active      *models.VerificationCode
	findErr     error
	created     []*models.VerificationCode
	invalidated []string
	usedIDs     []string
	attemptsErr error
}

func (f *fakeCodesRepo) Create(_ context.Context, c *models.VerificationCode) (*models.VerificationCode, error) {
	c.ID = "c-1"
	f.created = append(f.created, c)
	return c, nil
}

func (f *fakeCodesRepo) FindActive(_ context.Context, phone string) (*models.VerificationCode, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.active == nil || f.active.Phone != phone {
		return nil, common.ErrorNotFound
	}
	return f.active, nil
}

func (f *fakeCodesRepo) IncrementAttempts(_ context.Context, id string) (int, error) {
	if f.attemptsErr != nil {
		return 0, f.attemptsErr
	}
	f.active.Attempts++
	return f.active.Attempts, nil
}

func (f *fakeCodesRepo) MarkUsed(_ context.Context, id string) error {
	f.usedIDs = append(f.usedIDs, id)
	return nil
}

func (f *fakeCodesRepo) InvalidateActive(_ context.Context, phone string) error {
	f.invalidated = append(f.invalidated, phone)
	return nil
}

type fakeUsersRepo struct {
	upserted []string
}

func (f *fakeUsersRepo) UpsertByPhone(_ context.Context, phone string) (*models.User, error) {
	f.upserted = append(f.upserted, phone)
	return &models.User{ID: "u-1", Phone: phone}, nil
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	return nil, common.ErrorNotFound
}

type fakeSessionsRepo struct {
	created []*models.Session
	deleted [][]byte
	purged  int64
}

func (f *fakeSessionsRepo) Create(_ context.Context, s *models.Session) (*models.Session, error) {
	s.ID = "s-1"
	f.created = append(f.created, s)
	return s, nil
}

func (f *fakeSessionsRepo) Find(_ context.Context, tokenHash []byte) (*models.Session, error) {
	for _, s := range f.created {
		if bytes.Equal(s.TokenHash, tokenHash) {
			return s, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeSessionsRepo) Delete(_ context.Context, tokenHash []byte) error {
	f.deleted = append(f.deleted, tokenHash)
	kept := f.created[:0]
	for _, s := range f.created {
		if !bytes.Equal(s.TokenHash, tokenHash) {
			kept = append(kept, s)
		}
	}
	f.created = kept
	return nil
}

func (f *fakeSessionsRepo) DeleteExpired(_ context.Context) (int64, error) {
	return f.purged, nil
}

type fakeOtpLogsRepo struct {
	list      []events.OtpEvent
	listErr   error
	lastUser  string
	lastLimit int
	created   []*events.OtpEvent
	createErr error
}

func (f *fakeOtpLogsRepo) List(_ context.Context, userID string, limit int) ([]events.OtpEvent, error) {
	f.lastUser, f.lastLimit = userID, limit
	return f.list, f.listErr
}

func (f *fakeOtpLogsRepo) Create(_ context.Context, e *events.OtpEvent) (*events.OtpEvent, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, e)
	return e, nil
}

type fakeCallLogsRepo struct {
	list      []events.CallEvent
	listErr   error
	lastUser  string
	lastLimit int
	created   []*events.CallEvent
}

func (f *fakeCallLogsRepo) List(_ context.Context, userID string, limit int) ([]events.CallEvent, error) {
	f.lastUser, f.lastLimit = userID, limit
	return f.list, f.listErr
}

func (f *fakeCallLogsRepo) Create(_ context.Context, e *events.CallEvent) (*events.CallEvent, error) {
	f.created = append(f.created, e)
	return e, nil
}

type fakeRepoManager struct {
	codes    *fakeCodesRepo
	users    *fakeUsersRepo
	sessions *fakeSessionsRepo
	otplogs  *fakeOtpLogsRepo
	calllogs *fakeCallLogsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		codes:    &fakeCodesRepo{},
		users:    &fakeUsersRepo{},
		sessions: &fakeSessionsRepo{},
		otplogs:  &fakeOtpLogsRepo{},
		calllogs: &fakeCallLogsRepo{},
	}
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return f.users }
func (f *fakeRepoManager) Codes(dbx.DBTX) codes.Repository             { return f.codes }
func (f *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository       { return f.sessions }
func (f *fakeRepoManager) OtpLogs(dbx.DBTX) otplogs.Repository         { return f.otplogs }
func (f *fakeRepoManager) CallLogs(dbx.DBTX) calllogs.Repository       { return f.calllogs }

type fakeSender struct {
	phone string
	code  string
	err   error
	calls int
}

func (f *fakeSender) Send(_ context.Context, phone string, code string) error {
	f.calls++
	f.phone, f.code = phone, code
	return f.err
}
