package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/safewatch/internal/common"
	"github.com/dmitrijs2005/safewatch/internal/logging"
	"github.com/dmitrijs2005/safewatch/internal/server/auth"
	"github.com/dmitrijs2005/safewatch/internal/server/config"
	"github.com/dmitrijs2005/safewatch/internal/server/models"
)

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "test-secret",
		AccessTokenValidityDuration: time.Hour,
		CodeValidityDuration:        10 * time.Minute,
		MaxCodeAttempts:             3,
	}
}

func newAuthService(t *testing.T) (*AuthService, *fakeRepoManager, *fakeSender, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	rm := newFakeRepoManager()
	sender := &fakeSender{}
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewAuthService(db, rm, sender, testConfig(), log), rm, sender, mock
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("+1 (555) 000-1111")
	if err != nil {
		t.Fatalf("NormalizePhone error: %v", err)
	}
	if got != "+15550001111" {
		t.Fatalf("unexpected phone: %q", got)
	}

	for _, bad := range []string{"", "5550001111", "+0123", "+1555000111122334455", "not-a-phone"} {
		if _, err := NormalizePhone(bad); !errors.Is(err, common.ErrInvalidPhone) {
			t.Fatalf("want ErrInvalidPhone for %q, got %v", bad, err)
		}
	}
}

func TestRequestCode_StoresHashAndDelivers(t *testing.T) {
	svc, rm, sender, mock := newAuthService(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	if err := svc.RequestCode(context.Background(), "+1 555-000-1111"); err != nil {
		t.Fatalf("RequestCode error: %v", err)
	}

	if len(rm.codes.invalidated) != 1 || rm.codes.invalidated[0] != "+15550001111" {
		t.Fatalf("prior codes not invalidated: %v", rm.codes.invalidated)
	}
	if len(rm.codes.created) != 1 {
		t.Fatalf("code not stored")
	}
	stored := rm.codes.created[0]
	if stored.Phone != "+15550001111" {
		t.Fatalf("unexpected phone: %q", stored.Phone)
	}
	if len(sender.code) != common.CodeLength {
		t.Fatalf("unexpected delivered code: %q", sender.code)
	}
	if string(stored.CodeHash) == sender.code {
		t.Fatal("code stored in plaintext")
	}
	if !timeClose(stored.ExpiresAt, time.Now().Add(10*time.Minute)) {
		t.Fatalf("unexpected expiry: %v", stored.ExpiresAt)
	}
}

func timeClose(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < time.Minute
}

func TestRequestCode_InvalidPhone(t *testing.T) {
	svc, _, sender, _ := newAuthService(t)

	err := svc.RequestCode(context.Background(), "12345")
	if !errors.Is(err, common.ErrInvalidPhone) {
		t.Fatalf("want ErrInvalidPhone, got %v", err)
	}
	if sender.calls != 0 {
		t.Fatal("nothing should be delivered for a bad phone")
	}
}

func TestRequestCode_DeliveryError(t *testing.T) {
	svc, _, sender, mock := newAuthService(t)
	sender.err = errors.New("carrier down")
	mock.ExpectBegin()
	mock.ExpectCommit()

	if err := svc.RequestCode(context.Background(), "+15550001111"); err == nil {
		t.Fatal("want delivery error")
	}
}

func activeCode(phone, code string) *models.VerificationCode {
	salt := []byte("0123456789abcdef")
	return &models.VerificationCode{
		ID:        "c-1",
		Phone:     phone,
		CodeHash:  hashCode(code, salt),
		Salt:      salt,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
}

func TestVerifyCode_Success(t *testing.T) {
	svc, rm, _, mock := newAuthService(t)
	rm.codes.active = activeCode("+15550001111", "123456")
	mock.ExpectBegin()
	mock.ExpectCommit()

	token, err := svc.VerifyCode(context.Background(), "+15550001111", "123456")
	if err != nil {
		t.Fatalf("VerifyCode error: %v", err)
	}

	userID, err := auth.GetUserIDFromToken(token, []byte("test-secret"))
	if err != nil || userID != "u-1" {
		t.Fatalf("bad token: user=%q err=%v", userID, err)
	}
	if len(rm.codes.usedIDs) != 1 || rm.codes.usedIDs[0] != "c-1" {
		t.Fatalf("code not marked used: %v", rm.codes.usedIDs)
	}
	if len(rm.sessions.created) != 1 || rm.sessions.created[0].UserID != "u-1" {
		t.Fatalf("session not recorded: %+v", rm.sessions.created)
	}
}

func TestVerifyCode_MalformedCode(t *testing.T) {
	svc, rm, _, _ := newAuthService(t)
	rm.codes.active = activeCode("+15550001111", "123456")

	for _, bad := range []string{"", "123", "12345678", "12a456"} {
		if _, err := svc.VerifyCode(context.Background(), "+15550001111", bad); !errors.Is(err, common.ErrInvalidCode) {
			t.Fatalf("want ErrInvalidCode for %q, got %v", bad, err)
		}
	}
	if rm.codes.active.Attempts != 0 {
		t.Fatal("malformed codes must not burn attempts")
	}
}

func TestVerifyCode_WrongCode(t *testing.T) {
	svc, rm, _, _ := newAuthService(t)
	rm.codes.active = activeCode("+15550001111", "123456")

	_, err := svc.VerifyCode(context.Background(), "+15550001111", "654321")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want ErrorUnauthorized, got %v", err)
	}
	if rm.codes.active.Attempts != 1 {
		t.Fatalf("attempt not recorded: %d", rm.codes.active.Attempts)
	}
}

func TestVerifyCode_Expired(t *testing.T) {
	svc, rm, _, _ := newAuthService(t)
	rm.codes.active = activeCode("+15550001111", "123456")
	rm.codes.active.ExpiresAt = time.Now().Add(-time.Second)

	_, err := svc.VerifyCode(context.Background(), "+15550001111", "123456")
	if !errors.Is(err, common.ErrCodeExpired) {
		t.Fatalf("want ErrCodeExpired, got %v", err)
	}
}

func TestVerifyCode_TooManyAttempts(t *testing.T) {
	svc, rm, _, _ := newAuthService(t)
	rm.codes.active = activeCode("+15550001111", "123456")
	rm.codes.active.Attempts = 3

	_, err := svc.VerifyCode(context.Background(), "+15550001111", "123456")
	if !errors.Is(err, common.ErrTooManyAttempts) {
		t.Fatalf("want ErrTooManyAttempts, got %v", err)
	}
}

func TestVerifyCode_NoActiveCode(t *testing.T) {
	svc, _, _, _ := newAuthService(t)

	_, err := svc.VerifyCode(context.Background(), "+15550001111", "123456")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want ErrorUnauthorized, got %v", err)
	}
}

func TestAuthenticate_RoundTrip(t *testing.T) {
	svc, rm, _, mock := newAuthService(t)
	rm.codes.active = activeCode("+15550001111", "123456")
	mock.ExpectBegin()
	mock.ExpectCommit()

	token, err := svc.VerifyCode(context.Background(), "+15550001111", "123456")
	if err != nil {
		t.Fatalf("VerifyCode error: %v", err)
	}

	userID, err := svc.Authenticate(context.Background(), token)
	if err != nil || userID != "u-1" {
		t.Fatalf("Authenticate: user=%q err=%v", userID, err)
	}
}

func TestAuthenticate_RevokedAfterSignOut(t *testing.T) {
	svc, rm, _, mock := newAuthService(t)
	rm.codes.active = activeCode("+15550001111", "123456")
	mock.ExpectBegin()
	mock.ExpectCommit()

	token, err := svc.VerifyCode(context.Background(), "+15550001111", "123456")
	if err != nil {
		t.Fatalf("VerifyCode error: %v", err)
	}

	if err := svc.SignOut(context.Background(), token); err != nil {
		t.Fatalf("SignOut error: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("signed-out token must be rejected, got %v", err)
	}
}

func TestAuthenticate_GarbageToken(t *testing.T) {
	svc, _, _, _ := newAuthService(t)

	if _, err := svc.Authenticate(context.Background(), "garbage"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want ErrorUnauthorized, got %v", err)
	}
}

func TestPurgeExpiredSessions(t *testing.T) {
	svc, rm, _, _ := newAuthService(t)
	rm.sessions.purged = 4

	n, err := svc.PurgeExpiredSessions(context.Background())
	if err != nil {
		t.Fatalf("PurgeExpiredSessions error: %v", err)
	}
	if n != 4 {
		t.Fatalf("unexpected count: %d", n)
	}
}
