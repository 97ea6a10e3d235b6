// Package services contains server-side business logic. This file
// implements AuthService: phone verification codes, token issue, session
// revocation.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/safewatch/internal/common"
	"github.com/dmitrijs2005/safewatch/internal/dbx"
	"github.com/dmitrijs2005/safewatch/internal/logging"
	"github.com/dmitrijs2005/safewatch/internal/server/auth"
	"github.com/dmitrijs2005/safewatch/internal/server/config"
	"github.com/dmitrijs2005/safewatch/internal/server/models"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/safewatch/internal/server/sms"
	"golang.org/x/crypto/argon2"
)

var phoneRe = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)
var codeRe = regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, common.CodeLength))

// AuthService provides phone-based authentication:
// - RequestCode: issue and deliver a verification code
// - VerifyCode: check the code, upsert the account, mint a bearer token
// - Authenticate: resolve a bearer token to an owner id
// - SignOut: revoke the session behind a token
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sender      sms.CodeSender
	log         logging.Logger

	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	codeValidityDuration        time.Duration
	maxCodeAttempts             int
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, sender sms.CodeSender, cfg *config.Config, log logging.Logger) *AuthService {
	return &AuthService{
		db:                          db,
		repomanager:                 m,
		sender:                      sender,
		log:                         log,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		codeValidityDuration:        cfg.CodeValidityDuration,
		maxCodeAttempts:             cfg.MaxCodeAttempts,
	}
}

// NormalizePhone strips the formatting characters people type into phone
// fields. The result must be E.164, otherwise ErrInvalidPhone.
func NormalizePhone(phone string) (string, error) {
	normalized := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, phone)

	if !phoneRe.MatchString(normalized) {
		return "", common.ErrInvalidPhone
	}
	return normalized, nil
}

// RequestCode issues a fresh verification code for the phone, retiring any
// outstanding codes, and delivers it out of band. Only the argon2id hash
// is persisted.
func (s *AuthService) RequestCode(ctx context.Context, phone string) error {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return err
	}

	code, err := common.MakeVerificationCode()
	if err != nil {
		return common.ErrorInternal
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return common.ErrorInternal
	}

	record := &models.VerificationCode{
		Phone:     phone,
		CodeHash:  hashCode(code, salt),
		Salt:      salt,
		ExpiresAt: time.Now().Add(s.codeValidityDuration),
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Codes(tx)
		if err := repo.InvalidateActive(ctx, phone); err != nil {
			return err
		}
		_, err := repo.Create(ctx, record)
		return err
	}); err != nil {
		return fmt.Errorf("error storing verification code: %w", err)
	}

	if err := s.sender.Send(ctx, phone, code); err != nil {
		return fmt.Errorf("error delivering verification code: %w", err)
	}

	return nil
}

// VerifyCode checks the submitted code against the active one for the
// phone. Success creates the account on first login, records a session,
// and returns a bearer token.
func (s *AuthService) VerifyCode(ctx context.Context, phone string, code string) (string, error) {
	if !codeRe.MatchString(code) {
		return "", common.ErrInvalidCode
	}

	phone, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}

	repo := s.repomanager.Codes(s.db)

	record, err := repo.FindActive(ctx, phone)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if record.ExpiresAt.Before(time.Now()) {
		return "", common.ErrCodeExpired
	}

	attempts, err := repo.IncrementAttempts(ctx, record.ID)
	if err != nil {
		return "", common.ErrorInternal
	}
	if attempts > s.maxCodeAttempts {
		return "", common.ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare(record.CodeHash, hashCode(code, record.Salt)) != 1 {
		return "", common.ErrorUnauthorized
	}

	var token string
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Codes(tx).MarkUsed(ctx, record.ID); err != nil {
			return err
		}

		user, err := s.repomanager.Users(tx).UpsertByPhone(ctx, phone)
		if err != nil {
			return err
		}

		token, err = auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
		if err != nil {
			return err
		}

		hash := hashToken(token)
		session := &models.Session{
			UserID:    user.ID,
			TokenHash: hash,
			ExpiresAt: time.Now().Add(s.accessTokenValidityDuration),
		}
		_, err = s.repomanager.Sessions(tx).Create(ctx, session)
		return err
	}); err != nil {
		return "", common.ErrorInternal
	}

	return token, nil
}

// Authenticate resolves a bearer token to its owner. Both the JWT
// signature/expiry and the session row must check out, so a signed-out
// token fails even before its JWT expiry.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return "", common.ErrorUnauthorized
	}

	session, err := s.repomanager.Sessions(s.db).Find(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if session.UserID != userID || session.ExpiresAt.Before(time.Now()) {
		return "", common.ErrorUnauthorized
	}

	return userID, nil
}

// SignOut revokes the session behind the token. Unknown tokens are a no-op.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if err := s.repomanager.Sessions(s.db).Delete(ctx, hashToken(token)); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// PurgeExpiredSessions removes sessions past their expiry and reports how
// many were dropped.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteExpired(ctx)
}

func hashCode(code string, salt []byte) []byte {
	return argon2.IDKey([]byte(code), salt, 1, 64*1024, 4, 32)
}

func hashToken(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}
