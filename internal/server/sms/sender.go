// Package sms delivers verification codes to phones. The Twilio sender is
// used when credentials are configured; otherwise codes go to the log,
// which is enough for local development.
package sms

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/safewatch/internal/logging"
)

// CodeSender delivers a one-time verification code out of band.
type CodeSender interface {
	Send(ctx context.Context, phone string, code string) error
}

// LogSender writes the code to the server log instead of sending it.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, phone string, code string) error {
	s.log.Info(ctx, fmt.Sprintf("verification code for %s: %s", phone, code))
	return nil
}
