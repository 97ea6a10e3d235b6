// Package cli implements the SafeWatch terminal client: phone login, the
// OTP and call activity feeds, and a live watch mode.
package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"github.com/dmitrijs2005/safewatch/internal/client/api"
	"github.com/dmitrijs2005/safewatch/internal/client/config"
	"github.com/dmitrijs2005/safewatch/internal/client/display"
	"github.com/dmitrijs2005/safewatch/internal/client/feed"
	"github.com/dmitrijs2005/safewatch/internal/common"
	"github.com/dmitrijs2005/safewatch/internal/events"
	"github.com/dmitrijs2005/safewatch/internal/logging"
)

// authAPI is the slice of the transport the login/logout flow needs.
type authAPI interface {
	RequestCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code string) error
	SignOut(ctx context.Context) error
	LoggedIn() bool
}

type App struct {
	config *config.Config
	log    logging.Logger
	auth   authAPI
	reader *bufio.Reader
	out    io.Writer

	phone string

	otp   *feed.Feed[events.OtpEvent]
	calls *feed.Feed[events.CallEvent]

	// feed factories; tests replace these with fakes
	newOtpFeed  func() *feed.Feed[events.OtpEvent]
	newCallFeed func() *feed.Feed[events.CallEvent]
}

func NewApp(c *config.Config, log logging.Logger) *App {
	client := api.New(c.ServerAddr, log)

	return &App{
		config: c,
		log:    log,
		auth:   client,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		newOtpFeed: func() *feed.Feed[events.OtpEvent] {
			s := api.OtpLogs(client)
			return feed.New[events.OtpEvent](s, s, log.With("feed", "otp"))
		},
		newCallFeed: func() *feed.Feed[events.CallEvent] {
			s := api.CallLogs(client)
			return feed.New[events.CallEvent](s, s, log.With("feed", "calls"))
		},
	}
}

func (a *App) isLoggedIn() bool {
	return a.auth.LoggedIn()
}

// Login walks the two-step verification: phone, then the delivered code.
// Malformed codes are rejected locally and re-prompted; a blank entry
// requests a resend.
func (a *App) Login(ctx context.Context) error {
	phone, err := getSimpleText(a.reader, "Phone number (with country code)", a.out)
	if err != nil {
		return err
	}

	if err := a.auth.RequestCode(ctx, phone); err != nil {
		printlnFn("Could not send the code:", err)
		return err
	}
	printlnFn("Code sent, check your phone.")

	for {
		code, err := getCode(a.out)
		if err != nil {
			return err
		}

		if code == "" {
			if err := a.auth.RequestCode(ctx, phone); err != nil {
				printlnFn("Could not resend the code:", err)
				return err
			}
			printlnFn("Code re-sent.")
			continue
		}

		err = a.auth.VerifyCode(ctx, phone, code)
		if err == nil {
			break
		}
		if errors.Is(err, common.ErrInvalidCode) {
			printlnFn("The code must be exactly 6 digits.")
			continue
		}
		printlnFn("Verification failed:", err)
		return err
	}

	a.phone = phone
	printlnFn("Logged in as", phone)

	return a.openFeeds(ctx)
}

// openFeeds constructs and loads both activity feeds for the now-known
// owner. A failed history fetch is reported but leaves the feed usable:
// live events still arrive.
func (a *App) openFeeds(ctx context.Context) error {
	a.closeFeeds()

	a.otp = a.newOtpFeed()
	a.calls = a.newCallFeed()

	if err := a.otp.Load(ctx); err != nil {
		printlnFn("OTP history unavailable:", err)
	}
	if err := a.calls.Load(ctx); err != nil {
		printlnFn("Call history unavailable:", err)
	}
	return nil
}

func (a *App) closeFeeds() {
	if a.otp != nil {
		_ = a.otp.Close()
		a.otp = nil
	}
	if a.calls != nil {
		_ = a.calls.Close()
		a.calls = nil
	}
}

// Otp prints the current OTP activity feed, newest first.
func (a *App) Otp(ctx context.Context) error {
	if a.otp == nil {
		printlnFn("Not logged in.")
		return nil
	}

	list := a.otp.Events()
	if len(list) == 0 {
		printlnFn("No OTP activity yet.")
		return nil
	}
	for _, e := range list {
		printlnFn(display.OtpLine(e))
	}
	return nil
}

// Calls prints the current call feed, newest first.
func (a *App) Calls(ctx context.Context) error {
	if a.calls == nil {
		printlnFn("Not logged in.")
		return nil
	}

	list := a.calls.Events()
	if len(list) == 0 {
		printlnFn("No call history yet.")
		return nil
	}
	for _, e := range list {
		printlnFn(display.CallLine(e))
	}
	return nil
}

// Watch prints each live push as it arrives, until the user presses Enter.
func (a *App) Watch(ctx context.Context) error {
	if a.otp == nil || a.calls == nil {
		printlnFn("Not logged in.")
		return nil
	}

	a.otp.OnPush(func(e events.OtpEvent) { printlnFn("[otp]", display.OtpLine(e)) })
	a.calls.OnPush(func(e events.CallEvent) { printlnFn("[call]", display.CallLine(e)) })
	defer func() {
		a.otp.OnPush(nil)
		a.calls.OnPush(nil)
	}()

	printlnFn("Watching for new activity, press Enter to stop.")
	_, err := a.reader.ReadString('\n')
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Logout tears down both feeds before revoking the session, so no stale
// callback can fire for the departing owner.
func (a *App) Logout(ctx context.Context) error {
	a.closeFeeds()
	a.phone = ""

	if err := a.auth.SignOut(ctx); err != nil {
		printlnFn("Sign-out reported an error:", err)
		return err
	}
	printlnFn("Signed out.")
	return nil
}

// Run starts the interactive loop.
func (a *App) Run(ctx context.Context) {
	printlnFn("SafeWatch — OTP & call security monitor")

	statusFn := func() string {
		if a.isLoggedIn() {
			return a.phone
		}
		return "not logged in"
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, statusFn, scanner)

	a.closeFeeds()
}
