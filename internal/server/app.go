// Package server initializes and runs the SafeWatch daemon: it opens the
// database, runs migrations, wires services with the realtime hub, and
// serves the HTTP API until shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/safewatch/internal/logging"
	"github.com/dmitrijs2005/safewatch/internal/server/config"
	"github.com/dmitrijs2005/safewatch/internal/server/httpapi"
	"github.com/dmitrijs2005/safewatch/internal/server/metrics"
	"github.com/dmitrijs2005/safewatch/internal/server/realtime"
	"github.com/dmitrijs2005/safewatch/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/safewatch/internal/server/services"
	"github.com/dmitrijs2005/safewatch/internal/server/sms"
)

// sessionPurgeInterval paces the periodic expired-session sweep.
const sessionPurgeInterval = time.Hour

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	metrics  *metrics.Metrics
	hub      *realtime.Hub
	listener *realtime.Listener
	auth     *services.AuthService
	logs     *services.LogService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	sender := newCodeSender(cfg, logger)

	m := metrics.New()
	hub := realtime.NewHub(logger)

	listener := realtime.NewListener(cfg.DatabaseDSN, hub, logger)
	listener.OnPublish(func(n realtime.Notification, delivered int) {
		m.NotificationsDispatched.Add(float64(delivered))
	})

	auth := services.NewAuthService(db, rm, sender, cfg, logger)
	logs := services.NewLogService(db, rm)

	return &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		metrics:  m,
		hub:      hub,
		listener: listener,
		auth:     auth,
		logs:     logs,
	}, nil
}

// newCodeSender picks Twilio when credentials are configured, otherwise
// the log-only sender for development.
func newCodeSender(cfg *config.Config, logger logging.Logger) sms.CodeSender {
	sender, err := sms.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	if err != nil {
		logger.Warn(context.Background(), "twilio not configured, codes will be logged")
		return sms.NewLogSender(logger)
	}
	return sender
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	api := httpapi.NewServer(app.auth, app.logs, app.hub, app.metrics, app.logger)

	srv := &http.Server{
		Addr:        app.config.EndpointAddr,
		Handler:     api.Router(),
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startListener(ctx context.Context) {
	if err := app.listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Error(ctx, err.Error())
	}
}

func (app *App) startSessionPurge(ctx context.Context) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.auth.PurgeExpiredSessions(ctx)
			if err != nil {
				app.logger.Error(ctx, "session purge failed", "error", err.Error())
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "expired sessions purged", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startListener(ctx)
	}()
	go func() {
		defer wg.Done()
		app.startSessionPurge(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
