package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/safewatch/internal/events"
	"github.com/dmitrijs2005/safewatch/internal/logging"
	"github.com/jackc/pgx/v5"
)

// channelName is the pg_notify channel the insert triggers publish to.
const channelName = "safewatch_events"

// reconnectDelay paces reconnect attempts after a lost LISTEN connection.
const reconnectDelay = 3 * time.Second

// envelope is the trigger payload: the table name and the inserted row.
type envelope struct {
	Table string          `json:"table"`
	Row   json.RawMessage `json:"row"`
}

// rowOwner extracts just the owner column from a row payload.
type rowOwner struct {
	UserID string `json:"user_id"`
}

// Listener holds a dedicated Postgres connection in LISTEN mode and feeds
// decoded notifications to the hub.
type Listener struct {
	dsn string
	hub *Hub
	log logging.Logger

	// onPublish, when set, observes each delivered notification (metrics).
	onPublish func(n Notification, delivered int)
}

func NewListener(dsn string, hub *Hub, log logging.Logger) *Listener {
	return &Listener{dsn: dsn, hub: hub, log: log}
}

// OnPublish registers an observer called after each dispatch. Must be set
// before Run.
func (l *Listener) OnPublish(fn func(n Notification, delivered int)) {
	l.onPublish = fn
}

// Run listens until the context is cancelled, reconnecting on failures.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.log.Error(ctx, "notification listener disconnected", "error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
		return err
	}
	l.log.Info(ctx, "listening for event notifications", "channel", channelName)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.dispatch(ctx, notification.Payload)
	}
}

// dispatch decodes one trigger payload and routes it. Undecodable payloads
// are logged and skipped; one bad row must not take the listener down.
func (l *Listener) dispatch(ctx context.Context, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		l.log.Warn(ctx, "undecodable notification payload", "error", err.Error())
		return
	}

	table := events.Table(env.Table)
	if table != events.TableOtpLogs && table != events.TableCallLogs {
		l.log.Warn(ctx, "notification for unknown table", "table", env.Table)
		return
	}

	var owner rowOwner
	if err := json.Unmarshal(env.Row, &owner); err != nil || owner.UserID == "" {
		l.log.Warn(ctx, "notification row without owner", "table", env.Table)
		return
	}

	n := Notification{Table: table, UserID: owner.UserID, Row: env.Row}
	delivered := l.hub.Publish(ctx, n)
	if l.onPublish != nil {
		l.onPublish(n, delivered)
	}
}
