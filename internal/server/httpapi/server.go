// Package httpapi exposes the server's HTTP surface: phone auth, event
// history snapshots, live SSE streams, device ingest, health and metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/safewatch/internal/common"
	"github.com/dmitrijs2005/safewatch/internal/events"
	"github.com/dmitrijs2005/safewatch/internal/logging"
	"github.com/dmitrijs2005/safewatch/internal/server/metrics"
	"github.com/dmitrijs2005/safewatch/internal/server/realtime"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthService is the slice of the auth layer the API needs.
type AuthService interface {
	RequestCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone string, code string) (string, error)
	Authenticate(ctx context.Context, token string) (string, error)
	SignOut(ctx context.Context, token string) error
}

// LogService is the slice of the event-log layer the API needs.
type LogService interface {
	OtpSnapshot(ctx context.Context, userID string, limit int) ([]events.OtpEvent, error)
	CallSnapshot(ctx context.Context, userID string, limit int) ([]events.CallEvent, error)
	IngestOtp(ctx context.Context, userID string, event *events.OtpEvent) (*events.OtpEvent, error)
	IngestCall(ctx context.Context, userID string, event *events.CallEvent) (*events.CallEvent, error)
}

// Server holds the handler dependencies.
type Server struct {
	auth     AuthService
	logs     LogService
	hub      *realtime.Hub
	metrics  *metrics.Metrics
	log      logging.Logger
	validate *validator.Validate
}

func NewServer(auth AuthService, logs LogService, hub *realtime.Hub, m *metrics.Metrics, log logging.Logger) *Server {
	return &Server{
		auth:     auth,
		logs:     logs,
		hub:      hub,
		metrics:  m,
		log:      log,
		validate: validator.New(),
	}
}

// Router builds the chi router with all routes attached.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.instrument)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/code", s.requestCode)
		r.Post("/auth/verify", s.verifyCode)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/auth/signout", s.signOut)

			r.Get("/logs/otp", s.otpSnapshot)
			r.Get("/logs/calls", s.callSnapshot)
			r.Get("/logs/otp/stream", s.streamOtp)
			r.Get("/logs/calls/stream", s.streamCalls)

			r.Post("/ingest/otp", s.ingestOtp)
			r.Post("/ingest/calls", s.ingestCall)
		})
	})

	return r
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Internal details never reach the client.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidPhone),
		errors.Is(err, common.ErrInvalidCode):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrCodeExpired),
		errors.Is(err, common.ErrCodeUsed),
		errors.Is(err, common.ErrorUnauthorized):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, common.ErrTooManyAttempts):
		respondError(w, http.StatusTooManyRequests, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
