package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/safewatch/internal/events"
)

type codeRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type verifyRequest struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) requestCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if err := s.auth.RequestCode(r.Context(), req.Phone); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) verifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	token, err := s.auth.VerifyCode(r.Context(), req.Phone, req.Code)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.SignOut(r.Context(), tokenFromContext(r.Context())); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// snapshotLimit parses the optional ?limit= parameter. Invalid values fall
// back to the default; the service clamps the upper bound.
func snapshotLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return limit
}

func (s *Server) otpSnapshot(w http.ResponseWriter, r *http.Request) {
	list, err := s.logs.OtpSnapshot(r.Context(), ownerFromContext(r.Context()), snapshotLimit(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) callSnapshot(w http.ResponseWriter, r *http.Request) {
	list, err := s.logs.CallSnapshot(r.Context(), ownerFromContext(r.Context()), snapshotLimit(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

type otpIngestRequest struct {
	ID           string           `json:"id"`
	SenderNumber string           `json:"sender_number" validate:"required"`
	SenderName   *string          `json:"sender_name"`
	Code         string           `json:"otp_code" validate:"required"`
	Message      string           `json:"message_content" validate:"required"`
	Purpose      *string          `json:"purpose"`
	Location     *events.Location `json:"location"`
	RiskLevel    string           `json:"risk_level" validate:"omitempty,oneof=low medium high"`
	Suspicious   bool             `json:"is_suspicious"`
	ReceivedAt   time.Time        `json:"received_at"`
}

func (s *Server) ingestOtp(w http.ResponseWriter, r *http.Request) {
	var req otpIngestRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	event := &events.OtpEvent{
		ID:           req.ID,
		SenderNumber: req.SenderNumber,
		SenderName:   req.SenderName,
		Code:         req.Code,
		Message:      req.Message,
		Purpose:      req.Purpose,
		Location:     req.Location,
		RiskLevel:    events.RiskLevel(req.RiskLevel),
		Suspicious:   req.Suspicious,
		ReceivedAt:   req.ReceivedAt,
	}

	stored, err := s.logs.IngestOtp(r.Context(), ownerFromContext(r.Context()), event)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.metrics.EventsIngestedTotal.WithLabelValues(string(events.TableOtpLogs)).Inc()
	respondJSON(w, http.StatusCreated, stored)
}

type callIngestRequest struct {
	ID           string           `json:"id"`
	CallerNumber string           `json:"caller_number" validate:"required"`
	CallerName   *string          `json:"caller_name"`
	CallerType   *string          `json:"caller_type" validate:"omitempty,oneof=business personal spam unknown"`
	Duration     int              `json:"call_duration" validate:"gte=0"`
	CallTime     time.Time        `json:"call_time"`
	Spam         bool             `json:"is_spam"`
	Blocked      bool             `json:"is_blocked"`
	Location     *events.Location `json:"location"`
}

func (s *Server) ingestCall(w http.ResponseWriter, r *http.Request) {
	var req callIngestRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	var callerType *events.CallerType
	if req.CallerType != nil {
		ct := events.CallerType(*req.CallerType)
		callerType = &ct
	}

	event := &events.CallEvent{
		ID:           req.ID,
		CallerNumber: req.CallerNumber,
		CallerName:   req.CallerName,
		CallerType:   callerType,
		Duration:     req.Duration,
		CallTime:     req.CallTime,
		Spam:         req.Spam,
		Blocked:      req.Blocked,
		Location:     req.Location,
	}

	stored, err := s.logs.IngestCall(r.Context(), ownerFromContext(r.Context()), event)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.metrics.EventsIngestedTotal.WithLabelValues(string(events.TableCallLogs)).Inc()
	respondJSON(w, http.StatusCreated, stored)
}
