package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/safewatch/internal/events"
)

func (s *Server) streamOtp(w http.ResponseWriter, r *http.Request) {
	s.stream(w, r, events.TableOtpLogs)
}

func (s *Server) streamCalls(w http.ResponseWriter, r *http.Request) {
	s.stream(w, r, events.TableCallLogs)
}

// stream serves one Server-Sent Events connection: each message is the
// full JSON row of a newly inserted event for the authenticated owner.
// The handler returns when the client disconnects or the hub drops the
// subscriber.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, table events.Table) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	owner := ownerFromContext(r.Context())
	ch, cancel := s.hub.Subscribe(owner, table)
	defer cancel()

	s.metrics.StreamClients.Inc()
	defer s.metrics.StreamClients.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case row, ok := <-ch:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", row); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
