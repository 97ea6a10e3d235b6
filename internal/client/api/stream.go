package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/safewatch/internal/client/feed"
	"github.com/dmitrijs2005/safewatch/internal/common"
	"github.com/dmitrijs2005/safewatch/internal/events"
)

// Stream binds one event table to the snapshot and subscription endpoints.
// It satisfies both feed.Snapshotter and feed.Subscriber.
type Stream[E events.Event] struct {
	c    *Client
	path string
}

// OtpLogs returns the OTP event stream of the authenticated owner.
func OtpLogs(c *Client) *Stream[events.OtpEvent] {
	return &Stream[events.OtpEvent]{c: c, path: "/api/logs/otp"}
}

// CallLogs returns the call event stream of the authenticated owner.
func CallLogs(c *Client) *Stream[events.CallEvent] {
	return &Stream[events.CallEvent]{c: c, path: "/api/logs/calls"}
}

// Snapshot fetches the most recent events, newest first.
func (s *Stream[E]) Snapshot(ctx context.Context, limit int) ([]E, error) {
	var out []E
	path := s.path + "?limit=" + strconv.Itoa(limit)
	if err := s.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrFetchFailed, err)
	}
	return out, nil
}

type sseHandle struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// Close cancels the stream request and waits for the reader to stop. After
// Close returns no further callback fires.
func (h *sseHandle) Close() error {
	h.once.Do(h.cancel)
	h.wg.Wait()
	return nil
}

// Subscribe opens the live Server-Sent Events channel. Each frame carries
// one fully-formed event row, which is decoded and handed to onEvent.
func (s *Stream[E]) Subscribe(ctx context.Context, onEvent func(E)) (feed.Handle, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.c.baseURL+s.path+"/stream", nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	if t := s.c.Token(); t != "" {
		req.Header.Set(common.AuthHeaderName, "Bearer "+t)
	}

	resp, err := s.c.http.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("stream: unexpected status %d", resp.StatusCode)
	}

	h := &sseHandle{cancel: cancel}
	h.wg.Add(1)

	go func() {
		defer h.wg.Done()
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)

		var data strings.Builder
		for scanner.Scan() {
			line := scanner.Text()

			switch {
			case line == "":
				// end of frame
				if data.Len() > 0 {
					var e E
					if err := json.Unmarshal([]byte(data.String()), &e); err != nil {
						s.c.log.Warn(ctx, "dropping undecodable push", "error", err)
					} else {
						onEvent(e)
					}
					data.Reset()
				}
			case strings.HasPrefix(line, "data:"):
				data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			default:
				// event names, ids and comments are not significant here
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			s.c.log.Warn(ctx, "live channel closed", "error", err)
		}
	}()

	return h, nil
}
