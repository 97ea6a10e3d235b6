// Package api implements the HTTP transport the client core runs on: JSON
// snapshot queries, a Server-Sent Events subscription channel, and the
// phone-verification auth calls. The feed package consumes it through the
// Snapshotter and Subscriber interfaces, so tests can swap it out entirely.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/safewatch/internal/common"
	"github.com/dmitrijs2005/safewatch/internal/logging"
)

// Client is an authenticated connection to a SafeWatch server. The access
// token obtained by VerifyCode scopes every query and subscription to its
// owner.
type Client struct {
	baseURL string
	http    *http.Client
	log     logging.Logger

	mu    sync.RWMutex
	token string
}

// New creates a client for the given server base URL, e.g.
// "http://localhost:8080".
func New(baseURL string, log logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// no global timeout: the SSE stream request is long-lived
		http: &http.Client{},
		log:  log,
	}
}

// Token returns the current access token, empty when signed out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(t string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = t
}

// LoggedIn reports whether the client holds an access token.
func (c *Client) LoggedIn() bool {
	return c.Token() != ""
}

type errorResponse struct {
	Error string `json:"error"`
}

// doJSON performs one request/response exchange. A non-2xx status is
// converted into an error carrying the backend-provided message.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.Token(); t != "" {
		req.Header.Set(common.AuthHeaderName, "Bearer "+t)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err == nil && er.Error != "" {
			return fmt.Errorf("server: %s", er.Error)
		}
		return fmt.Errorf("server: unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
