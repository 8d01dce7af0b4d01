// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package client is a typed client of the pathmon HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/telekom/pathmon/internal/logger"
	"github.com/telekom/pathmon/pkg/api"
	"github.com/telekom/pathmon/pkg/session"
	"github.com/telekom/pathmon/pkg/store"
)

// DefaultURL is the address of a local pathmon API.
const DefaultURL = "http://localhost:8080"

// ErrResponse is returned for every response with an unexpected status code.
type ErrResponse struct {
	StatusCode int
	Message    string
}

func (e *ErrResponse) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// Is maps the status codes of the API back to the errors causing them.
func (e *ErrResponse) Is(target error) bool {
	switch target {
	case session.ErrInvalidTransition:
		return e.StatusCode == http.StatusConflict
	case store.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case store.ErrPersistence:
		return e.StatusCode == http.StatusUnprocessableEntity
	default:
		return false
	}
}

// View selects the part of a snapshot the API returns.
type View struct {
	// Window limits the time series to this trailing duration. Zero returns the full series.
	Window time.Duration
	// Summary omits the time series.
	Summary bool
}

func (v View) query() url.Values {
	q := url.Values{}
	if v.Window > 0 {
		q.Set("window", v.Window.String())
	}
	if v.Summary {
		q.Set("summary", "true")
	}
	return q
}

// Client talks to a pathmon API.
type Client struct {
	baseURL *url.URL
	client  *http.Client
}

// New creates a client for the API at baseURL. A nil http client selects [http.DefaultClient].
func New(baseURL string, c *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}
	if c == nil {
		c = http.DefaultClient
	}
	return &Client{baseURL: u, client: c}, nil
}

// Snapshot returns the current session.
func (c *Client) Snapshot(ctx context.Context, v View) (*session.Snapshot, error) {
	var s session.Snapshot
	if err := c.do(ctx, http.MethodGet, "/v1/session", v.query(), nil, http.StatusOK, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Start starts a session for target. The discovery continues in the background.
func (c *Client) Start(ctx context.Context, target string, interval time.Duration) (*api.StartResponse, error) {
	req := api.StartRequest{Target: target, IntervalSeconds: interval.Seconds()}
	var resp api.StartResponse
	if err := c.do(ctx, http.MethodPost, "/v1/session", nil, req, http.StatusAccepted, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Pause pauses the session.
func (c *Client) Pause(ctx context.Context) (*session.Snapshot, error) {
	return c.transition(ctx, "pause")
}

// Resume resumes the session.
func (c *Client) Resume(ctx context.Context) (*session.Snapshot, error) {
	return c.transition(ctx, "resume")
}

// Stop stops the session.
func (c *Client) Stop(ctx context.Context) (*session.Snapshot, error) {
	return c.transition(ctx, "stop")
}

func (c *Client) transition(ctx context.Context, op string) (*session.Snapshot, error) {
	var s session.Snapshot
	if err := c.do(ctx, http.MethodPost, "/v1/session/"+op, nil, nil, http.StatusOK, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save saves the current session on the server and returns its name.
func (c *Client) Save(ctx context.Context) (string, error) {
	var resp api.SaveResponse
	if err := c.do(ctx, http.MethodPost, "/v1/session/save", nil, nil, http.StatusCreated, &resp); err != nil {
		return "", err
	}
	return resp.Name, nil
}

// List returns the saved sessions, most recent first.
func (c *Client) List(ctx context.Context) ([]store.Entry, error) {
	var entries []store.Entry
	if err := c.do(ctx, http.MethodGet, "/v1/sessions", nil, nil, http.StatusOK, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Load returns a saved session.
func (c *Client) Load(ctx context.Context, name string, v View) (*session.Snapshot, error) {
	var s session.Snapshot
	if err := c.do(ctx, http.MethodGet, "/v1/sessions/"+name, v.query(), nil, http.StatusOK, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Restore makes a saved session the current one.
func (c *Client) Restore(ctx context.Context, name string) (*session.Snapshot, error) {
	var s session.Snapshot
	path := "/v1/sessions/" + name + "/restore"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, http.StatusOK, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Export writes the current session in the given format to w and
// returns the file name suggested by the server.
func (c *Client) Export(ctx context.Context, f store.ExportFormat, w io.Writer) (string, error) {
	return c.export(ctx, "/v1/session/export", f, w)
}

// ExportSaved writes a saved session in the given format to w and
// returns the file name suggested by the server.
func (c *Client) ExportSaved(ctx context.Context, name string, f store.ExportFormat, w io.Writer) (string, error) {
	return c.export(ctx, "/v1/sessions/"+name+"/export", f, w)
}

func (c *Client) export(ctx context.Context, path string, f store.ExportFormat, w io.Writer) (string, error) {
	q := url.Values{}
	q.Set("format", string(f))
	resp, err := c.send(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return "", err
	}
	defer closeBody(ctx, resp)

	if resp.StatusCode != http.StatusOK {
		return "", responseError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("failed to read export: %w", err)
	}

	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	if err != nil {
		return "", nil
	}
	return params["filename"], nil
}

// Stream calls fn with every snapshot pushed by the server until the
// context is canceled, the server ends the stream or fn returns an error.
func (c *Client) Stream(ctx context.Context, v View, fn func(session.Snapshot) error) error {
	u := c.url("/v1/session/stream", v.query())
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		defer closeBody(ctx, resp)
	}
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return responseError(resp)
		}
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		var s session.Snapshot
		if err := conn.ReadJSON(&s); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read stream: %w", err)
		}
		if err := fn(s); err != nil {
			return err
		}
	}
}

// do sends a JSON request and decodes the JSON response if it has the wanted status.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any, want int, out any) error {
	resp, err := c.send(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	defer closeBody(ctx, resp)

	if resp.StatusCode != want {
		return responseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, q url.Values, body any) (*http.Response, error) {
	var r io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, q).String(), r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.FromContext(ctx).DebugContext(ctx, "Request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func (c *Client) url(path string, q url.Values) *url.URL {
	u := *c.baseURL
	u.Path += path
	u.RawPath = ""
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return &u
}

func responseError(resp *http.Response) error {
	e := &ErrResponse{StatusCode: resp.StatusCode}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return errors.Join(e, err)
	}
	var body api.ErrorResponse
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		e.Message = body.Error
	} else {
		e.Message = strings.TrimSpace(string(b))
	}
	return e
}

func closeBody(ctx context.Context, resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logger.FromContext(ctx).DebugContext(ctx, "Failed to close response body", "error", err)
	}
}
