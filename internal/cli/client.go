// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vigil/internal/api"
	"github.com/tomtom215/vigil/internal/audit"
)

// RemoteError is an error envelope returned by the admin API.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("admin API returned %d", e.StatusCode)
	}
	return fmt.Sprintf("admin API: %s (%s)", e.Message, e.Code)
}

// envelope mirrors api.Response with the payload left undecoded.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *api.APIError   `json:"error"`
}

// Client talks to a running agent's admin API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for baseURL. A bare host:port gets http://.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Status returns the lock status.
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var status api.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Health returns the /healthz report. A degraded agent is not an error.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var health api.HealthResponse
	err := c.do(ctx, http.MethodGet, "/healthz", nil, &health)
	var rerr *RemoteError
	if errors.As(err, &rerr) && rerr.StatusCode == http.StatusServiceUnavailable && health.Status != "" {
		return &health, nil
	}
	if err != nil {
		return nil, err
	}
	return &health, nil
}

// Unlock lifts the current lock.
func (c *Client) Unlock(ctx context.Context) (*api.UnlockResponse, error) {
	var resp api.UnlockResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/unlock", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Bypass reports a bypass attempt.
func (c *Client) Bypass(ctx context.Context, source string) (*api.StatusResponse, error) {
	var status api.StatusResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/bypass", api.BypassRequest{Source: source}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ResetViolations clears the escalation counter.
func (c *Client) ResetViolations(ctx context.Context) (*api.StatusResponse, error) {
	var status api.StatusResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/violations/reset", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// EventsQuery selects journal events.
type EventsQuery struct {
	Types     []string
	EpisodeID string
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

func (q EventsQuery) values() url.Values {
	v := url.Values{}
	if len(q.Types) > 0 {
		v.Set("type", strings.Join(q.Types, ","))
	}
	if q.EpisodeID != "" {
		v.Set("episode_id", q.EpisodeID)
	}
	if q.Since != nil {
		v.Set("since", q.Since.UTC().Format(time.RFC3339))
	}
	if q.Until != nil {
		v.Set("until", q.Until.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

// Events queries the journal.
func (c *Client) Events(ctx context.Context, q EventsQuery) (*api.EventsResponse, error) {
	path := "/api/v1/events"
	if encoded := q.values().Encode(); encoded != "" {
		path += "?" + encoded
	}
	var resp api.EventsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Event fetches one journal event.
func (c *Client) Event(ctx context.Context, id string) (*audit.Event, error) {
	var event audit.Event
	if err := c.do(ctx, http.MethodGet, "/api/v1/events/"+url.PathEscape(id), nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &RemoteError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	if len(env.Data) > 0 && out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	if resp.StatusCode >= http.StatusBadRequest || env.Error != nil {
		rerr := &RemoteError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			rerr.Code = env.Error.Code
			rerr.Message = env.Error.Message
		}
		return rerr
	}
	return nil
}
