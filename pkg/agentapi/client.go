// Package agentapi is the REST/SSE client for the agent server.
package agentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/renatogalera/agentchat/pkg/event"
	"github.com/renatogalera/agentchat/pkg/httpx"
	"github.com/renatogalera/agentchat/pkg/session"
)

// ErrSessionNotFound marks a 404 on a session fetch; callers treat it as a
// reset signal, not a fatal error.
var ErrSessionNotFound = errors.New("session not found")

// StatusError is a non-2xx reply. The response text travels with it so the
// surfaced error shows what the server said.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("server error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, body)
}

// Client talks to one agent server on behalf of one app/user pair.
type Client struct {
	rest      *http.Client
	streaming *http.Client
	baseURL   string
	appName   string
	userID    string
}

// NewClient builds a client for the given server base URL. The SSE calls use
// a dedicated compression-free client so stream bytes arrive unbuffered.
func NewClient(baseURL, appName, userID string) *Client {
	return &Client{
		rest:      httpx.NewRESTClient(0),
		streaming: httpx.NewStreamingClient(),
		baseURL:   strings.TrimRight(baseURL, "/"),
		appName:   appName,
		userID:    userID,
	}
}

type sessionSummary struct {
	ID             string  `json:"id"`
	AppName        string  `json:"appName"`
	UserID         string  `json:"userId"`
	LastUpdateTime float64 `json:"lastUpdateTime"`
	Title          string  `json:"title"`
}

type sessionEvent struct {
	ID        string        `json:"id"`
	Author    string        `json:"author"`
	Timestamp float64       `json:"timestamp"`
	Content   event.Content `json:"content"`
}

type sessionDetail struct {
	sessionSummary
	Events []sessionEvent `json:"events"`
}

func (c *Client) sessionsURL() string {
	return fmt.Sprintf("%s/apps/%s/users/%s/sessions",
		c.baseURL, url.PathEscape(c.appName), url.PathEscape(c.userID))
}

// CreateSession registers a session under the given id and returns the
// server's record of it.
func (c *Client) CreateSession(ctx context.Context, sessionID string) (session.Session, error) {
	payload, err := json.Marshal(map[string]any{
		"sessionId": sessionID,
		"state":     map[string]any{},
		"events":    []any{},
	})
	if err != nil {
		return session.Session{}, fmt.Errorf("marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sessionsURL(), bytes.NewReader(payload))
	if err != nil {
		return session.Session{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var created sessionSummary
	if err := c.doJSON(req, &created); err != nil {
		return session.Session{}, fmt.Errorf("create session: %w", err)
	}
	return c.toSession(created), nil
}

// GetSession fetches one session with its recorded events, already grouped
// into transcript messages. A 404 returns ErrSessionNotFound.
func (c *Client) GetSession(ctx context.Context, sessionID string) (session.Session, []session.Message, error) {
	target := c.sessionsURL() + "/" + url.PathEscape(sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return session.Session{}, nil, fmt.Errorf("create request: %w", err)
	}

	var detail sessionDetail
	if err := c.doJSON(req, &detail); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return session.Session{}, nil, ErrSessionNotFound
		}
		return session.Session{}, nil, fmt.Errorf("get session: %w", err)
	}

	history := make([]session.HistoryEvent, 0, len(detail.Events))
	for _, ev := range detail.Events {
		history = append(history, session.HistoryEvent{
			ID:        ev.ID,
			Author:    ev.Author,
			Timestamp: ev.Timestamp,
			Role:      ev.Content.Role,
			Parts:     ev.Content.Parts,
		})
	}
	return c.toSession(detail.sessionSummary), session.BuildMessages(history), nil
}

// ListSessions returns the user's sessions, newest first.
func (c *Client) ListSessions(ctx context.Context) ([]session.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var summaries []sessionSummary
	if err := c.doJSON(req, &summaries); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]session.Session, 0, len(summaries))
	for _, s := range summaries {
		sessions = append(sessions, c.toSession(s))
	}
	session.SortSessions(sessions)
	return sessions, nil
}

// DeleteSession removes a session on the server.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	target := c.sessionsURL() + "/" + url.PathEscape(sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.rest.Do(req)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	return nil
}

// RunSSE posts a user message and returns the live streaming response.
// The caller owns resp.Body. A non-2xx status is consumed here and returned
// as a *StatusError carrying the response text.
func (c *Client) RunSSE(ctx context.Context, sessionID, text string) (*http.Response, error) {
	payload, err := json.Marshal(map[string]any{
		"appName":   c.appName,
		"userId":    c.userID,
		"sessionId": sessionID,
		"newMessage": map[string]any{
			"role":  "user",
			"parts": []map[string]string{{"text": text}},
		},
		"streaming": true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run_sse", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streaming.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http post: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer closeBody(resp.Body)
		return nil, statusError(resp)
	}
	return resp, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.rest.Do(req)
	if err != nil {
		return fmt.Errorf("http %s: %w", strings.ToLower(req.Method), err)
	}
	defer closeBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) toSession(s sessionSummary) session.Session {
	appName := s.AppName
	if appName == "" {
		appName = c.appName
	}
	userID := s.UserID
	if userID == "" {
		userID = c.userID
	}
	return session.Session{
		ID:         s.ID,
		AppName:    appName,
		UserID:     userID,
		Title:      s.Title,
		LastUpdate: session.NormalizeTimestamp(s.LastUpdateTime),
	}
}

func statusError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
	if err != nil {
		log.Debug().Err(err).Int("status", resp.StatusCode).Msg("Failed to read error response body")
	}
	return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
}

func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		log.Debug().Err(err).Msg("Failed to close response body")
	}
}
