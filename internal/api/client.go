// Package api is a client for the chat server's REST collaborators: room list,
// participants, the user directory, online snapshots and unread counts.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/realReloadTime/web-development/internal/envelope"
)

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 10 * time.Second

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("chat api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("chat api: %d %s", e.StatusCode, e.Detail)
}

// Client calls the chat REST API.
type Client struct {
	base   *url.URL
	http   *http.Client
	token  string
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(cl *Client) {
		cl.token = strings.TrimSpace(token)
	}
}

// WithTimeout sets the timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// NewClient returns a client for the API rooted at baseURL, e.g. "http://localhost:8000".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("parse api url: unsupported scheme %q", base.Scheme)
	}

	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "api")
	return c, nil
}

// Rooms lists the rooms of the current user.
func (c *Client) Rooms(ctx context.Context) ([]Room, error) {
	var out []Room
	if err := c.get(ctx, nil, &out, "chat", "rooms"); err != nil {
		return nil, err
	}
	return out, nil
}

// Messages returns one page of a room's stored messages, oldest first.
func (c *Client) Messages(ctx context.Context, roomID string, limit, offset int) ([]envelope.ChatMessage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var out []envelope.ChatMessage
	if err := c.get(ctx, q, &out, "chat", "rooms", roomID, "messages"); err != nil {
		return nil, err
	}
	return out, nil
}

// Participants lists the members of a room.
func (c *Client) Participants(ctx context.Context, roomID string) ([]Participant, error) {
	var out []Participant
	if err := c.get(ctx, nil, &out, "chat", "rooms", roomID, "participants"); err != nil {
		return nil, err
	}
	return out, nil
}

// OnlineUsers returns the server's current online snapshot for a room.
func (c *Client) OnlineUsers(ctx context.Context, roomID string) ([]envelope.OnlineUser, error) {
	var out onlineResponse
	if err := c.get(ctx, nil, &out, "chat", "rooms", roomID, "online"); err != nil {
		return nil, err
	}
	return out.OnlineUsers, nil
}

// UnreadCount returns the unread messages in roomID, or across all rooms when
// roomID is empty.
func (c *Client) UnreadCount(ctx context.Context, roomID string) (int, error) {
	q := url.Values{}
	if roomID != "" {
		q.Set("room_id", roomID)
	}
	var out unreadResponse
	if err := c.get(ctx, q, &out, "chat", "unread"); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

// Users returns the whole user directory.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.get(ctx, nil, &out, "users", "all"); err != nil {
		return nil, err
	}
	return out, nil
}

// Me returns the user the token belongs to.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	if err := c.get(ctx, nil, &out, "users", "me"); err != nil {
		return User{}, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, query url.Values, out any, path ...string) error {
	u := c.base.JoinPath(path...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", u.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("chat api request failed", "path", u.Path, "status", resp.StatusCode)
		return &StatusError{StatusCode: resp.StatusCode, Detail: errorDetail(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", u.Path, err)
	}
	return nil
}

// errorDetail extracts the "detail" field of an error body, if any.
func errorDetail(body io.Reader) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&payload); err != nil {
		return ""
	}
	switch d := payload.Detail.(type) {
	case nil:
		return ""
	case string:
		return d
	default:
		b, _ := json.Marshal(d)
		return string(b)
	}
}
