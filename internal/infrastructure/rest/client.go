// Package rest implements the bearer-token JSON client for the GigaChat API.
package rest

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

	"github.com/rs/zerolog"

	"gigachat/internal/pkg/sync/domain"
	"gigachat/internal/pkg/sync/port"
)

const defaultTimeout = 10 * time.Second

// Client talks to the GigaChat REST API. Safe for concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  zerolog.Logger

	mu    sync.RWMutex
	token string
}

// Option configures the client.
type Option func(*Client)

// WithToken sets the bearer token up front, skipping SignIn.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithLogger sets the client's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ensure interface compliance at compile time
var _ port.API = (*Client)(nil)

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// SignIn authenticates with an email or phone number plus password and
// stores the returned bearer token on the client.
func (c *Client) SignIn(ctx context.Context, emailOrPhone, password string) error {
	body := map[string]string{"password": password}
	if strings.Contains(emailOrPhone, "@") {
		body["email"] = emailOrPhone
	} else {
		body["phone_number"] = emailOrPhone
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/signin", body, &out); err != nil {
		return fmt.Errorf("signin: %w", err)
	}
	c.SetToken(out.Token)
	return nil
}

// Me fetches the current user's profile.
func (c *Client) Me(ctx context.Context) (domain.Contact, error) {
	var me domain.Contact
	if err := c.do(ctx, http.MethodGet, "/profile/me", nil, &me); err != nil {
		return domain.Contact{}, err
	}
	return me, nil
}

// Contacts fetches the full contact list.
func (c *Client) Contacts(ctx context.Context) ([]domain.Contact, error) {
	var contacts []domain.Contact
	if err := c.do(ctx, http.MethodGet, "/profile/all-users", nil, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// History fetches the complete message history with one contact.
func (c *Client) History(ctx context.Context, contactID string) ([]domain.Message, error) {
	var msgs []domain.Message
	if err := c.do(ctx, http.MethodGet, "/messages/"+contactID, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// CreateMessage persists a message via the one-shot REST path and returns
// the server-assigned record.
func (c *Client) CreateMessage(ctx context.Context, senderID, recipientID, content string) (domain.Message, error) {
	body := map[string]string{
		"senderId":    senderID,
		"recipientId": recipientID,
		"content":     content,
	}
	var msg domain.Message
	if err := c.do(ctx, http.MethodPost, "/messages/send", body, &msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// DeleteMessage soft-deletes a message and returns the mutated record.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) (domain.Message, error) {
	var out struct {
		Data domain.Message `json:"data"`
	}
	if err := c.do(ctx, http.MethodDelete, "/messages/"+messageID, nil, &out); err != nil {
		return domain.Message{}, err
	}
	return out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, path, port.ErrAuth)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %s", method, path, readAPIError(resp.Body, resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func readAPIError(body io.Reader, status int) string {
	var apiErr struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&apiErr); err == nil {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiErr.Error != "" {
			return apiErr.Error
		}
	}
	return fmt.Sprintf("unexpected status %d", status)
}
