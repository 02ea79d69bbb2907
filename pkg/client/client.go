// Package client is a Go client for the Streamify REST API. It decodes the
// response envelope, carries an explicit Session and drives optimistic
// toggles for likes and subscriptions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"streamify/internal/model"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Message, strings.Join(e.Errors, ", "))
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// HasCode reports whether the error carries the given machine-readable code.
func (e *APIError) HasCode(code string) bool {
	for _, c := range e.Errors {
		if c == code {
			return true
		}
	}
	return false
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

// Client calls the API on behalf of one session. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      SessionStore

	mu      sync.RWMutex
	session *Session
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSessionStore persists the session across runs. New loads any stored
// session; Login saves and Logout clears it.
func WithSessionStore(store SessionStore) Option {
	return func(c *Client) { c.store = store }
}

// New builds a client for baseURL, e.g. "http://localhost:8000/api/v1".
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(c)
	}

	session, err := c.store.Load()
	switch {
	case err == nil:
		c.session = session
	case !errors.Is(err, ErrNoSession):
		return nil, fmt.Errorf("load session: %w", err)
	}
	return c, nil
}

// Session returns a copy of the current session, or nil when logged out.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *Client) setSession(s *Session) error {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	if s == nil {
		return c.store.Clear()
	}
	return c.store.Save(s)
}

func (c *Client) tokens() (access, refresh string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return "", ""
	}
	return c.session.AccessToken, c.session.RefreshToken
}

// do sends a JSON request and decodes the envelope's data into out. An
// expired access token is refreshed once and the request retried.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := marshalBody(body)
	if err != nil {
		return err
	}

	err = c.send(ctx, method, path, payload, out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.HasCode(model.CodeTokenExpired) {
		if _, refresh := c.tokens(); refresh != "" {
			if rerr := c.Refresh(ctx); rerr != nil {
				return err
			}
			return c.send(ctx, method, path, payload, out)
		}
	}
	return err
}

// doOnce is do without the refresh-and-retry step.
func (c *Client) doOnce(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := marshalBody(body)
	if err != nil {
		return err
	}
	return c.send(ctx, method, path, payload, out)
}

func marshalBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return payload, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access, _ := c.tokens(); access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode), Errors: []string{}}
		}
		return fmt.Errorf("decode envelope: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		status := env.StatusCode
		if status == 0 {
			status = resp.StatusCode
		}
		errs := env.Errors
		if errs == nil {
			errs = []string{}
		}
		return &APIError{StatusCode: status, Message: env.Message, Errors: errs}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
