// ABOUTME: HTTP client for the site content and admin auth API
// ABOUTME: Attaches the stored token to every call and forces sign-out when the server rejects it

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/kestreladvisory/site-console/internal/session"
)

// InvalidTokenMessage is the server message that marks a session as dead.
// Other 401 responses are passed through as ordinary errors.
const InvalidTokenMessage = "Token is not valid"

// ErrSessionInvalidated matches errors returned after a forced sign-out
var ErrSessionInvalidated = errors.New("session invalidated")

// APIError is a non-2xx response from the backend
type APIError struct {
	Status      int
	Message     string
	Invalidated bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend error: %s", e.Message)
}

// Is lets errors.Is(err, ErrSessionInvalidated) see forced sign-outs
func (e *APIError) Is(target error) bool {
	return target == ErrSessionInvalidated && e.Invalidated
}

// InvalidationPolicy decides whether an API error ends the session
type InvalidationPolicy func(*APIError) bool

// ExactMessagePolicy treats only 401 + InvalidTokenMessage as invalidation
func ExactMessagePolicy(e *APIError) bool {
	return e.Status == http.StatusUnauthorized && e.Message == InvalidTokenMessage
}

// ErrorResponse represents an API error body. The backend uses "message";
// "error" is accepted for older endpoints.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Client is the API client for the site backend
type Client struct {
	baseURL     string
	httpClient  *http.Client
	store       session.Store
	navigator   session.Navigator
	invalidates InvalidationPolicy
}

// Option customizes a Client
type Option func(*Client)

// WithStore sets the token store read on every request
func WithStore(s session.Store) Option {
	return func(c *Client) { c.store = s }
}

// WithNavigator sets what runs after a forced sign-out
func WithNavigator(n session.Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithInvalidationPolicy replaces ExactMessagePolicy
func WithInvalidationPolicy(p InvalidationPolicy) Option {
	return func(c *Client) { c.invalidates = p }
}

// New creates a new API client with the given base URL.
// Requests have no client-side timeout; cancel the context to abandon one.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{},
		invalidates: ExactMessagePolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends one JSON request through the pipeline: token attach, dispatch,
// invalidation check, decode.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal input: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	c.attachToken(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	slog.Debug("API request", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := c.handleErrorResponse(resp)
		if c.invalidates != nil && c.invalidates(apiErr) {
			apiErr.Invalidated = true
			c.forceSignOut(path, requestID)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// attachToken sets the Authorization header to the raw stored token
func (c *Client) attachToken(req *http.Request) {
	if c.store == nil {
		return
	}
	if s, ok := c.store.Get(); ok {
		req.Header.Set("Authorization", s.Token)
	}
}

// forceSignOut clears credentials and redirects before the caller sees the error
func (c *Client) forceSignOut(path, requestID string) {
	slog.Warn("Session rejected by backend, signing out", "path", path, "request_id", requestID)

	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			slog.Error("Failed to clear session", "error", err)
		}
	}
	if c.navigator != nil {
		c.navigator.RedirectToLogin()
	}
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return fmt.Errorf("request canceled")
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("request timed out")
	}
	return fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, err)
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return apiErr
	}
	apiErr.Message = errResp.Message
	if apiErr.Message == "" {
		apiErr.Message = errResp.Error
	}
	return apiErr
}

// ErrorMessage returns the server's message for an *APIError, or the
// error text otherwise.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
