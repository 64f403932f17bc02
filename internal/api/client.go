// Package api implements the REST client for the photo-management backend.
//
// Every JSON endpoint shares the same response envelope
// {status, data, message}; any status other than "success" is an
// application-level failure regardless of the HTTP status code.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerRequestID     = "X-Request-ID"
	bearerPrefix        = "Bearer "
	contentTypeJSON     = "application/json"

	statusSuccess = "success"

	uploadFieldName = "photo"
)

// Envelope is the uniform wrapper used by every backend JSON response.
type Envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// TokenFunc supplies the current bearer token, or "" when logged out.
// The client never owns authentication state.
type TokenFunc func() string

// Client talks to the photo-management backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	limiter    *rate.Limiter
	token      TokenFunc
}

// New creates a Client for the given normalized base URL. tokens may be nil
// for a client that only calls unauthenticated endpoints.
func New(baseURL string, tokens TokenFunc, logger *zap.Logger) *Client {
	if tokens == nil {
		tokens = func() string { return "" }
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
		token:      tokens,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(h *http.Client) { c.httpClient = h }

// SetLimiter installs a client-side politeness throttle applied to every
// outgoing request.
func (c *Client) SetLimiter(l *rate.Limiter) { c.limiter = l }

// BaseURL returns the resolved base URL the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) newRequest(ctx context.Context, method, path, auth string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if auth != "" {
		req.Header.Set(headerAuthorization, bearerPrefix+auth)
	}
	return req, nil
}

// do executes the request and decodes the shared envelope. A transport error
// maps to ErrBackendUnavailable, a 401/403 to ErrUnauthorized, and a
// non-success envelope status to *Error carrying the server message.
func (c *Client) do(req *http.Request) (*Envelope, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Request never reached backend",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return nil, unavailable(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable(err)
	}

	var env Envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		msg := env.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	}

	if decodeErr != nil {
		c.logger.Warn("Failed to decode response envelope",
			zap.String("path", req.URL.Path),
			zap.Int("statusCode", resp.StatusCode),
			zap.Error(decodeErr))
		return nil, &Error{Message: genericFailureMessage, StatusCode: resp.StatusCode}
	}

	if env.Status != statusSuccess {
		c.logger.Info("Backend reported failure",
			zap.String("path", req.URL.Path),
			zap.Int("statusCode", resp.StatusCode),
			zap.String("message", env.Message))
		return nil, &Error{Message: env.Message, StatusCode: resp.StatusCode}
	}

	return &env, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, c.token(), nil)
	if err != nil {
		return err
	}
	env, err := c.do(req)
	if err != nil {
		return err
	}
	if out == nil || env.Data == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path, auth string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", path, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, auth, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set(headerContentType, contentTypeJSON)

	env, err := c.do(req)
	if err != nil {
		return err
	}
	if out == nil || env.Data == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// mediaPath builds the authorized media URL for a stored filename.
func mediaPath(filename string) string {
	return "/dashboard/media/" + url.PathEscape(filename)
}

func newUploadRequestID() string {
	return uuid.New().String()
}
