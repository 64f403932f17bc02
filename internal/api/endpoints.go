package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"photodeck/internal/model"
)

// LoginResult is the payload of a successful login.
type LoginResult struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         model.User `json:"user"`
}

// ChatTurn is one role/content pair of the conversation history sent to the
// assistant. Transport metadata (IDs, delivery status) never appears here.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is the assistant's answer.
type ChatReply struct {
	Answer    string `json:"answer"`
	Provider  string `json:"provider,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// HistoryList is the activity history payload.
type HistoryList struct {
	History []model.HistoryItem `json:"history"`
	Count   int                 `json:"count"`
}

// HealthStatus is the liveness probe response. The health endpoint does not
// use the shared envelope.
type HealthStatus struct {
	Status    string `json:"status"`
	App       string `json:"app,omitempty"`
	Version   string `json:"version,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Login exchanges credentials for a token pair and the user identity.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	payload := map[string]string{"username": username, "password": password}
	var res LoginResult
	if err := c.postJSON(ctx, "/auth/login", "", payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Register creates an account. It returns the server confirmation message;
// registration never yields a session.
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	payload := map[string]string{"username": username, "email": email, "password": password}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal /auth/register request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/register", "", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set(headerContentType, contentTypeJSON)

	env, err := c.do(req)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// RefreshToken exchanges a refresh token for a new access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	var res struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.postJSON(ctx, "/auth/refresh", refreshToken, struct{}{}, &res); err != nil {
		return "", err
	}
	return res.AccessToken, nil
}

// ListPhotos fetches the full photo collection for the current session.
func (c *Client) ListPhotos(ctx context.Context) ([]model.Photo, error) {
	var photos []model.Photo
	if err := c.getJSON(ctx, "/photos/", &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

// Stats fetches the dashboard aggregate snapshot.
func (c *Client) Stats(ctx context.Context) (model.Stats, error) {
	var stats model.Stats
	if err := c.getJSON(ctx, "/dashboard/stats", &stats); err != nil {
		return model.Stats{}, err
	}
	return stats, nil
}

// History fetches the activity history.
func (c *Client) History(ctx context.Context) (*HistoryList, error) {
	var list HistoryList
	if err := c.getJSON(ctx, "/history/", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UploadPhoto submits a photo as a multipart form with the single binary
// field "photo" and returns the registered photo metadata.
func (c *Client) UploadPhoto(ctx context.Context, filename string, r io.Reader) (*model.Photo, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(uploadFieldName, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read photo data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/photos/upload", c.token(), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set(headerContentType, mw.FormDataContentType())
	req.Header.Set(headerRequestID, newUploadRequestID())

	c.logger.Info("Uploading photo", zap.String("filename", filename))

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var photo model.Photo
	if env.Data != nil {
		if err := json.Unmarshal(env.Data, &photo); err != nil {
			return nil, fmt.Errorf("failed to decode upload response: %w", err)
		}
	}
	return &photo, nil
}

// Media downloads a stored image and reports its content type.
func (c *Client) Media(ctx context.Context, filename string) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, mediaPath(filename), c.token(), nil)
	if err != nil {
		return nil, "", err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "", fmt.Errorf("rate limiter wait: %w", err)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", unavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, "", fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", &Error{Message: "media not available", StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", unavailable(err)
	}
	return data, resp.Header.Get(headerContentType), nil
}

// Chat sends one user message plus the prior conversation history and returns
// the assistant reply. provider may be empty for the backend default.
func (c *Client) Chat(ctx context.Context, message string, history []ChatTurn, provider string) (*ChatReply, error) {
	if history == nil {
		history = []ChatTurn{}
	}
	payload := map[string]interface{}{
		"message": message,
		"history": history,
	}
	if provider != "" {
		payload["provider"] = provider
	}
	var reply ChatReply
	if err := c.postJSON(ctx, "/chat/", c.token(), payload, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Health probes backend liveness. Fire and forget; no session required.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", "", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable(err)
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &hs, nil
}
