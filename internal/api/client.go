// Package api implements the HTTP client for the NomNom service. It owns
// the transport concerns the deck deliberately does not: endpoints, bearer
// auth, timeouts, and normalization of upstream record shapes.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/nomnomhq/nomnom/internal/model"
)

// TokenSource supplies the bearer token for authenticated requests.
// Implemented by the session store; requests go out unauthenticated when
// no token is held.
type TokenSource interface {
	Token() (string, bool)
}

// Client talks to the NomNom HTTP API.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client for the API at baseURL. tokens may be nil for
// a client that only performs login and registration.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = model.DefaultAPIBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: model.DefaultRequestTimeout},
		tokens:  tokens,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoginResult is the payload of a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.post(ctx, "/api/login", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, reg model.Registration) error {
	return c.post(ctx, "/api/register", reg, nil)
}

// FetchRecommendations requests the next page of candidates, excluding the
// given ids. An empty slice means the server has nothing further.
func (c *Client) FetchRecommendations(ctx context.Context, excludeIDs []string) ([]model.Restaurant, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}
	var raw struct {
		UserID          string            `json:"user_id"`
		Recommendations []json.RawMessage `json:"recommendations"`
	}
	err := c.post(ctx, "/api/recommend", map[string]any{"exclude_ids": excludeIDs}, &raw)
	if err != nil {
		return nil, err
	}

	out := make([]model.Restaurant, 0, len(raw.Recommendations))
	for _, rec := range raw.Recommendations {
		r, err := NormalizeRecord(rec)
		if err != nil {
			c.log.Warn("dropping malformed recommendation", zap.Error(err))
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// SubmitRating records a 1..5 rating for a restaurant.
func (c *Client) SubmitRating(ctx context.Context, restaurantID string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("api: rating %d out of range 1..5", rating)
	}
	return c.post(ctx, "/api/rate", map[string]any{
		"restaurant_id": restaurantID,
		"rating":        rating,
	}, nil)
}

// Profile fetches the logged-in user's profile, stats, and recent meals.
func (c *Client) Profile(ctx context.Context) (*model.ProfileData, error) {
	var out model.ProfileData
	if err := c.get(ctx, "/api/profile", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile saves the editable profile fields and returns the
// server's view of the updated profile.
func (c *Client) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.Profile, error) {
	var raw struct {
		Message string        `json:"message"`
		User    model.Profile `json:"user"`
	}
	if err := c.post(ctx, "/api/profile/update", upd, &raw); err != nil {
		return nil, err
	}
	return &raw.User, nil
}

// ChangePassword replaces the account password after verifying the
// current one.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.post(ctx, "/api/profile/change-password", map[string]string{
		"currentPassword": current,
		"newPassword":     next,
	}, nil)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, http.MethodPost, path, body, dest)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("api: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{Status: resp.StatusCode, Message: serverMessage(data)}
		c.log.Debug("request rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", serr.Message))
		return serr
	}

	if dest != nil {
		if err := json.Unmarshal(data, dest); err != nil {
			return fmt.Errorf("api: decode response: %w", err)
		}
	}
	return nil
}

// serverMessage pulls the {"message": ...} field the service uses for
// every error payload.
func serverMessage(data []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ""
	}
	return envelope.Message
}
