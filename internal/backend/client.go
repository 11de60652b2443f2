// Package backend is the REST client for the marketplace backend API. All
// business logic (matching, scheduling, payments, persistence) lives there;
// portal-front only completes logins against it.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/homeshine/portal-front/internal/log"
	"github.com/homeshine/portal-front/internal/session"
	"github.com/homeshine/portal-front/internal/urlutil"
)

// Client calls the marketplace backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (used in tests).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExchangeResult is the backend's answer to a token exchange. AccessToken is
// present only for existing accounts; the remaining fields are echoed to the
// onboarding screen when the account is new.
type ExchangeResult struct {
	IsNewAccount      bool
	AccessToken       string
	UserName          string
	Email             string
	AccountStatus     string
	TemporaryPassword string
	Provider          string
	ProviderID        string
}

// exchangeResponse is the wire shape of the exchange response body
type exchangeResponse struct {
	New        bool   `json:"new"`
	UserName   string `json:"userName"`
	Email      string `json:"email"`
	Status     string `json:"status"`
	Password   string `json:"password"`
	Provider   string `json:"provider"`
	ProviderID string `json:"providerId"`
}

// ExchangeGoogleCode exchanges a Google authorization code for a session
// token via the role-specific backend endpoint. Authorization codes are
// single-use by provider contract; a failed exchange is terminal and the
// user must re-initiate login for a fresh code.
func (c *Client) ExchangeGoogleCode(ctx context.Context, role session.Role, code string) (*ExchangeResult, error) {
	endpoint := urlutil.MustJoinPath(c.baseURL, role.PathSegment(), "auth", "google")

	body, err := json.Marshal(map[string]string{"code": code})
	if err != nil {
		return nil, fmt.Errorf("marshaling exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token exchange returned status %d", resp.StatusCode)
	}

	var payload exchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding exchange response: %w", err)
	}

	result := &ExchangeResult{
		IsNewAccount:      payload.New,
		UserName:          payload.UserName,
		Email:             payload.Email,
		AccountStatus:     payload.Status,
		TemporaryPassword: payload.Password,
		Provider:          payload.Provider,
		ProviderID:        payload.ProviderID,
	}

	if !payload.New {
		result.AccessToken = BearerToken(resp.Header.Get("Authorization"))
	}

	log.LogDebugWithFields("backend", "Token exchange completed", map[string]any{
		"role":  string(role),
		"isNew": payload.New,
	})
	return result, nil
}

// adminLoginResponse is the wire shape of the admin login response body
type adminLoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AdminLogin authenticates an administrator with phone and password. The
// backend signals failure in the body even on 200, so both the status code
// and the success flag are checked.
func (c *Client) AdminLogin(ctx context.Context, phone, password string) (string, error) {
	endpoint := urlutil.MustJoinPath(c.baseURL, "admin", "auth", "login")

	body, err := json.Marshal(map[string]string{"phone": phone, "password": password})
	if err != nil {
		return "", fmt.Errorf("marshaling admin login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building admin login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling admin login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("admin login returned status %d", resp.StatusCode)
	}

	var payload adminLoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding admin login response: %w", err)
	}
	if !payload.Success {
		msg := strings.TrimSpace(payload.Message)
		if msg == "" {
			msg = "admin login rejected"
		}
		return "", fmt.Errorf("admin login failed: %s", msg)
	}

	token := BearerToken(resp.Header.Get("Authorization"))
	if token == "" {
		return "", fmt.Errorf("admin login response missing authorization header")
	}
	return token, nil
}

// BearerToken strips a literal "Bearer " prefix and surrounding whitespace
// from an Authorization header value.
func BearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
