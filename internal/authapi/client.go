// Package authapi translates sign-in, sign-up, refresh and sign-out intents
// into wire calls against the dayplan backend. Every failure is normalized
// into the serviceerr taxonomy at this boundary; nothing downstream has to
// defend against malformed payloads.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/dayplanhq/dayplan-cli/internal/serviceerr"
)

const (
	loginPath    = "/api/v1/auth/login"
	registerPath = "/api/v1/auth/register"
	refreshPath  = "/api/v1/auth/refresh"
	logoutPath   = "/api/v1/auth/logout"
)

// Client is a stateless wire client. Safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: u, httpClient: httpClient}, nil
}

// authResponse is the shared success shape of login, register and refresh.
type authResponse struct {
	Tokens *TokenPair `json:"tokens"`

	UserID           string `json:"user_id"`
	Email            string `json:"email"`
	Username         string `json:"username"`
	DisplayName      string `json:"display_name"`
	Role             string `json:"role"`
	DefaultRouteMode string `json:"default_route_mode"`

	RequiresTwoFA  bool      `json:"requires_twofa"`
	TwoFAMethod    string    `json:"twofa_method"`
	TwoFASessionID string    `json:"twofa_session_id"`
	ExpiresAt      time.Time `json:"expires_at"`

	Message string `json:"message"`
}

// Login resolves to a completed grant, a pending two-factor challenge, or an
// error. "No tokens but challenge present" is a valid outcome, not a fault.
func (c *Client) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	body := map[string]string{
		"identifier": identifier,
		"password":   password,
	}

	resp, err := c.post(ctx, loginPath, body, "")
	if err != nil {
		return LoginResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return LoginResult{}, credentialsRejection(resp)
	}

	var wire authResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return LoginResult{}, fmt.Errorf("decoding login response: %w", serviceerr.ErrMalformedResponse)
	}

	if wire.RequiresTwoFA {
		challenge, err := wire.challenge()
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{Challenge: challenge}, nil
	}

	grant, err := wire.grant()
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Grant: grant}, nil
}

// Register creates an account and resolves straight to a grant.
func (c *Client) Register(ctx context.Context, email, username, password string) (*Grant, error) {
	body := map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	}

	resp, err := c.post(ctx, registerPath, body, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, credentialsRejection(resp)
	}

	var wire authResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding register response: %w", serviceerr.ErrMalformedResponse)
	}

	return wire.grant()
}

// Refresh exchanges the long-lived refresh token for a fresh grant. Any
// rejection or malformed payload is reported as ErrRefreshExpired; the caller
// treats it as terminal for the current session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Grant, error) {
	body := map[string]string{
		"refresh_token": refreshToken,
	}

	resp, err := c.post(ctx, refreshPath, body, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, rejection(resp, serviceerr.ErrRefreshExpired)
	}

	var wire authResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding refresh response: %w", serviceerr.ErrRefreshExpired)
	}

	grant, err := wire.grant()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", serviceerr.ErrRefreshExpired, err)
	}
	return grant, nil
}

// Logout asks the server to invalidate the session. Best effort: callers
// clear local state regardless of the outcome.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	resp, err := c.post(ctx, logoutPath, nil, accessToken)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("logout rejected with status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, accessToken string) (*http.Response, error) {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.JoinPath(path).String(), &payload)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", serviceerr.ErrNetwork, err)
	}
	return resp, nil
}

// rejection drains an error response into the given sentinel, carrying the
// server-provided message when one is present.
func rejection(resp *http.Response, sentinel error) error {
	msg := serverMessage(resp)
	if msg == "" {
		return fmt.Errorf("%w (status %d)", sentinel, resp.StatusCode)
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

// credentialsRejection maps a refused login or register. Only client errors
// mean the credentials were refused; a failing server is not a wrong
// password.
func credentialsRejection(resp *http.Response) error {
	if resp.StatusCode < http.StatusInternalServerError {
		return rejection(resp, serviceerr.ErrInvalidCredentials)
	}
	if msg := serverMessage(resp); msg != "" {
		return fmt.Errorf("authentication request failed (status %d): %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("authentication request failed (status %d)", resp.StatusCode)
}

func serverMessage(resp *http.Response) string {
	var wire struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&wire)

	if wire.Message != "" {
		return wire.Message
	}
	return wire.Error
}

func (r *authResponse) grant() (*Grant, error) {
	if r.Tokens == nil || r.Tokens.AccessToken == "" || r.Tokens.RefreshToken == "" {
		return nil, fmt.Errorf("response missing tokens: %w", serviceerr.ErrMalformedResponse)
	}
	if r.UserID == "" || r.Email == "" || r.Username == "" || r.Role == "" || r.DefaultRouteMode == "" {
		return nil, fmt.Errorf("response missing identity fields: %w", serviceerr.ErrMalformedResponse)
	}

	return &Grant{
		Tokens: *r.Tokens,
		User: UserIdentity{
			ID:               r.UserID,
			Email:            r.Email,
			Username:         r.Username,
			DisplayName:      r.DisplayName,
			Role:             r.Role,
			DefaultRouteMode: r.DefaultRouteMode,
		},
	}, nil
}

func (r *authResponse) challenge() (*TwoFactorChallenge, error) {
	if r.TwoFAMethod == "" || r.TwoFASessionID == "" || r.ExpiresAt.IsZero() {
		return nil, fmt.Errorf("response missing challenge fields: %w", serviceerr.ErrMalformedResponse)
	}

	return &TwoFactorChallenge{
		Method:    r.TwoFAMethod,
		SessionID: r.TwoFASessionID,
		ExpiresAt: r.ExpiresAt,
		Message:   r.Message,
	}, nil
}
