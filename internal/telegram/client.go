// Package telegram links the dayplan account to a Telegram chat. The link
// handoff is a best-effort UX affordance: the deep link is launched, and
// after a short wait the web URL is opened as a fallback, with no server
// confirmation of either.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/dayplanhq/dayplan-cli/internal/serviceerr"
)

const linkPath = "/api/v1/telegram/link"

// Link describes one pending account-link handoff.
type Link struct {
	DeepLink  string    `json:"deep_link"`
	WebLink   string    `json:"web_link"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Opener launches a URL in the user's environment.
type Opener func(ctx context.Context, url string) error

// DefaultOpener shells out to the platform launcher.
func DefaultOpener(ctx context.Context, u string) error {
	launcher := "xdg-open"
	if runtime.GOOS == "darwin" {
		launcher = "open"
	}
	return exec.CommandContext(ctx, launcher, u).Start()
}

// Client talks to the linking endpoint through an authenticated HTTP client.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	return &Client{baseURL: u, httpClient: httpClient}, nil
}

// RequestLink asks the backend for a fresh link handoff.
func (c *Client) RequestLink(ctx context.Context) (Link, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.JoinPath(linkPath).String(), nil)
	if err != nil {
		return Link{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Link{}, fmt.Errorf("requesting telegram link: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Link{}, fmt.Errorf("telegram link request failed with status %d", resp.StatusCode)
	}

	var link Link
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return Link{}, fmt.Errorf("decoding telegram link response: %w", serviceerr.ErrMalformedResponse)
	}
	if link.DeepLink == "" || link.WebLink == "" || link.Code == "" {
		return Link{}, fmt.Errorf("telegram link response incomplete: %w", serviceerr.ErrMalformedResponse)
	}

	return link, nil
}

// Open launches the deep link, waits, then opens the web fallback. There is
// no way to observe whether the deep link actually reached a Telegram app,
// so failures are logged and swallowed; the session core never depends on
// this outcome.
func (l Link) Open(ctx context.Context, wait time.Duration, open Opener) {
	if open == nil {
		open = DefaultOpener
	}

	if err := open(ctx, l.DeepLink); err != nil {
		slogctx.Debug(ctx, "Deep link launch failed; falling back to the web link", "error", err)
		if err := open(ctx, l.WebLink); err != nil {
			slogctx.Warn(ctx, "Could not open the telegram web link", "error", err)
		}
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(wait):
	}

	if err := open(ctx, l.WebLink); err != nil {
		slogctx.Warn(ctx, "Could not open the telegram web link", "error", err)
	}
}
