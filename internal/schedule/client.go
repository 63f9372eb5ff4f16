// Package schedule fetches the user's agenda from the authenticated API.
// Responses are cached briefly so repeated invocations within a session do
// not hammer the backend.
package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dayplanhq/dayplan-cli/internal/serviceerr"
)

const agendaPath = "/api/v1/schedule/agenda"

// Entry is one scheduled item of a day.
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Location  string    `json:"location,omitempty"`
	RouteMode string    `json:"route_mode,omitempty"`
}

// Client reads schedule data through an authenticated HTTP client; token
// handling lives entirely in the transport it is given.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	cache      *gocache.Cache
}

func NewClient(baseURL string, httpClient *http.Client, ttl time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	return &Client{
		baseURL:    u,
		httpClient: httpClient,
		cache:      gocache.New(ttl, 2*ttl),
	}, nil
}

// Agenda returns the entries of one day (YYYY-MM-DD). Cached responses are
// served until their TTL passes unless bypassCache is set.
func (c *Client) Agenda(ctx context.Context, day string, bypassCache bool) ([]Entry, error) {
	if !bypassCache {
		if cached, ok := c.cache.Get(day); ok {
			return cached.([]Entry), nil
		}
	}

	u := c.baseURL.JoinPath(agendaPath)
	q := u.Query()
	q.Set("date", day)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching agenda: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agenda request failed with status %d", resp.StatusCode)
	}

	var wire struct {
		Entries []Entry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding agenda response: %w", serviceerr.ErrMalformedResponse)
	}

	c.cache.Set(day, wire.Entries, gocache.DefaultExpiration)

	return wire.Entries, nil
}
