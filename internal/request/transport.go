// Package request provides the authenticated HTTP transport: it attaches the
// current access token to outbound calls and reacts to authorization
// failures by driving exactly one session refresh before retrying.
package request

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	slogctx "github.com/veqryn/slog-context"

	"github.com/dayplanhq/dayplan-cli/internal/config"
	"github.com/dayplanhq/dayplan-cli/internal/serviceerr"
	"github.com/dayplanhq/dayplan-cli/internal/session"
	"github.com/dayplanhq/dayplan-cli/internal/token"
)

// Refresher is the single refresh entry point of the session core. The
// machine deduplicates concurrent invocations, so the transport never has to.
type Refresher interface {
	RefreshAuth(ctx context.Context) (session.Snapshot, error)
}

// Transport authenticates requests. It never sees the refresh token; only
// the volatile access token is attached to request traffic.
type Transport struct {
	base          http.RoundTripper
	tokens        token.Store
	sessions      Refresher
	refreshSkew   time.Duration
	retryAttempts uint64
	now           func() time.Time
}

var _ http.RoundTripper = (*Transport)(nil)

func NewTransport(tokens token.Store, sessions Refresher, cfg config.Request, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:          base,
		tokens:        tokens,
		sessions:      sessions,
		refreshSkew:   cfg.RefreshSkew,
		retryAttempts: cfg.RetryAttempts,
		now:           time.Now,
	}
}

// NewClient wraps the transport in a ready-to-use client.
func NewClient(tokens token.Store, sessions Refresher, server config.Server, cfg config.Request) *http.Client {
	return &http.Client{
		Timeout:   server.Timeout,
		Transport: NewTransport(tokens, sessions, cfg, nil),
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	access, ok := t.tokens.AccessToken()
	if !ok {
		return nil, serviceerr.ErrNotAuthenticated
	}

	// Refresh ahead of a guaranteed rejection when the access token is about
	// to expire. The expiry peek is unverified on purpose: it schedules work,
	// it is not a trust decision.
	if exp, known := accessTokenExpiry(access); known && t.now().Add(t.refreshSkew).After(exp) {
		slogctx.Debug(req.Context(), "Access token near expiry; refreshing ahead of request")
		if _, err := t.sessions.RefreshAuth(req.Context()); err != nil {
			return nil, fmt.Errorf("refreshing session: %w", err)
		}
		if access, ok = t.tokens.AccessToken(); !ok {
			return nil, serviceerr.ErrNotAuthenticated
		}
	}

	resp, err := t.send(req, access)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// One refresh, one retry. A second 401 is returned as-is.
	resp.Body.Close()
	if _, err := t.sessions.RefreshAuth(req.Context()); err != nil {
		return nil, fmt.Errorf("refreshing session: %w", err)
	}
	if access, ok = t.tokens.AccessToken(); !ok {
		return nil, serviceerr.ErrNotAuthenticated
	}
	if req.Body != nil && req.GetBody == nil {
		// The body is spent and cannot be replayed.
		return nil, fmt.Errorf("request unauthorized and not replayable: %w", serviceerr.ErrNotAuthenticated)
	}
	return t.send(req, access)
}

// send performs one authenticated attempt, with transient-failure retries
// for idempotent GETs only. Auth intents never pass through here, so the
// no-retry rule for the session core is preserved.
func (t *Transport) send(req *http.Request, access string) (*http.Response, error) {
	attempt := func(ctx context.Context) (*http.Response, error) {
		clone := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("replaying request body: %w", err)
			}
			clone.Body = body
		}
		clone.Header.Set("Authorization", "Bearer "+access)
		if clone.Header.Get("X-Request-Id") == "" {
			clone.Header.Set("X-Request-Id", uuid.NewString())
		}

		resp, err := t.base.RoundTrip(clone)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", serviceerr.ErrNetwork, err)
		}
		return resp, nil
	}

	if req.Method != http.MethodGet || t.retryAttempts <= 1 {
		return attempt(req.Context())
	}

	var resp *http.Response
	backoff := retry.WithMaxRetries(t.retryAttempts-1, retry.NewFibonacci(100*time.Millisecond))
	err := retry.Do(req.Context(), backoff, func(ctx context.Context) error {
		r, err := attempt(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// accessTokenExpiry peeks at the exp claim of a JWT-shaped access token.
// Opaque tokens report no known expiry.
func accessTokenExpiry(access string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
