// Package sessionmock provides an in-memory session.AuthAPI with canned
// results, error injection and call counters for state machine tests.
package sessionmock

import (
	"context"
	"sync"
	"time"

	"github.com/dayplanhq/dayplan-cli/internal/authapi"
	"github.com/dayplanhq/dayplan-cli/internal/session"
)

type APIOption func(*API)

type API struct {
	mu sync.Mutex

	loginResult authapi.LoginResult
	loginErr    error
	loginDelay  time.Duration

	registerGrant *authapi.Grant
	registerErr   error

	refreshGrant *authapi.Grant
	refreshErr   error
	refreshDelay time.Duration

	logoutErr error

	loginCalls    int
	registerCalls int
	refreshCalls  int
	logoutCalls   int
}

func WithLoginGrant(grant authapi.Grant) APIOption {
	return func(a *API) { a.loginResult = authapi.LoginResult{Grant: &grant} }
}

func WithLoginChallenge(challenge authapi.TwoFactorChallenge) APIOption {
	return func(a *API) { a.loginResult = authapi.LoginResult{Challenge: &challenge} }
}

func WithLoginError(err error) APIOption {
	return func(a *API) { a.loginErr = err }
}

// WithLoginDelay holds each login call open, long enough for a competing
// intent to arrive in tests.
func WithLoginDelay(d time.Duration) APIOption {
	return func(a *API) { a.loginDelay = d }
}

func WithRegisterGrant(grant authapi.Grant) APIOption {
	return func(a *API) { a.registerGrant = &grant }
}

func WithRegisterError(err error) APIOption {
	return func(a *API) { a.registerErr = err }
}

func WithRefreshGrant(grant authapi.Grant) APIOption {
	return func(a *API) { a.refreshGrant = &grant }
}

func WithRefreshError(err error) APIOption {
	return func(a *API) { a.refreshErr = err }
}

// WithRefreshDelay holds each refresh call open, long enough for concurrent
// callers to pile up in tests.
func WithRefreshDelay(d time.Duration) APIOption {
	return func(a *API) { a.refreshDelay = d }
}

func WithLogoutError(err error) APIOption {
	return func(a *API) { a.logoutErr = err }
}

var _ = session.AuthAPI(&API{})

func NewAPI(opts ...APIOption) *API {
	a := &API{}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

func (a *API) Login(_ context.Context, _, _ string) (authapi.LoginResult, error) {
	a.mu.Lock()
	a.loginCalls++
	delay := a.loginDelay
	result, err := a.loginResult, a.loginErr
	a.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return authapi.LoginResult{}, err
	}
	return result, nil
}

func (a *API) Register(_ context.Context, _, _, _ string) (*authapi.Grant, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.registerCalls++
	if a.registerErr != nil {
		return nil, a.registerErr
	}
	return a.registerGrant, nil
}

func (a *API) Refresh(_ context.Context, _ string) (*authapi.Grant, error) {
	a.mu.Lock()
	a.refreshCalls++
	delay := a.refreshDelay
	grant, err := a.refreshGrant, a.refreshErr
	a.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return grant, nil
}

func (a *API) Logout(_ context.Context, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logoutCalls++
	return a.logoutErr
}

func (a *API) LoginCalls() int    { a.mu.Lock(); defer a.mu.Unlock(); return a.loginCalls }
func (a *API) RegisterCalls() int { a.mu.Lock(); defer a.mu.Unlock(); return a.registerCalls }
func (a *API) RefreshCalls() int  { a.mu.Lock(); defer a.mu.Unlock(); return a.refreshCalls }
func (a *API) LogoutCalls() int   { a.mu.Lock(); defer a.mu.Unlock(); return a.logoutCalls }
