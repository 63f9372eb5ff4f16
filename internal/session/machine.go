// Package session owns the client-side authentication session: the current
// status and identity, the hydration of a persisted session at startup, and
// the intents that transition between states. The rest of the application
// observes and drives the session exclusively through the Machine.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	slogctx "github.com/veqryn/slog-context"
	"golang.org/x/sync/singleflight"

	"github.com/dayplanhq/dayplan-cli/internal/authapi"
	"github.com/dayplanhq/dayplan-cli/internal/serviceerr"
	"github.com/dayplanhq/dayplan-cli/internal/token"
)

// AuthAPI is the wire surface the machine drives.
type AuthAPI interface {
	Login(ctx context.Context, identifier, password string) (authapi.LoginResult, error)
	Register(ctx context.Context, email, username, password string) (*authapi.Grant, error)
	Refresh(ctx context.Context, refreshToken string) (*authapi.Grant, error)
	Logout(ctx context.Context, accessToken string) error
}

// Machine is the session state machine. It is the single writer of the token
// store and enforces that at most one authentication attempt is outstanding
// at a time; a second sign-in, sign-up or hydration while one is in flight is
// rejected with serviceerr.ErrAttemptInFlight rather than interleaved.
type Machine struct {
	api    AuthAPI
	tokens token.Store
	now    func() time.Time

	mu        sync.Mutex
	status    Status
	user      *authapi.UserIdentity
	challenge *authapi.TwoFactorChallenge
	attempt   bool
	closed    bool

	// epoch invalidates outstanding attempts. SignOut bumps it, so an attempt
	// that was on the wire when the user signed out finds its captured epoch
	// stale and discards its result instead of committing it.
	epoch uint64

	refreshGroup singleflight.Group
}

// Option customizes machine construction.
type Option func(*Machine)

// WithClock injects a custom clock (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMachine starts in StatusHydrating; call Hydrate before any other intent.
func NewMachine(api AuthAPI, tokens token.Store, opts ...Option) *Machine {
	m := &Machine{
		api:    api,
		tokens: tokens,
		now:    time.Now,
		status: StatusHydrating,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Snapshot returns the current session view.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Hydrate reconstructs a session from the persisted refresh token. With no
// stored token it settles on StatusUnauthenticated without touching the
// network; a failed refresh clears both token slots and settles there too.
// Hydration failures are silent: the caller simply lands unauthenticated.
// Hydrate is idempotent once the machine has left StatusHydrating.
func (m *Machine) Hydrate(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Snapshot{}, serviceerr.ErrClosed
	}
	if m.status != StatusHydrating {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, nil
	}
	if m.attempt {
		m.mu.Unlock()
		return Snapshot{}, serviceerr.ErrAttemptInFlight
	}
	m.attempt = true
	epoch := m.epoch
	m.mu.Unlock()

	refreshToken, err := m.tokens.RefreshToken(ctx)
	if err != nil {
		slogctx.Warn(ctx, "Could not read the refresh token slot", "error", err)
		return m.settleUnauthenticated(ctx, epoch, true)
	}
	if refreshToken == "" {
		return m.settleUnauthenticated(ctx, epoch, false)
	}

	grant, err := m.api.Refresh(ctx, refreshToken)
	if err != nil {
		slogctx.Debug(ctx, "Hydration refresh failed; starting unauthenticated", "error", err)
		return m.settleUnauthenticated(ctx, epoch, true)
	}

	return m.commitGrant(ctx, epoch, grant)
}

// SignIn resolves to Authenticated, ChallengePending, or leaves the session
// unauthenticated with the failure surfaced to the caller. A failed sign-in
// performs no storage writes.
func (m *Machine) SignIn(ctx context.Context, identifier, password string) (Snapshot, error) {
	epoch, err := m.beginAttempt(StatusUnauthenticated)
	if err != nil {
		return m.Snapshot(), err
	}

	result, err := m.api.Login(ctx, identifier, password)
	if err != nil {
		return m.failAttempt(epoch, err)
	}

	if result.Challenge != nil {
		return m.commitChallenge(epoch, result.Challenge)
	}
	return m.commitGrant(ctx, epoch, result.Grant)
}

// SignUp registers a new account and signs it in.
func (m *Machine) SignUp(ctx context.Context, email, username, password string) (Snapshot, error) {
	epoch, err := m.beginAttempt(StatusUnauthenticated)
	if err != nil {
		return m.Snapshot(), err
	}

	grant, err := m.api.Register(ctx, email, username, password)
	if err != nil {
		return m.failAttempt(epoch, err)
	}
	return m.commitGrant(ctx, epoch, grant)
}

// SignOut clears both token slots and resets the session, attempting a
// best-effort server-side invalidation first. The local teardown happens even
// when the server call fails, and an attempt that is still on the wire is
// invalidated so its eventual result cannot resurrect the cleared session.
func (m *Machine) SignOut(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Snapshot{}, serviceerr.ErrClosed
	}
	accessToken, _ := m.tokens.AccessToken()
	m.mu.Unlock()

	if err := m.api.Logout(ctx, accessToken); err != nil {
		slogctx.Warn(ctx, "Server logout failed; clearing the local session anyway", "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Snapshot{}, serviceerr.ErrClosed
	}
	m.epoch++
	m.attempt = false
	if err := m.tokens.Clear(ctx); err != nil {
		slogctx.Warn(ctx, "Could not clear the token store", "error", err)
	}
	m.user = nil
	m.challenge = nil
	m.status = StatusUnauthenticated
	return m.snapshotLocked(), nil
}

// RefreshAuth attempts exactly one refresh. Concurrent callers are collapsed
// into a single wire call and all observe the same resulting state. A refresh
// failure is terminal: both token slots are cleared and the session resets to
// StatusUnauthenticated with no retry and no fallback to the cached identity.
func (m *Machine) RefreshAuth(ctx context.Context) (Snapshot, error) {
	type result struct {
		snap Snapshot
		err  error
	}

	v, _, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		snap, err := m.refreshOnce(ctx)
		return result{snap: snap, err: err}, nil
	})

	res := v.(result)
	return res.snap, res.err
}

func (m *Machine) refreshOnce(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Snapshot{}, serviceerr.ErrClosed
	}
	if m.status != StatusAuthenticated {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, serviceerr.ErrNotAuthenticated
	}
	if m.attempt {
		m.mu.Unlock()
		return Snapshot{}, serviceerr.ErrAttemptInFlight
	}
	m.attempt = true
	epoch := m.epoch
	m.mu.Unlock()

	refreshToken, err := m.tokens.RefreshToken(ctx)
	if err != nil || refreshToken == "" {
		slogctx.Warn(ctx, "No usable refresh token; signing out locally", "error", err)
		snap, settleErr := m.settleUnauthenticated(ctx, epoch, true)
		if settleErr != nil {
			return snap, settleErr
		}
		return snap, serviceerr.ErrRefreshExpired
	}

	grant, err := m.api.Refresh(ctx, refreshToken)
	if err != nil {
		slogctx.Warn(ctx, "Session refresh failed; signing out locally", "error", err)
		snap, settleErr := m.settleUnauthenticated(ctx, epoch, true)
		if settleErr != nil {
			return snap, settleErr
		}
		return snap, err
	}

	return m.commitGrant(ctx, epoch, grant)
}

// CompleteChallenge resolves a pending two-factor challenge with the grant
// produced by the verification surface. An expired challenge is treated as
// invalid even if the server never rejected it.
func (m *Machine) CompleteChallenge(ctx context.Context, grant *authapi.Grant) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Snapshot{}, serviceerr.ErrClosed
	}
	if m.status != StatusChallengePending || m.challenge == nil {
		return m.snapshotLocked(), serviceerr.ErrNoChallenge
	}
	if m.challenge.Expired(m.now()) {
		m.challenge = nil
		m.status = StatusUnauthenticated
		return m.snapshotLocked(), serviceerr.ErrChallengeExpired
	}
	if grant == nil || grant.Tokens.AccessToken == "" || grant.Tokens.RefreshToken == "" {
		return m.snapshotLocked(), fmt.Errorf("challenge resolution without tokens: %w", serviceerr.ErrMalformedResponse)
	}

	return m.commitGrantLocked(ctx, grant)
}

// Close tears the machine down. Any in-flight intent's eventual result is
// discarded without mutating session state, and further intents fail with
// serviceerr.ErrClosed. The durable refresh slot is left untouched so the
// next launch can hydrate.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// beginAttempt claims the single attempt slot and captures the epoch the
// attempt must still hold when it settles.
func (m *Machine) beginAttempt(from Status) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, serviceerr.ErrClosed
	}
	if m.attempt {
		return 0, serviceerr.ErrAttemptInFlight
	}
	if m.status != from {
		return 0, fmt.Errorf("%w: intent requires %s, session is %s", serviceerr.ErrInvalidTransition, from, m.status)
	}
	m.attempt = true
	return m.epoch, nil
}

// failAttempt surfaces an intent failure without touching session state or
// storage.
func (m *Machine) failAttempt(epoch uint64, err error) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Snapshot{}, serviceerr.ErrClosed
	}
	if m.epoch != epoch {
		return m.snapshotLocked(), err
	}
	m.attempt = false
	return m.snapshotLocked(), err
}

// settleUnauthenticated ends the current attempt in StatusUnauthenticated,
// optionally wiping both token slots. A stale attempt settles into whatever
// superseded it without mutating anything.
func (m *Machine) settleUnauthenticated(ctx context.Context, epoch uint64, clearSlots bool) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Snapshot{}, serviceerr.ErrClosed
	}
	if m.epoch != epoch {
		return m.snapshotLocked(), nil
	}
	m.attempt = false
	if clearSlots {
		if err := m.tokens.Clear(ctx); err != nil {
			slogctx.Warn(ctx, "Could not clear the token store", "error", err)
		}
	}
	m.user = nil
	m.challenge = nil
	m.status = StatusUnauthenticated
	return m.snapshotLocked(), nil
}

func (m *Machine) commitChallenge(epoch uint64, challenge *authapi.TwoFactorChallenge) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Snapshot{}, serviceerr.ErrClosed
	}
	if m.epoch != epoch {
		return m.snapshotLocked(), serviceerr.ErrNotAuthenticated
	}
	m.attempt = false
	if !canTransition(m.status, StatusChallengePending) {
		return m.snapshotLocked(), fmt.Errorf("%w: %s -> %s", serviceerr.ErrInvalidTransition, m.status, StatusChallengePending)
	}

	// The challenge deliberately withholds identity and tokens until the
	// second factor resolves.
	c := *challenge
	m.challenge = &c
	m.user = nil
	m.status = StatusChallengePending
	return m.snapshotLocked(), nil
}

func (m *Machine) commitGrant(ctx context.Context, epoch uint64, grant *authapi.Grant) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Snapshot{}, serviceerr.ErrClosed
	}
	if m.epoch != epoch {
		return m.snapshotLocked(), serviceerr.ErrNotAuthenticated
	}
	m.attempt = false
	return m.commitGrantLocked(ctx, grant)
}

// commitGrantLocked replaces the token pair and identity atomically. A failed
// durable write aborts the whole commit so a fresh token is never paired with
// a stale identity.
func (m *Machine) commitGrantLocked(ctx context.Context, grant *authapi.Grant) (Snapshot, error) {
	if !canTransition(m.status, StatusAuthenticated) {
		return m.snapshotLocked(), fmt.Errorf("%w: %s -> %s", serviceerr.ErrInvalidTransition, m.status, StatusAuthenticated)
	}

	if err := m.tokens.SetRefreshToken(ctx, grant.Tokens.RefreshToken); err != nil {
		if clearErr := m.tokens.Clear(ctx); clearErr != nil {
			slogctx.Warn(ctx, "Could not clear the token store", "error", clearErr)
		}
		m.user = nil
		m.challenge = nil
		m.status = StatusUnauthenticated
		return m.snapshotLocked(), fmt.Errorf("persisting refresh token: %w", err)
	}

	m.tokens.SetAccessToken(grant.Tokens.AccessToken)
	user := grant.User
	m.user = &user
	m.challenge = nil
	m.status = StatusAuthenticated
	return m.snapshotLocked(), nil
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{Status: m.status}
	if m.user != nil {
		u := *m.user
		snap.User = &u
	}
	if m.challenge != nil {
		c := *m.challenge
		snap.Challenge = &c
	}
	return snap
}
