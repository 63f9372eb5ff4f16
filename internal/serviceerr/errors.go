// Package serviceerr declares the error taxonomy shared by the auth session
// core and the request layer. Every failure crossing a package boundary wraps
// exactly one of these sentinels so callers match with errors.Is instead of
// inspecting messages.
package serviceerr

import "errors"

// ErrNetwork marks a transport-level failure with no usable response.
var ErrNetwork = errors.New("network failure")

// ErrInvalidCredentials marks a rejected login or registration.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrMalformedResponse marks a response missing required fields.
var ErrMalformedResponse = errors.New("malformed response")

// ErrRefreshExpired marks a rejected or malformed refresh exchange. It is
// always terminal for the current session.
var ErrRefreshExpired = errors.New("refresh token expired")

// ErrChallengeExpired marks a two-factor challenge whose deadline has passed.
var ErrChallengeExpired = errors.New("challenge expired")

// ErrAttemptInFlight is returned when a sign-in, sign-up or hydration intent
// arrives while another authentication attempt is still outstanding.
var ErrAttemptInFlight = errors.New("authentication attempt already in flight")

// ErrInvalidTransition is returned for an intent that is not legal in the
// current session state.
var ErrInvalidTransition = errors.New("invalid session state transition")

// ErrNotAuthenticated is returned by the request layer when no session exists.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrNoChallenge is returned when resolving a challenge that is not pending.
var ErrNoChallenge = errors.New("no pending challenge")

// ErrClosed is returned by a session machine after teardown.
var ErrClosed = errors.New("session machine closed")
