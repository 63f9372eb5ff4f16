package authapi

import "time"

// TokenPair is what a completed authentication hands back: the short-lived
// access token and the long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserIdentity is the immutable identity snapshot taken at the moment of a
// successful authentication or refresh. It is replaced wholesale on the next
// successful refresh, never patched field by field.
type UserIdentity struct {
	ID               string `json:"user_id"`
	Email            string `json:"email"`
	Username         string `json:"username"`
	DisplayName      string `json:"display_name,omitempty"`
	Role             string `json:"role"`
	DefaultRouteMode string `json:"default_route_mode"`
}

// Grant bundles the token pair and identity of one completed authentication.
// Callers replace both atomically.
type Grant struct {
	Tokens TokenPair
	User   UserIdentity
}

// TwoFactorChallenge describes a pending, not-yet-completed authentication
// attempt waiting on a second factor.
type TwoFactorChallenge struct {
	Method    string
	SessionID string
	ExpiresAt time.Time
	Message   string
}

// Expired reports whether the challenge deadline has passed. A challenge past
// its deadline is invalid even if the server never rejected it.
func (c TwoFactorChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// LoginResult is the three-way login outcome decided once at the API
// boundary: on a nil error exactly one of Grant or Challenge is non-nil.
type LoginResult struct {
	Grant     *Grant
	Challenge *TwoFactorChallenge
}
