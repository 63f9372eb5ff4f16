package session

import (
	"github.com/dayplanhq/dayplan-cli/internal/authapi"
)

// Status is the session state tag. Exactly one status is active at a time.
type Status string

const (
	// StatusHydrating is the initial state while a persisted refresh token is
	// being turned back into a session.
	StatusHydrating Status = "hydrating"

	// StatusUnauthenticated means no session exists.
	StatusUnauthenticated Status = "unauthenticated"

	// StatusAuthenticated means a full token pair and identity are held.
	StatusAuthenticated Status = "authenticated"

	// StatusChallengePending means a sign-in attempt is waiting on a second
	// factor. No identity or tokens are held in this state.
	StatusChallengePending Status = "challenge_pending"
)

// transitions is the allowed state graph. Every intent validates its target
// against this table before mutating anything, so the table is the single
// source of truth for session behavior.
var transitions = map[Status][]Status{
	StatusHydrating:        {StatusAuthenticated, StatusUnauthenticated},
	StatusUnauthenticated:  {StatusAuthenticated, StatusChallengePending, StatusUnauthenticated},
	StatusChallengePending: {StatusAuthenticated, StatusUnauthenticated},
	StatusAuthenticated:    {StatusAuthenticated, StatusUnauthenticated},
}

func canTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Snapshot is an immutable view of the session handed to observers. User is
// set only when Status is StatusAuthenticated, Challenge only when Status is
// StatusChallengePending; the two are never populated together.
type Snapshot struct {
	Status    Status
	User      *authapi.UserIdentity
	Challenge *authapi.TwoFactorChallenge
}

// Authenticated reports whether an identity is held.
func (s Snapshot) Authenticated() bool {
	return s.Status == StatusAuthenticated
}
