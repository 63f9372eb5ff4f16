// Package token holds the client's credential slots: the short-lived access
// token in volatile memory and the long-lived refresh token in durable client
// storage. The package has no knowledge of the network or the session state
// machine; only the state machine writes to it.
package token

import "context"

// Store is the process-wide token holder. The access token never touches
// durable storage; the refresh token never lives anywhere else.
type Store interface {
	// AccessToken returns the in-memory access token, if one is set.
	AccessToken() (string, bool)

	// SetAccessToken replaces the in-memory access token.
	SetAccessToken(token string)

	// RefreshToken reads the durable slot. An absent slot is ("", nil); an
	// error means the slot could not be read at all.
	RefreshToken(ctx context.Context) (string, error)

	// SetRefreshToken replaces the durable slot. The write is visible to
	// future process launches.
	SetRefreshToken(ctx context.Context, token string) error

	// Clear wipes both slots. It is idempotent.
	Clear(ctx context.Context) error
}
