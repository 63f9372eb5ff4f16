package serviceerr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dayplanhq/dayplan-cli/internal/serviceerr"
)

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		serviceerr.ErrNetwork,
		serviceerr.ErrInvalidCredentials,
		serviceerr.ErrMalformedResponse,
		serviceerr.ErrRefreshExpired,
		serviceerr.ErrChallengeExpired,
		serviceerr.ErrAttemptInFlight,
		serviceerr.ErrInvalidTransition,
		serviceerr.ErrNotAuthenticated,
		serviceerr.ErrNoChallenge,
		serviceerr.ErrClosed,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v must not match %v", a, b)
		}
	}
}

func TestWrappedSentinelMatches(t *testing.T) {
	err := fmt.Errorf("signing in: %w: %s", serviceerr.ErrInvalidCredentials, "wrong password")
	assert.ErrorIs(t, err, serviceerr.ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "wrong password")
}
