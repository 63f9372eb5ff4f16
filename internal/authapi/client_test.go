package authapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayplanhq/dayplan-cli/internal/authapi"
	"github.com/dayplanhq/dayplan-cli/internal/serviceerr"
)

func authServer(t *testing.T, path string, status int, body map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, path, r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
}

func grantBody() map[string]any {
	return map[string]any{
		"tokens": map[string]string{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
		},
		"user_id":            "u-1",
		"email":              "ada@example.com",
		"username":           "ada",
		"display_name":       "Ada L",
		"role":               "member",
		"default_route_mode": "transit",
	}
}

func TestClientLogin(t *testing.T) {
	expiresAt := time.Now().Add(5 * time.Minute).UTC().Truncate(time.Second)

	tests := []struct {
		name          string
		status        int
		body          map[string]any
		wantGrant     bool
		wantChallenge *authapi.TwoFactorChallenge
		wantErr       error
	}{
		{
			name:      "completed session",
			status:    http.StatusOK,
			body:      grantBody(),
			wantGrant: true,
		},
		{
			name:   "pending challenge",
			status: http.StatusOK,
			body: map[string]any{
				"requires_twofa":   true,
				"twofa_method":     "totp",
				"twofa_session_id": "abc",
				"expires_at":       expiresAt.Format(time.RFC3339),
				"message":          "enter the code from your app",
			},
			wantChallenge: &authapi.TwoFactorChallenge{
				Method:    "totp",
				SessionID: "abc",
				ExpiresAt: expiresAt,
				Message:   "enter the code from your app",
			},
		},
		{
			name:    "rejected",
			status:  http.StatusUnauthorized,
			body:    map[string]any{"message": "unknown identifier or password"},
			wantErr: serviceerr.ErrInvalidCredentials,
		},
		{
			name:    "missing identity fields",
			status:  http.StatusOK,
			body:    map[string]any{"tokens": map[string]string{"access_token": "a", "refresh_token": "r"}},
			wantErr: serviceerr.ErrMalformedResponse,
		},
		{
			name:    "challenge without session id",
			status:  http.StatusOK,
			body:    map[string]any{"requires_twofa": true, "twofa_method": "totp"},
			wantErr: serviceerr.ErrMalformedResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := authServer(t, "/api/v1/auth/login", tt.status, tt.body)
			defer srv.Close()

			client, err := authapi.NewClient(srv.URL, srv.Client())
			require.NoError(t, err)

			got, err := client.Login(context.Background(), "ada", "secret")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			if tt.wantGrant {
				require.NotNil(t, got.Grant)
				assert.Nil(t, got.Challenge, "grant and challenge are mutually exclusive")
				assert.Equal(t, "at-1", got.Grant.Tokens.AccessToken)
				assert.Equal(t, "u-1", got.Grant.User.ID)
				assert.Equal(t, "transit", got.Grant.User.DefaultRouteMode)
				return
			}

			require.NotNil(t, got.Challenge)
			assert.Nil(t, got.Grant)
			if diff := cmp.Diff(tt.wantChallenge, got.Challenge); diff != "" {
				t.Errorf("challenge mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClientLoginCarriesServerMessage(t *testing.T) {
	srv := authServer(t, "/api/v1/auth/login", http.StatusUnauthorized,
		map[string]any{"message": "account locked"})
	defer srv.Close()

	client, err := authapi.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = client.Login(context.Background(), "ada", "secret")
	assert.ErrorIs(t, err, serviceerr.ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "account locked")
}

func TestClientRegister(t *testing.T) {
	srv := authServer(t, "/api/v1/auth/register", http.StatusCreated, grantBody())
	defer srv.Close()

	client, err := authapi.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	grant, err := client.Register(context.Background(), "ada@example.com", "ada", "longenough")
	require.NoError(t, err)
	assert.Equal(t, "rt-1", grant.Tokens.RefreshToken)
	assert.Equal(t, "ada", grant.User.Username)
}

func TestClientRefresh(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    map[string]any
		wantErr error
	}{
		{name: "accepted", status: http.StatusOK, body: grantBody()},
		{
			name:    "rejected",
			status:  http.StatusUnauthorized,
			body:    map[string]any{"message": "refresh token revoked"},
			wantErr: serviceerr.ErrRefreshExpired,
		},
		{
			name:    "malformed",
			status:  http.StatusOK,
			body:    map[string]any{"user_id": "u-1"},
			wantErr: serviceerr.ErrRefreshExpired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := authServer(t, "/api/v1/auth/refresh", tt.status, tt.body)
			defer srv.Close()

			client, err := authapi.NewClient(srv.URL, srv.Client())
			require.NoError(t, err)

			grant, err := client.Refresh(context.Background(), "rt-old")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "at-1", grant.Tokens.AccessToken)
		})
	}
}

func TestClientLogout(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := authapi.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	require.NoError(t, client.Logout(context.Background(), "at-1"))
	assert.Equal(t, "Bearer at-1", gotAuth)
}

func TestClientNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	client, err := authapi.NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = client.Login(context.Background(), "ada", "secret")
	assert.ErrorIs(t, err, serviceerr.ErrNetwork)

	_, err = client.Refresh(context.Background(), "rt")
	assert.ErrorIs(t, err, serviceerr.ErrNetwork)
}

func TestChallengeExpired(t *testing.T) {
	now := time.Now()
	challenge := authapi.TwoFactorChallenge{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, challenge.Expired(now))
	assert.True(t, challenge.Expired(now.Add(2*time.Minute)))
}

func TestClientLoginServerFailureIsNotInvalidCredentials(t *testing.T) {
	srv := authServer(t, "/api/v1/auth/login", http.StatusInternalServerError, map[string]any{
		"message": "temporarily unavailable",
	})
	defer srv.Close()

	client, err := authapi.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = client.Login(context.Background(), "ada", "secret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, serviceerr.ErrInvalidCredentials, "an outage must not read as a wrong password")
	assert.ErrorContains(t, err, "temporarily unavailable")
}

func TestClientRegisterServerFailureIsNotInvalidCredentials(t *testing.T) {
	srv := authServer(t, "/api/v1/auth/register", http.StatusBadGateway, map[string]any{})
	defer srv.Close()

	client, err := authapi.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = client.Register(context.Background(), "ada@example.com", "ada", "secret123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, serviceerr.ErrInvalidCredentials)
	assert.ErrorContains(t, err, "status 502")
}
