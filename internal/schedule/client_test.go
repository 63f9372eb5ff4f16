package schedule_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayplanhq/dayplan-cli/internal/schedule"
	"github.com/dayplanhq/dayplan-cli/internal/serviceerr"
)

func TestAgenda(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "/api/v1/schedule/agenda", r.URL.Path)
		require.Equal(t, "2026-08-31", r.URL.Query().Get("date"))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"entries": []map[string]any{
				{
					"id":         "e-1",
					"title":      "Standup",
					"starts_at":  "2026-08-31T09:00:00Z",
					"ends_at":    "2026-08-31T09:15:00Z",
					"route_mode": "transit",
				},
			},
		}))
	}))
	defer srv.Close()

	client, err := schedule.NewClient(srv.URL, srv.Client(), time.Minute)
	require.NoError(t, err)

	entries, err := client.Agenda(context.Background(), "2026-08-31", false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Standup", entries[0].Title)
	assert.Equal(t, "transit", entries[0].RouteMode)

	// Second read within the TTL is served from cache.
	_, err = client.Agenda(context.Background(), "2026-08-31", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())

	// Bypass goes back to the wire.
	_, err = client.Agenda(context.Background(), "2026-08-31", true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestAgendaErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server failure",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			wantErr: serviceerr.ErrMalformedResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client, err := schedule.NewClient(srv.URL, srv.Client(), time.Minute)
			require.NoError(t, err)

			_, err = client.Agenda(context.Background(), "2026-08-31", false)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
