package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	slogctx "github.com/veqryn/slog-context"

	"github.com/dayplanhq/dayplan-cli/internal/config"
	"github.com/dayplanhq/dayplan-cli/internal/logging"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Logger
		wantErr bool
	}{
		{name: "text info", cfg: config.Logger{Level: "info", Format: "text"}},
		{name: "json debug", cfg: config.Logger{Level: "debug", Format: "json"}},
		{name: "bad level", cfg: config.Logger{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: config.Logger{Format: "xml"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := logging.Init(tt.cfg, &buf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			ctx := slogctx.With(context.Background(), "session_status", "authenticated")
			slogctx.Info(ctx, "hello")
			assert.Contains(t, buf.String(), "session_status")
		})
	}
}

func TestInitLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logging.Init(config.Logger{Level: "warn", Format: "text"}, &buf))

	slogctx.Debug(context.Background(), "invisible")
	assert.Empty(t, buf.String())

	slogctx.Warn(context.Background(), "visible")
	assert.Contains(t, buf.String(), "visible")
}
