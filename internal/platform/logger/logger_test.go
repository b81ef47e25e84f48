package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/kotoba-learn/kotoba-api/internal/config"
	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWithWriterLevels(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	tests := []struct {
		level       string
		debugLogged bool
		infoLogged  bool
	}{
		{level: "debug", debugLogged: true, infoLogged: true},
		{level: "info", debugLogged: false, infoLogged: true},
		{level: "ERROR", debugLogged: false, infoLogged: false},
		{level: "bogus", debugLogged: false, infoLogged: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: tt.level}, &buf)
			require.NoError(t, err)
			require.NotNil(t, l)

			l.Debug("debug message")
			assert.Equal(t, tt.debugLogged, bytes.Contains(buf.Bytes(), []byte("debug message")))

			buf.Reset()
			l.Info("info message", "key", "value")
			assert.Equal(t, tt.infoLogged, bytes.Contains(buf.Bytes(), []byte("info message")))

			if tt.infoLogged {
				var entry map[string]any
				require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
				assert.Equal(t, "value", entry["key"])
			}
		})
	}
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	scoped, buf := logger.NewTestLogger()
	fallback := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))

	ctx := logger.WithLogger(context.Background(), scoped.With("trace_id", "abc"))
	logger.FromContextOrDefault(ctx, fallback).Info("scoped")

	entries := buf.EntriesWithMessage("scoped")
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0]["trace_id"])

	assert.NotNil(t, logger.FromContext(context.Background()))
	assert.NotNil(t, logger.FromContextOrDefault(context.Background(), nil))
}
