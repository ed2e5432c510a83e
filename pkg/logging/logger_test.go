package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv(EnvVarLogLevel, "error")
	assert.Equal(t, slog.LevelError, LevelFromEnv())
}

func TestNewLoggerAddsModuleAndVersion(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "sbctl", "v1.2.3", slog.LevelInfo)
	l.Info("catalog loaded", "category", "ram")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "sbctl", rec["module"])
	assert.Equal(t, "v1.2.3", rec["version"])
	assert.Equal(t, "ram", rec["category"])
	assert.NotContains(t, rec, "source")
}

func TestNewLoggerDebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "sbd", "dev", slog.LevelDebug)
	l.Debug("shape unrecognized")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Contains(t, rec, "source")
}

func TestNewLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "sbd", "dev", slog.LevelWarn)
	l.Info("dropped")
	assert.Zero(t, buf.Len())
}
