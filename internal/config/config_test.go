package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the test and restores them afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "GPL_DB", "GPL_FORMAT", "GPL_LOG_LEVEL", "GPL_LOG_FORMAT", "GPL_KEY")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpl.db", cfg.DBPath)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.Key)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("GPL_DB", "/tmp/profiles.db")
	t.Setenv("GPL_FORMAT", "json")
	t.Setenv("GPL_LOG_LEVEL", "DEBUG")
	t.Setenv("GPL_LOG_FORMAT", "json")
	t.Setenv("GPL_KEY", "0101")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0101", cfg.Key)

	assert.Equal(t, "/tmp/profiles.db", cfg.DBPath)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"format", "GPL_FORMAT", "yaml"},
		{"log format", "GPL_LOG_FORMAT", "logfmt"},
		{"log level", "GPL_LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLevel("Error")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, level)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "warn", LogFormat: "json"}

	logger := cfg.NewLogger(&buf, false)
	logger.Info("hidden")
	logger.Warn("shown", "code", "UNAUTHORIZED")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "UNAUTHORIZED", entry["code"])

	buf.Reset()
	verbose := cfg.NewLogger(&buf, true)
	verbose.Debug("debugging")
	assert.Contains(t, buf.String(), "debugging")
}
