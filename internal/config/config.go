// Package config loads CLI defaults from environment variables.
// Flags passed on the command line take precedence over these values.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v10"
)

// Config holds environment-provided settings.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `env:"GPL_DB" envDefault:"gpl.db"`

	// Format is the CLI output format (text or json).
	Format string `env:"GPL_FORMAT" envDefault:"text"`

	// Key is the hex secret key used by signing commands. Optional.
	Key string `env:"GPL_KEY"`

	// Logging
	LogLevel  string `env:"GPL_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"GPL_LOG_FORMAT" envDefault:"text"`
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown enumerated values.
func (c *Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("GPL_FORMAT must be text or json, got %q", c.Format)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("GPL_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return 0, fmt.Errorf("GPL_LOG_LEVEL: %w", err)
	}
	return level, nil
}

// NewLogger builds the process logger. verbose forces debug level.
func (c *Config) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
