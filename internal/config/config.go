// Package config loads runtime settings from the environment.
//
// A .env file in the working directory is read first if present; variables
// already set in the process environment win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds the settings shared by the serve and play commands.
type Config struct {
	Addr      string
	LogLevel  zerolog.Level
	LogFormat string
	Heartbeat time.Duration
}

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Load reads .env (if any) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(k, def string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return def
	}

	cfg := Config{Addr: get("ADDR", "")}
	if cfg.Addr == "" {
		cfg.Addr = ":" + get("PORT", "8080")
	}

	lvl, err := zerolog.ParseLevel(get("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = lvl

	switch f := get("LOG_FORMAT", FormatConsole); f {
	case FormatConsole, FormatJSON:
		cfg.LogFormat = f
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT: unknown format %q", f)
	}

	hb, err := time.ParseDuration(get("SSE_HEARTBEAT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("SSE_HEARTBEAT: %w", err)
	}
	if hb <= 0 {
		return Config{}, fmt.Errorf("SSE_HEARTBEAT: must be positive, got %s", hb)
	}
	cfg.Heartbeat = hb
	return cfg, nil
}
