// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the server needs to start.
type Config struct {
	// HTTP server
	Port string

	// Database
	DBPath string

	// Logging
	LogLevel string

	// Graceful shutdown window
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, falling back to
// development defaults.
func Load(getenv func(string) string) *Config {
	return &Config{
		Port:            envOr(getenv, "PORT", "8080"),
		DBPath:          envOr(getenv, "DB_PATH", "./data/ledger.db"),
		LogLevel:        envOr(getenv, "LOG_LEVEL", "info"),
		ShutdownTimeout: envDurationOr(getenv, "SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate checks the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "database path must not be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level %q", c.LogLevel))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDurationOr(getenv func(string) string, key string, fallback time.Duration) time.Duration {
	if value := getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
