package config

import (
	"strings"
	"testing"
	"time"
)

func fakeEnv(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load(fakeEnv(nil))

	if cfg.Port != "8080" {
		t.Errorf("Port: got %q, want 8080", cfg.Port)
	}
	if cfg.DBPath != "./data/ledger.db" {
		t.Errorf("DBPath: got %q", cfg.DBPath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel: got %q, want info", cfg.LogLevel)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout: got %s, want 10s", cfg.ShutdownTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	cfg := Load(fakeEnv(map[string]string{
		"PORT":             "9090",
		"DB_PATH":          "/var/lib/ledger/ledger.db",
		"LOG_LEVEL":        "debug",
		"SHUTDOWN_TIMEOUT": "30s",
	}))

	if cfg.Port != "9090" {
		t.Errorf("Port: got %q, want 9090", cfg.Port)
	}
	if cfg.DBPath != "/var/lib/ledger/ledger.db" {
		t.Errorf("DBPath: got %q", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug", cfg.LogLevel)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout: got %s, want 30s", cfg.ShutdownTimeout)
	}
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	cfg := Load(fakeEnv(map[string]string{"SHUTDOWN_TIMEOUT": "soon"}))
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout: got %s, want fallback 10s", cfg.ShutdownTimeout)
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := &Config{Port: "not-a-port", DBPath: " ", LogLevel: "loud"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"port", "database path", "log level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q: %v", want, err)
		}
	}
}

func TestValidatePortRange(t *testing.T) {
	cfg := Load(fakeEnv(map[string]string{"PORT": "70000"}))
	if err := cfg.Validate(); err == nil {
		t.Error("expected out-of-range port to fail validation")
	}
}
