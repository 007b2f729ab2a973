package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q, want data", cfg.DataDir)
	}
	if cfg.NotifyURL != "" {
		t.Errorf("NotifyURL = %q, want empty", cfg.NotifyURL)
	}
	if cfg.VWAPWindow != 5*time.Minute {
		t.Errorf("VWAPWindow = %v, want 5m", cfg.VWAPWindow)
	}
	if cfg.DepthLevels != 10 {
		t.Errorf("DepthLevels = %d, want 10", cfg.DepthLevels)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATA_DIR", "/var/lib/exchange")
	t.Setenv("NOTIFY_URL", "http://gateway.internal/notify")
	t.Setenv("VWAP_WINDOW", "15m")
	t.Setenv("DEPTH_LEVELS", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.DataDir != "/var/lib/exchange" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.NotifyURL != "http://gateway.internal/notify" {
		t.Errorf("NotifyURL = %q", cfg.NotifyURL)
	}
	if cfg.VWAPWindow != 15*time.Minute {
		t.Errorf("VWAPWindow = %v, want 15m", cfg.VWAPWindow)
	}
	if cfg.DepthLevels != 25 {
		t.Errorf("DepthLevels = %d, want 25", cfg.DepthLevels)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "PORT", "not-a-number"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad duration", "VWAP_WINDOW", "five minutes"},
		{"negative duration", "READ_TIMEOUT", "-5s"},
		{"bad depth", "DEPTH_LEVELS", "abc"},
		{"zero depth", "DEPTH_LEVELS", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}
