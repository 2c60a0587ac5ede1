package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default address :8080, got %s", cfg.Server.Address)
	}
	if cfg.Signal.Path != "/ws" {
		t.Errorf("expected default signal path /ws, got %s", cfg.Signal.Path)
	}
	if cfg.Signal.PongTimeout <= cfg.Signal.PingInterval {
		t.Error("pong timeout must exceed ping interval")
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty address", func(c *Config) { c.Server.Address = "" }, "server.address"},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "read_timeout"},
		{"empty signal path", func(c *Config) { c.Signal.Path = "" }, "signal.path"},
		{"pong not after ping", func(c *Config) { c.Signal.PongTimeout = c.Signal.PingInterval }, "pong_timeout"},
		{"zero message size", func(c *Config) { c.Signal.MaxMessageSize = 0 }, "max_message_size"},
		{"zero send buffer", func(c *Config) { c.Signal.SendBuffer = 0 }, "send_buffer"},
		{"empty log level", func(c *Config) { c.Logging.Level = "" }, "logging.level"},
		{"tracing without url", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.JaegerURL = ""
		}, "jaeger_url"},
		{"sample rate out of range", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.SampleRate = 1.5
		}, "sample_rate"},
		{"rate limiting without rps", func(c *Config) {
			c.RateLimiting.Enabled = true
			c.RateLimiting.HTTP.RequestsPerSecond = 0
		}, "requests_per_second"},
		{"rate limiting without ws rate", func(c *Config) {
			c.RateLimiting.Enabled = true
			c.RateLimiting.WebSocket.MessagesPerSecond = 0
		}, "messages_per_second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("expected defaults, got address %s", cfg.Server.Address)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  address: ":9090"
signal:
  ping_interval: 15s
  pong_timeout: 45s
  allowed_origins:
    - "https://app.example.com"
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("expected address from file, got %s", cfg.Server.Address)
	}
	if cfg.Signal.PingInterval != 15*time.Second {
		t.Errorf("expected 15s ping interval, got %v", cfg.Signal.PingInterval)
	}
	if len(cfg.Signal.AllowedOrigins) != 1 || cfg.Signal.AllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("expected origins from file, got %v", cfg.Signal.AllowedOrigins)
	}
	// Untouched keys keep their defaults.
	if cfg.Signal.Path != "/ws" {
		t.Errorf("expected default signal path, got %s", cfg.Signal.Path)
	}
}

func TestLoad_InvalidFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  address: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for empty address")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RELAYCAST_SERVER_ADDRESS", ":7777")
	t.Setenv("RELAYCAST_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":7777" {
		t.Errorf("expected env override for address, got %s", cfg.Server.Address)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected env override for log level, got %s", cfg.Logging.Level)
	}
}
