// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults and validation

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
client:
  base_url: "https://api.yopuedo360.test/api/v1"
  timeout: "10s"
  history_limit: 50

speech:
  enabled: true
  command: ["say", "-v", "{voice}"]
  voices:
    en: "Samantha"

clipboard:
  mode: "osc52"

logging:
  level: "debug"
  format: "json"
  file: "/tmp/yopuedo.log"

server:
  http_addr: "0.0.0.0:9090"

database:
  path: "./test.db"

auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
  access_ttl: "5m"
  refresh_ttl: "24h"

limits:
  rps: 2.5
  burst: 4

metrics:
  enabled: false
  path: "/prom"

dedupe:
  ttl: "1m"
  max_size: 20
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Client.BaseURL != "https://api.yopuedo360.test/api/v1" {
		t.Errorf("expected base_url from file, got %q", cfg.Client.BaseURL)
	}
	if cfg.Client.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.Client.Timeout)
	}
	if cfg.Client.HistoryLimit != 50 {
		t.Errorf("expected history_limit 50, got %d", cfg.Client.HistoryLimit)
	}
	if !cfg.Speech.Enabled || len(cfg.Speech.Command) != 3 || cfg.Speech.Voices["en"] != "Samantha" {
		t.Errorf("unexpected speech config: %+v", cfg.Speech)
	}
	if cfg.Clipboard.Mode != "osc52" {
		t.Errorf("expected clipboard mode osc52, got %q", cfg.Clipboard.Mode)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" || cfg.Logging.File != "/tmp/yopuedo.log" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Server.HTTPAddr != "0.0.0.0:9090" {
		t.Errorf("expected http_addr 0.0.0.0:9090, got %q", cfg.Server.HTTPAddr)
	}
	if cfg.Auth.AccessTTL != 5*time.Minute || cfg.Auth.RefreshTTL != 24*time.Hour {
		t.Errorf("unexpected ttls: %v %v", cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	}
	if cfg.Limits.RPS != 2.5 || cfg.Limits.Burst != 4 {
		t.Errorf("unexpected limits: %+v", cfg.Limits)
	}
	if cfg.Metrics.Enabled {
		t.Error("expected metrics disabled")
	}
	if cfg.Dedupe.TTL != time.Minute || cfg.Dedupe.MaxSize != 20 {
		t.Errorf("unexpected dedupe config: %+v", cfg.Dedupe)
	}
	if err := cfg.ValidateClient(); err != nil {
		t.Errorf("ValidateClient: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("ValidateServer: %v", err)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[client]
base_url = "http://127.0.0.1:8080/api/v1"
timeout = "3s"

[clipboard]
mode = "off"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Client.Timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", cfg.Client.Timeout)
	}
	if cfg.Clipboard.Mode != "off" {
		t.Errorf("expected clipboard off, got %q", cfg.Clipboard.Mode)
	}
	if cfg.Client.HistoryLimit != 100 {
		t.Errorf("expected default history_limit, got %d", cfg.Client.HistoryLimit)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_YOPUEDO_SECRET", "from-env-secret-from-env-secret-xx")
	t.Setenv("TEST_YOPUEDO_URL", "https://env.example/api/v1")

	path := writeConfig(t, "config.yaml", `
client:
  base_url: "${TEST_YOPUEDO_URL}"
auth:
  jwt_secret: "${TEST_YOPUEDO_SECRET}"
database:
  path: "${TEST_YOPUEDO_UNSET}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Client.BaseURL != "https://env.example/api/v1" {
		t.Errorf("expected expanded base_url, got %q", cfg.Client.BaseURL)
	}
	if cfg.Auth.JWTSecret != "from-env-secret-from-env-secret-xx" {
		t.Errorf("expected expanded secret, got %q", cfg.Auth.JWTSecret)
	}
	// Unset variables expand to empty and fall back to the default.
	if cfg.Database.Path != "yopuedo-dev.db" {
		t.Errorf("expected default database path, got %q", cfg.Database.Path)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
client:
  timeout: "soon"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "client.timeout") {
		t.Errorf("expected error to name the field, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.Client.BaseURL != "http://localhost:8080/api/v1" {
		t.Errorf("expected default base_url, got %q", cfg.Client.BaseURL)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", "client: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Client.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Client.Timeout)
	}
	if cfg.Clipboard.Mode != "auto" {
		t.Errorf("expected auto clipboard, got %q", cfg.Clipboard.Mode)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("unexpected metrics defaults: %+v", cfg.Metrics)
	}
	if err := cfg.ValidateClient(); err != nil {
		t.Errorf("default client config should validate: %v", err)
	}
	// No secret by default.
	if err := cfg.ValidateServer(); err == nil {
		t.Error("default server config should require a jwt secret")
	}
}

func TestValidateClient(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad scheme", func(c *Config) { c.Client.BaseURL = "ftp://x" }, "client.base_url"},
		{"bad clipboard", func(c *Config) { c.Clipboard.Mode = "xclip" }, "clipboard.mode"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative history", func(c *Config) { c.Client.HistoryLimit = -1 }, "client.history_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.ValidateClient()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateServer(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Auth.JWTSecret = strings.Repeat("s", 32)
		return cfg
	}
	if err := valid().ValidateServer(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "auth.jwt_secret"},
		{"no addr", func(c *Config) { c.Server.HTTPAddr = "" }, "server.http_addr"},
		{"no database", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"zero burst", func(c *Config) { c.Limits.Burst = 0 }, "limits"},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
		{"zero dedupe size", func(c *Config) { c.Dedupe.MaxSize = 0 }, "dedupe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.ValidateServer()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	if got := Path("/explicit.yaml", "config.yaml"); got != "/explicit.yaml" {
		t.Errorf("explicit path should win, got %q", got)
	}
	if got := Path("", "config.yaml"); got != filepath.Join("/xdg", "yopuedo", "config.yaml") {
		t.Errorf("expected XDG path, got %q", got)
	}

	t.Setenv(EnvConfigPath, "/env.yaml")
	if got := Path("", "config.yaml"); got != "/env.yaml" {
		t.Errorf("expected env path, got %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("expected error for unknown level")
	}
}
