// ABOUTME: Configuration loading and parsing for the chat client and the dev server
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding an explicit config path.
const EnvConfigPath = "YOPUEDO_CONFIG"

// Config represents the complete yopuedo configuration. The client binary
// reads client, speech, clipboard and logging; the dev server reads the rest.
type Config struct {
	Client    ClientConfig    `yaml:"client" toml:"client"`
	Speech    SpeechConfig    `yaml:"speech" toml:"speech"`
	Clipboard ClipboardConfig `yaml:"clipboard" toml:"clipboard"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	Limits    LimitsConfig    `yaml:"limits" toml:"limits"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
	Dedupe    DedupeConfig    `yaml:"dedupe" toml:"dedupe"`
}

// ClientConfig holds the backend connection settings of the chat client
type ClientConfig struct {
	BaseURL         string        `yaml:"base_url" toml:"base_url"`
	Timeout         time.Duration `yaml:"-" toml:"-"`
	TimeoutRaw      string        `yaml:"timeout" toml:"timeout"`
	HistoryLimit    int           `yaml:"history_limit" toml:"history_limit"`
	CredentialsPath string        `yaml:"credentials_path" toml:"credentials_path"`
}

// SpeechConfig holds text-to-speech settings
type SpeechConfig struct {
	Enabled bool              `yaml:"enabled" toml:"enabled"`
	Command []string          `yaml:"command" toml:"command"`
	Voices  map[string]string `yaml:"voices" toml:"voices"`
}

// ClipboardConfig selects how messages are copied
type ClipboardConfig struct {
	Mode string `yaml:"mode" toml:"mode"` // auto, system, osc52, off
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret" toml:"jwt_secret"`
	AccessTTL  time.Duration `yaml:"-" toml:"-"`
	RefreshTTL time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	AccessTTLRaw  string `yaml:"access_ttl" toml:"access_ttl"`
	RefreshTTLRaw string `yaml:"refresh_ttl" toml:"refresh_ttl"`
}

// LimitsConfig holds per-user request rate limits
type LimitsConfig struct {
	RPS   float64 `yaml:"rps" toml:"rps"`
	Burst int     `yaml:"burst" toml:"burst"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// DedupeConfig bounds the idempotency cache of the send endpoint
type DedupeConfig struct {
	TTL     time.Duration `yaml:"-" toml:"-"`
	TTLRaw  string        `yaml:"ttl" toml:"ttl"`
	MaxSize int           `yaml:"max_size" toml:"max_size"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		Metrics: MetricsConfig{Enabled: true},
	}
	applyDefaults(cfg)
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}
	applyDefaults(cfg)

	return cfg, nil
}

// LoadOrDefault loads path, or returns Default when path is empty or the
// file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadDotEnv loads variables from .env in the working directory, if present,
// without overriding variables already set.
func LoadDotEnv() {
	_ = godotenv.Load(".env")
}

// Path returns the config file to use.
// Priority: explicit > YOPUEDO_CONFIG > XDG_CONFIG_HOME/yopuedo/<name> > ~/.config/yopuedo/<name>
func Path(explicit, name string) string {
	if explicit != "" {
		return explicit
	}
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return name
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "yopuedo", name)
}

// StatePath returns a file under XDG_STATE_HOME/yopuedo, falling back to
// ~/.local/state/yopuedo.
func StatePath(name string) string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return name
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}
	return filepath.Join(stateDir, "yopuedo", name)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = "http://localhost:8080/api/v1"
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = 30 * time.Second
	}
	if cfg.Client.HistoryLimit == 0 {
		cfg.Client.HistoryLimit = 100
	}
	if cfg.Clipboard.Mode == "" {
		cfg.Clipboard.Mode = "auto"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = "127.0.0.1:8080"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "yopuedo-dev.db"
	}
	if cfg.Auth.AccessTTL == 0 {
		cfg.Auth.AccessTTL = 15 * time.Minute
	}
	if cfg.Auth.RefreshTTL == 0 {
		cfg.Auth.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.Limits.RPS == 0 {
		cfg.Limits.RPS = 5
	}
	if cfg.Limits.Burst == 0 {
		cfg.Limits.Burst = 10
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Dedupe.TTL == 0 {
		cfg.Dedupe.TTL = 10 * time.Minute
	}
	if cfg.Dedupe.MaxSize == 0 {
		cfg.Dedupe.MaxSize = 10000
	}
}

// ValidateClient checks the settings used by the chat client.
func (c *Config) ValidateClient() error {
	u, err := url.Parse(c.Client.BaseURL)
	if err != nil {
		return fmt.Errorf("client.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("client.base_url must use http or https scheme")
	}
	if c.Client.Timeout < 0 {
		return fmt.Errorf("client.timeout must be positive")
	}
	if c.Client.HistoryLimit < 0 {
		return fmt.Errorf("client.history_limit must not be negative")
	}
	switch c.Clipboard.Mode {
	case "auto", "system", "osc52", "off":
	default:
		return fmt.Errorf("clipboard.mode must be one of auto, system, osc52, off")
	}
	return c.validateLogging()
}

// ValidateServer checks the settings used by the dev server.
func (c *Config) ValidateServer() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 bytes")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return fmt.Errorf("auth.access_ttl and auth.refresh_ttl must be positive")
	}
	if c.Limits.RPS < 0 || c.Limits.Burst < 1 {
		return fmt.Errorf("limits.rps must not be negative and limits.burst must be at least 1")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}
	if c.Dedupe.TTL <= 0 || c.Dedupe.MaxSize < 1 {
		return fmt.Errorf("dedupe.ttl must be positive and dedupe.max_size at least 1")
	}
	return c.validateLogging()
}

func (c *Config) validateLogging() error {
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}
	return nil
}

// ParseLevel converts a logging.level value into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", s)
	}
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"client.timeout", cfg.Client.TimeoutRaw, &cfg.Client.Timeout},
		{"auth.access_ttl", cfg.Auth.AccessTTLRaw, &cfg.Auth.AccessTTL},
		{"auth.refresh_ttl", cfg.Auth.RefreshTTLRaw, &cfg.Auth.RefreshTTL},
		{"dedupe.ttl", cfg.Dedupe.TTLRaw, &cfg.Dedupe.TTL},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
