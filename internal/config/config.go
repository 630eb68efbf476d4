// ABOUTME: Configuration loading and parsing for the shopdesk console
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the complete console configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	API      APIConfig      `yaml:"api" toml:"api"`
	Chat     ChatConfig     `yaml:"chat" toml:"chat"`
	Session  SessionConfig  `yaml:"session" toml:"session"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics"`
}

// ServerConfig holds the listen address of the console
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// APIConfig describes the REST API the dashboards talk to
type APIConfig struct {
	// BaseURL is the API root, e.g. http://localhost:5000/api
	BaseURL string `yaml:"base_url" toml:"base_url"`

	RequestTimeout time.Duration `yaml:"-" toml:"-"` // list, create, update, delete, login
	VerifyTimeout  time.Duration `yaml:"-" toml:"-"` // session checks

	RequestTimeoutRaw string `yaml:"request_timeout" toml:"request_timeout"`
	VerifyTimeoutRaw  string `yaml:"verify_timeout" toml:"verify_timeout"`
}

// ChatConfig describes the conversational webhook and its health endpoint
type ChatConfig struct {
	WebhookURL    string `yaml:"webhook_url" toml:"webhook_url"`
	StatusURL     string `yaml:"status_url" toml:"status_url"`
	DefaultSender string `yaml:"default_sender" toml:"default_sender"`
	HistoryLimit  int    `yaml:"history_limit" toml:"history_limit"`

	Timeout        time.Duration `yaml:"-" toml:"-"`
	StatusTimeout  time.Duration `yaml:"-" toml:"-"`
	StatusInterval time.Duration `yaml:"-" toml:"-"`

	TimeoutRaw        string `yaml:"timeout" toml:"timeout"`
	StatusTimeoutRaw  string `yaml:"status_timeout" toml:"status_timeout"`
	StatusIntervalRaw string `yaml:"status_interval" toml:"status_interval"`
}

// SessionConfig holds cookie signing and session lifetime settings
type SessionConfig struct {
	// Secret signs session cookies. A random secret is generated at startup
	// when empty, which logs everyone out on restart.
	Secret string `yaml:"secret" toml:"secret"`

	TTL            time.Duration `yaml:"-" toml:"-"`
	VerifyInterval time.Duration `yaml:"-" toml:"-"`

	TTLRaw            string `yaml:"ttl" toml:"ttl"`
	VerifyIntervalRaw string `yaml:"verify_interval" toml:"verify_interval"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// Defaults mirror the fixed bounds the front ends have always used.
const (
	DefaultHTTPAddr       = "127.0.0.1:8080"
	DefaultAPIBaseURL     = "http://localhost:5000/api"
	DefaultWebhookURL     = "http://localhost:5006/webhooks/rest/webhook"
	DefaultStatusURL      = "http://localhost:5006/status"
	DefaultSender         = "html_user"
	DefaultHistoryLimit   = 200
	DefaultRequestTimeout = 10 * time.Second
	DefaultVerifyTimeout  = 5 * time.Second
	DefaultChatTimeout    = 10 * time.Second
	DefaultStatusTimeout  = 3 * time.Second
	DefaultStatusInterval = 30 * time.Second
	DefaultSessionTTL     = 24 * time.Hour
	DefaultVerifyInterval = time.Minute
	DefaultMetricsPath    = "/metrics"
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied and no file behind it.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	setString(&c.Server.HTTPAddr, DefaultHTTPAddr)
	setString(&c.API.BaseURL, DefaultAPIBaseURL)
	setDuration(&c.API.RequestTimeout, DefaultRequestTimeout)
	setDuration(&c.API.VerifyTimeout, DefaultVerifyTimeout)

	setString(&c.Chat.WebhookURL, DefaultWebhookURL)
	setString(&c.Chat.StatusURL, DefaultStatusURL)
	setString(&c.Chat.DefaultSender, DefaultSender)
	if c.Chat.HistoryLimit <= 0 {
		c.Chat.HistoryLimit = DefaultHistoryLimit
	}
	setDuration(&c.Chat.Timeout, DefaultChatTimeout)
	setDuration(&c.Chat.StatusTimeout, DefaultStatusTimeout)
	setDuration(&c.Chat.StatusInterval, DefaultStatusInterval)

	setDuration(&c.Session.TTL, DefaultSessionTTL)
	setDuration(&c.Session.VerifyInterval, DefaultVerifyInterval)

	setString(&c.Logging.Level, "info")
	setString(&c.Logging.Format, "text")
	setString(&c.Metrics.Path, DefaultMetricsPath)
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst <= 0 {
		*dst = def
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	for name, raw := range map[string]string{
		"api.base_url":     c.API.BaseURL,
		"chat.webhook_url": c.Chat.WebhookURL,
		"chat.status_url":  c.Chat.StatusURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
		}
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Session.Secret != "" && len(c.Session.Secret) < 16 {
		return fmt.Errorf("session.secret must be at least 16 characters")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"api.request_timeout", cfg.API.RequestTimeoutRaw, &cfg.API.RequestTimeout},
		{"api.verify_timeout", cfg.API.VerifyTimeoutRaw, &cfg.API.VerifyTimeout},
		{"chat.timeout", cfg.Chat.TimeoutRaw, &cfg.Chat.Timeout},
		{"chat.status_timeout", cfg.Chat.StatusTimeoutRaw, &cfg.Chat.StatusTimeout},
		{"chat.status_interval", cfg.Chat.StatusIntervalRaw, &cfg.Chat.StatusInterval},
		{"session.ttl", cfg.Session.TTLRaw, &cfg.Session.TTL},
		{"session.verify_interval", cfg.Session.VerifyIntervalRaw, &cfg.Session.VerifyInterval},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %q", f.name, f.raw)
		}
		*f.dst = d
	}

	return nil
}
