package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix used by Load.
const Prefix = "TASKBOARD"

// Update discipline names, see store.ParseUpdateMode.
const (
	UpdateRefetch = "refetch"
	UpdateInPlace = "in_place"
)

// Config holds all client configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Remote service
	APIBaseURL     string        `envconfig:"API_BASE_URL" default:"http://localhost:8000"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`

	// Opt-in GET retries on network failures and 5xx. 1 means a single attempt.
	RetryAttempts  int           `envconfig:"RETRY_ATTEMPTS" default:"1"`
	RetryBaseDelay time.Duration `envconfig:"RETRY_BASE_DELAY" default:"250ms"`

	// Durable token storage: "file", "sqlite" or "memory".
	// TokenPath defaults to a file under the user config directory.
	TokenBackend string `envconfig:"TOKEN_BACKEND" default:"file"`
	TokenPath    string `envconfig:"TOKEN_PATH"`

	// Per-entity update discipline: "refetch" or "in_place"
	ProjectUpdateMode string `envconfig:"PROJECT_UPDATE_MODE" default:"refetch"`
	TaskUpdateMode    string `envconfig:"TASK_UPDATE_MODE" default:"in_place"`
	UserUpdateMode    string `envconfig:"USER_UPDATE_MODE" default:"refetch"`

	// Local fake of the remote service (development only)
	FakeRemoteAddr   string `envconfig:"FAKE_REMOTE_ADDR" default:":8000"`
	FakeRemoteSecret string `envconfig:"FAKE_REMOTE_SECRET" default:"dev-secret"`
}

// IsDevelopment returns true for the development environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// ResolvedTokenPath returns TokenPath, or the default location for the
// configured backend when it is unset.
func (c *Config) ResolvedTokenPath() (string, error) {
	if c.TokenPath != "" {
		return c.TokenPath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config dir: %w", err)
	}
	name := "token.yaml"
	if c.TokenBackend == "sqlite" {
		name = "token.db"
	}
	return filepath.Join(dir, "taskboard", name), nil
}

// Validate checks enumerated values and the base URL.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API_BASE_URL %q", c.APIBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("RETRY_ATTEMPTS must not be negative, got %d", c.RetryAttempts)
	}
	switch c.TokenBackend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("invalid TOKEN_BACKEND %q, expected file, sqlite or memory", c.TokenBackend)
	}
	for name, mode := range map[string]string{
		"PROJECT_UPDATE_MODE": c.ProjectUpdateMode,
		"TASK_UPDATE_MODE":    c.TaskUpdateMode,
		"USER_UPDATE_MODE":    c.UserUpdateMode,
	} {
		if mode != UpdateRefetch && mode != UpdateInPlace {
			return fmt.Errorf("invalid %s %q, expected %s or %s", name, mode, UpdateRefetch, UpdateInPlace)
		}
	}
	return nil
}

// Load reads configuration from TASKBOARD_* environment variables.
func Load() (*Config, error) {
	return LoadWithPrefix(Prefix)
}

// LoadWithPrefix reads configuration with a prefix.
func LoadWithPrefix(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config with prefix %s: %w", prefix, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}
