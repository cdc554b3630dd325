// ABOUTME: Client configuration loaded from .env files and CRM_* environment variables
// ABOUTME: Resolves the API endpoint, credentials and where cached responses live

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// AppName names the XDG config and cache directories.
	AppName = "crmview"

	// EnvPrefix is prepended to every variable, e.g. CRM_BASE_URL.
	EnvPrefix = "CRM"
)

const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config holds connection and cache settings.
type Config struct {
	BaseURL        string        `envconfig:"BASE_URL" default:"http://localhost:3000"`
	APIKey         string        `envconfig:"API_KEY"`
	CacheBackend   string        `envconfig:"CACHE_BACKEND" default:"sqlite"`
	CacheDir       string        `envconfig:"CACHE_DIR"`
	CacheMaxAge    time.Duration `envconfig:"CACHE_MAX_AGE" default:"30s"`
	DedupeInterval time.Duration `envconfig:"DEDUPE_INTERVAL" default:"2s"`
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"0s"`
	Debug          bool          `envconfig:"DEBUG"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
}

// EnvFiles lists the .env files read by Load, in order. Earlier files and
// the real environment win over later ones.
func EnvFiles(extra string) []string {
	var files []string
	if extra != "" {
		files = append(files, extra)
	}
	return append(files, ".env", filepath.Join(xdg.ConfigHome, AppName, ".env"))
}

// Load reads .env files (missing ones are skipped), then the environment.
// extra, when set, must exist.
func Load(extra string) (*Config, error) {
	if extra != "" {
		if _, err := os.Stat(extra); err != nil {
			return nil, fmt.Errorf("env file: %w", err)
		}
	}
	for _, f := range EnvFiles(extra) {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// godotenv.Load never overrides variables that are already set.
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(xdg.CacheHome, AppName)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s_BASE_URL %q: must be an http(s) URL", EnvPrefix, c.BaseURL)
	}
	switch c.CacheBackend {
	case BackendSQLite, BackendBadger, BackendMemory:
	default:
		return fmt.Errorf("unsupported %s_CACHE_BACKEND: %s", EnvPrefix, c.CacheBackend)
	}
	if c.CacheMaxAge < 0 || c.DedupeInterval < 0 || c.HTTPTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

// StorePath is where the backend keeps snapshots for this server. Each
// host gets its own file so switching CRM_BASE_URL never mixes tenants.
func (c *Config) StorePath() string {
	u, _ := url.Parse(c.BaseURL)
	host := strings.NewReplacer(":", "_", "/", "_").Replace(u.Host)
	if c.CacheBackend == BackendBadger {
		return filepath.Join(c.CacheDir, host+".badger")
	}
	return filepath.Join(c.CacheDir, host+".db")
}
