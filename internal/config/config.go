// Package config reads settings from the environment and optional .env files.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/dori/teamboard/internal/db"
)

// EnvFiles are loaded, when present, before the environment is parsed
var EnvFiles = []string{".env", ".env.local"}

// Config holds every tunable of the client
type Config struct {
	APIURL   string `env:"API_URL"`
	APIToken string `env:"API_TOKEN"`

	DataDir string `env:"DATA_DIR"`
	LogFile string `env:"LOG_FILE"`
	// LogLevel is one of silent, error, warn, info, debug.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
	Retries          uint64        `env:"RETRIES" envDefault:"3"`
	BreakerFailures  uint32        `env:"BREAKER_FAILURES" envDefault:"5"`
	BreakerCooldown  time.Duration `env:"BREAKER_COOLDOWN" envDefault:"30s"`
	FetchConcurrency int           `env:"FETCH_CONCURRENCY" envDefault:"4"`

	Theme  string `env:"THEME" envDefault:"catppuccin"`
	Notify bool   `env:"NOTIFY" envDefault:"true"`
}

// LoadEnv loads the env files that exist and returns how many it read.
// Variables already set in the environment win.
func LoadEnv(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads .env files, then parses TEAMBOARD_* variables
func Load() (*Config, error) {
	if _, err := LoadEnv(EnvFiles); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}
	return Parse()
}

// Parse reads TEAMBOARD_* variables without touching env files
func Parse() (*Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, env.Options{Prefix: "TEAMBOARD_"}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = db.DefaultDataDir()
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.DataDir, "teamboard.log")
	}
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Validate checks ranges and the shape of the API URL. An empty URL is
// allowed; commands that need the network call RequireAPI.
func (c *Config) Validate() error {
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil {
			return fmt.Errorf("TEAMBOARD_API_URL is not a URL: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("TEAMBOARD_API_URL must be an http(s) URL with a host, got %q", c.APIURL)
		}
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("TEAMBOARD_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.Retries > 10 {
		return fmt.Errorf("TEAMBOARD_RETRIES must be at most 10, got %d", c.Retries)
	}
	if c.BreakerFailures == 0 {
		return fmt.Errorf("TEAMBOARD_BREAKER_FAILURES must be at least 1")
	}
	if c.BreakerCooldown <= 0 {
		return fmt.Errorf("TEAMBOARD_BREAKER_COOLDOWN must be positive, got %s", c.BreakerCooldown)
	}
	if c.FetchConcurrency < 1 || c.FetchConcurrency > 16 {
		return fmt.Errorf("TEAMBOARD_FETCH_CONCURRENCY must be between 1 and 16, got %d", c.FetchConcurrency)
	}
	if _, err := logrus.ParseLevel(c.logrusName()); err != nil {
		return fmt.Errorf("TEAMBOARD_LOG_LEVEL %q is not a level", c.LogLevel)
	}
	return nil
}

// RequireAPI fails when no backend is configured
func (c *Config) RequireAPI() error {
	if c.APIURL == "" {
		return fmt.Errorf("TEAMBOARD_API_URL is not set")
	}
	return nil
}

// LogrusLevel maps LogLevel to a logrus level
func (c *Config) LogrusLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.logrusName())
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func (c *Config) logrusName() string {
	if c.LogLevel == "silent" {
		return "panic"
	}
	return c.LogLevel
}

// DBPath returns the cache file inside the data directory
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// LockPath returns the single-instance lock file
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "teamboard.lock")
}
