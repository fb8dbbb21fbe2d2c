// Package config handles configuration for the comment-board server:
// defaults, then a .env file and the environment, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const devSecret = "dev-secret-change-me"

// Config holds runtime settings for the server.
//
// Fields:
//   - Port: HTTP listen port.
//   - DatabaseURL: PostgreSQL DSN handed to pgx.
//   - RedisURL: optional; when empty the in-process LRU cache is used.
//   - JWTSecret / TokenTTL: HS256 signing key and token lifetime.
//   - CacheTTL / CacheSize / CacheTimeout: read-through cache behaviour.
//   - StorageTimeout: upper bound for a single store operation.
//   - RateLimit / RateWindow: comment mutations allowed per client IP per window.
type Config struct {
	Env            string
	Port           string
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	TokenTTL       time.Duration
	CacheTTL       time.Duration
	CacheSize      int
	CacheTimeout   time.Duration
	StorageTimeout time.Duration
	RateLimit      int
	RateWindow     time.Duration
	CORSOrigins    []string
	LogLevel       string
	LogFormat      string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Env = "development"
	c.Port = "3000"
	c.DatabaseURL = "host=localhost user=postgres password=postgres dbname=comments port=5432 sslmode=disable TimeZone=UTC"
	c.RedisURL = ""
	c.JWTSecret = devSecret
	c.TokenTTL = time.Hour
	c.CacheTTL = time.Hour
	c.CacheSize = 500
	c.CacheTimeout = 250 * time.Millisecond
	c.StorageTimeout = 5 * time.Second
	c.RateLimit = 100
	c.RateWindow = 15 * time.Minute
	c.CORSOrigins = []string{"http://localhost:5173"}
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// Load builds a Config from defaults, the environment (including .env) and args.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("database url is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if c.IsProduction() && c.JWTSecret == devSecret {
		errs = append(errs, errors.New("jwt secret must be set in production"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive, got %s", c.CacheTTL))
	}
	if c.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("cache size must be positive, got %d", c.CacheSize))
	}
	if c.StorageTimeout <= 0 || c.CacheTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		errs = append(errs, errors.New("rate limit and window must be positive"))
	}

	return errors.Join(errs...)
}
