package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays environment variables onto config. A .env file in the
// working directory is loaded first; variables already set win over it.
//
// DATABASE_URL takes precedence over the individual DB_* variables.
func parseEnv(config *Config) error {
	_ = godotenv.Load()

	setString(&config.Env, "APP_ENV")
	setString(&config.Port, "PORT")
	setString(&config.RedisURL, "REDIS_URL")
	setString(&config.JWTSecret, "JWT_SECRET")
	setString(&config.LogLevel, "LOG_LEVEL")
	setString(&config.LogFormat, "LOG_FORMAT")

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		config.DatabaseURL = dsn
	} else if host := os.Getenv("DB_HOST"); host != "" {
		config.DatabaseURL = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			host,
			envOr("DB_PORT", "5432"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			envOr("DB_SSLMODE", "disable"),
		)
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		config.CORSOrigins = splitList(v)
	}

	durations := map[string]*time.Duration{
		"TOKEN_TTL":       &config.TokenTTL,
		"CACHE_TTL":       &config.CacheTTL,
		"CACHE_TIMEOUT":   &config.CacheTimeout,
		"STORAGE_TIMEOUT": &config.StorageTimeout,
		"RATE_WINDOW":     &config.RateWindow,
	}
	for name, dst := range durations {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		*dst = d
	}

	ints := map[string]*int{
		"CACHE_SIZE": &config.CacheSize,
		"RATE_LIMIT": &config.RateLimit,
	}
	for name, dst := range ints {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		*dst = n
	}

	return nil
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
