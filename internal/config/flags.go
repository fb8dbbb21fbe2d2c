package config

import (
	"github.com/spf13/pflag"
)

// parseFlags overlays command-line flags onto config. Only flags that were
// explicitly passed override earlier sources.
//
//	-p, --port             HTTP port
//	-d, --database-url     PostgreSQL DSN
//	-r, --redis-url        Redis URL (empty selects the in-process cache)
//	    --jwt-secret       HS256 secret
//	    --token-ttl        token lifetime (e.g. 1h)
//	    --cache-ttl        cache entry lifetime
//	    --cache-size       in-process cache capacity
//	    --storage-timeout  per-operation database timeout
//	    --log-level        debug|info|warn|error
func parseFlags(config *Config, args []string) error {
	fs := pflag.NewFlagSet("comments", pflag.ContinueOnError)

	fs.StringVarP(&config.Port, "port", "p", config.Port, "HTTP port")
	fs.StringVarP(&config.DatabaseURL, "database-url", "d", config.DatabaseURL, "PostgreSQL DSN")
	fs.StringVarP(&config.RedisURL, "redis-url", "r", config.RedisURL, "Redis URL")
	fs.StringVar(&config.JWTSecret, "jwt-secret", config.JWTSecret, "JWT signing secret")
	fs.DurationVar(&config.TokenTTL, "token-ttl", config.TokenTTL, "token lifetime")
	fs.DurationVar(&config.CacheTTL, "cache-ttl", config.CacheTTL, "cache entry lifetime")
	fs.IntVar(&config.CacheSize, "cache-size", config.CacheSize, "in-process cache capacity")
	fs.DurationVar(&config.CacheTimeout, "cache-timeout", config.CacheTimeout, "cache call timeout")
	fs.DurationVar(&config.StorageTimeout, "storage-timeout", config.StorageTimeout, "database call timeout")
	fs.IntVar(&config.RateLimit, "rate-limit", config.RateLimit, "comment mutations per client per window")
	fs.DurationVar(&config.RateWindow, "rate-window", config.RateWindow, "rate limit window")
	fs.StringSliceVar(&config.CORSOrigins, "cors-origins", config.CORSOrigins, "allowed CORS origins")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format (json|text)")
	fs.StringVar(&config.Env, "env", config.Env, "environment name")

	return fs.Parse(args)
}
