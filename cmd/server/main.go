package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emilythestrangee/comment-board/backend/internal/auth"
	"github.com/emilythestrangee/comment-board/backend/internal/cache"
	"github.com/emilythestrangee/comment-board/backend/internal/config"
	"github.com/emilythestrangee/comment-board/backend/internal/database"
	"github.com/emilythestrangee/comment-board/backend/internal/handlers"
	"github.com/emilythestrangee/comment-board/backend/internal/logging"
	"github.com/emilythestrangee/comment-board/backend/internal/middleware"
	"github.com/emilythestrangee/comment-board/backend/internal/sanitize"
	"github.com/emilythestrangee/comment-board/backend/internal/server"
	"github.com/emilythestrangee/comment-board/backend/internal/store"
	"github.com/emilythestrangee/comment-board/backend/internal/validation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error(context.Background(), "closing database", "error", err)
		}
	}()

	backend, closeCache, err := newCacheBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	coordinator := cache.NewCoordinator(backend, logger,
		cache.WithTTL(cfg.CacheTTL),
		cache.WithTimeout(cfg.CacheTimeout),
	)

	tokens := auth.NewJWTProvider(cfg.JWTSecret, cfg.TokenTTL)
	limiter, err := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	if err != nil {
		return err
	}

	gormDB := db.GetDB()
	h := handlers.NewHandler(handlers.Deps{
		Comments:  store.NewCommentStore(gormDB, coordinator, logger, cfg.StorageTimeout),
		Votes:     store.NewVoteLedger(gormDB, coordinator, logger, cfg.StorageTimeout),
		Users:     store.NewUserStore(gormDB, logger, cfg.StorageTimeout),
		Tokens:    tokens,
		Validator: validation.New(),
		Sanitizer: sanitize.New(),
		Logger:    logger,
	})

	srv := server.NewServer(cfg, h, db, tokens, limiter).HTTPServer()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info(context.Background(), "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// newCacheBackend picks Redis when configured and the in-process LRU otherwise.
func newCacheBackend(cfg *config.Config, logger logging.Logger) (cache.Backend, func(), error) {
	if cfg.RedisURL == "" {
		backend, err := cache.NewLRUBackend(cfg.CacheSize)
		if err != nil {
			return nil, nil, err
		}
		logger.Info(context.Background(), "using in-process cache", "size", cfg.CacheSize)
		return backend, func() {}, nil
	}

	client, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// the coordinator degrades to misses while Redis is away
		logger.Warn(ctx, "redis unreachable at startup", "error", err)
	}

	logger.Info(context.Background(), "using redis cache", "addr", client.Options().Addr)
	return cache.NewRedisBackend(client), func() {
		if err := client.Close(); err != nil {
			logger.Error(context.Background(), "closing redis", "error", err)
		}
	}, nil
}
