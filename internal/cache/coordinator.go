package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/emilythestrangee/comment-board/backend/internal/logging"
)

const (
	DefaultTTL     = time.Hour
	DefaultTimeout = 250 * time.Millisecond
)

// Coordinator is the read-through cache used by the stores.
//
// Every invalidation bumps an epoch. A population only writes its value back
// if no invalidation happened while it was computing, so a snapshot taken
// before a mutation cannot be stored after that mutation invalidated the key.
type Coordinator struct {
	backend Backend
	logger  logging.Logger
	ttl     time.Duration
	timeout time.Duration
	epoch   atomic.Uint64
}

type Option func(*Coordinator)

func WithTTL(ttl time.Duration) Option {
	return func(c *Coordinator) { c.ttl = ttl }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) { c.timeout = timeout }
}

func NewCoordinator(backend Backend, logger logging.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend: backend,
		logger:  logger.With("component", "cache"),
		ttl:     DefaultTTL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReadThrough returns the cached value for key, or calls compute, caches its
// result and returns it. Errors from compute are returned as-is and nothing
// is cached. Cache failures are logged and treated as a miss.
func ReadThrough[T any](ctx context.Context, c *Coordinator, key string, compute func(context.Context) (T, error)) (T, error) {
	if data, ok := c.get(ctx, key); ok {
		var v T
		err := json.Unmarshal(data, &v)
		if err == nil {
			return v, nil
		}
		c.logger.Warn(ctx, "dropping undecodable cache entry", "key", key, "error", err)
		c.drop(ctx, key)
	}

	epoch := c.epoch.Load()

	v, err := compute(ctx)
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn(ctx, "cache encode failed", "key", key, "error", err)
		return v, nil
	}

	if c.epoch.Load() != epoch {
		c.logger.Debug(ctx, "skipping cache fill after concurrent invalidation", "key", key)
		return v, nil
	}
	c.set(ctx, key, data)

	// An invalidation may have landed between the check and the write.
	if c.epoch.Load() != epoch {
		c.drop(ctx, key)
	}

	return v, nil
}

// Invalidate removes keys immediately. A key ending in "*" is treated as a
// pattern. Failures are logged, never returned.
func (c *Coordinator) Invalidate(ctx context.Context, keys ...string) {
	c.epoch.Add(1)

	var exact []string
	for _, k := range keys {
		if strings.HasSuffix(k, "*") {
			c.deletePattern(ctx, k)
			continue
		}
		exact = append(exact, k)
	}
	if len(exact) == 0 {
		return
	}

	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.backend.Delete(opCtx, exact...); err != nil {
		c.logger.Warn(ctx, "cache invalidate failed", "keys", exact, "error", err)
	}
}

func (c *Coordinator) get(ctx context.Context, key string) ([]byte, bool) {
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	data, err := c.backend.Get(opCtx, key)
	switch {
	case err == nil:
		return data, true
	case errors.Is(err, ErrMiss):
	default:
		c.logger.Warn(ctx, "cache read failed, treating as miss", "key", key, "error", err)
	}
	return nil, false
}

func (c *Coordinator) set(ctx context.Context, key string, data []byte) {
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.backend.Set(opCtx, key, data, c.ttl); err != nil {
		c.logger.Warn(ctx, "cache write failed", "key", key, "error", err)
	}
}

func (c *Coordinator) drop(ctx context.Context, key string) {
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.backend.Delete(opCtx, key); err != nil {
		c.logger.Warn(ctx, "cache delete failed", "key", key, "error", err)
	}
}

func (c *Coordinator) deletePattern(ctx context.Context, pattern string) {
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.backend.DeletePattern(opCtx, pattern); err != nil {
		c.logger.Warn(ctx, "cache pattern invalidate failed", "pattern", pattern, "error", err)
	}
}

// opContext detaches the cache call from request cancellation: an abandoned
// request must still invalidate what it mutated.
func (c *Coordinator) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
}
