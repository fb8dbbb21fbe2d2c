// Package cache implements the read-through cache in front of comment reads.
//
// The cache is advisory: a Backend may fail at any time and the Coordinator
// turns every failure into a miss or a no-op.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Backend.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Backend stores opaque snapshots by key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// DeletePattern removes every key matching a glob pattern such as "comments:*".
	DeletePattern(ctx context.Context, pattern string) error
}
