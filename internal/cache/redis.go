package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// RedisBackend stores snapshots in Redis with SETEX-style expiry.
type RedisBackend struct {
	client redis.UniversalClient
}

func NewRedisBackend(client redis.UniversalClient) *RedisBackend {
	return &RedisBackend{client: client}
}

// NewRedisClient parses a redis:// URL. The client connects lazily, so an
// unreachable server only shows up as failed cache calls.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := b.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeletePattern collects every key matching pattern with SCAN, then deletes
// them in batches. Deleting while scanning can move unvisited keys behind the
// cursor.
func (b *RedisBackend) DeletePattern(ctx context.Context, pattern string) error {
	var (
		cursor  uint64
		matched []string
	)
	for {
		keys, next, err := b.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		matched = append(matched, keys...)
		if next == 0 {
			break
		}
		cursor = next
	}

	for start := 0; start < len(matched); start += scanBatch {
		end := min(start+scanBatch, len(matched))
		if err := b.Delete(ctx, matched[start:end]...); err != nil {
			return err
		}
	}
	return nil
}
