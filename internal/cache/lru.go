package cache

import (
	"context"
	"fmt"
	"path"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type lruItem struct {
	data      []byte
	expiresAt time.Time
}

// LRUBackend is the in-process Backend used when no Redis is configured.
// Capacity is bounded; entries also expire after their TTL.
type LRUBackend struct {
	items *lru.Cache[string, lruItem]
	now   func() time.Time
}

func NewLRUBackend(size int) (*LRUBackend, error) {
	l, err := lru.New[string, lruItem](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRUBackend{items: l, now: time.Now}, nil
}

func (b *LRUBackend) Get(_ context.Context, key string) ([]byte, error) {
	item, ok := b.items.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if b.now().After(item.expiresAt) {
		b.items.Remove(key)
		return nil, ErrMiss
	}
	return item.data, nil
}

func (b *LRUBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.items.Add(key, lruItem{data: value, expiresAt: b.now().Add(ttl)})
	return nil
}

func (b *LRUBackend) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		b.items.Remove(k)
	}
	return nil
}

func (b *LRUBackend) DeletePattern(_ context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	for _, k := range b.items.Keys() {
		if ok, _ := path.Match(pattern, k); ok {
			b.items.Remove(k)
		}
	}
	return nil
}

func (b *LRUBackend) Len() int {
	return b.items.Len()
}
