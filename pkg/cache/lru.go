package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

type lruEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// LRUCache is a bounded in-process Cache. golang-lru has no TTL support, so
// each entry carries its own deadline and expired entries are dropped on read.
type LRUCache struct {
	entries *lru.Cache
	now     func() time.Time
}

// NewLRUCache creates an in-process cache holding at most size entries.
func NewLRUCache(size int) (*LRUCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}
	return &LRUCache{entries: c, now: time.Now}, nil
}

func (c *LRUCache) Get(_ context.Context, key string) ([]byte, error) {
	raw, ok := c.entries.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	e := raw.(lruEntry)
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.entries.Remove(key)
		return nil, ErrMiss
	}
	return e.value, nil
}

func (c *LRUCache) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	e := lruEntry{value: append([]byte(nil), value...)}
	if expiration > 0 {
		e.expiresAt = c.now().Add(expiration)
	}
	c.entries.Add(key, e)
	return nil
}

func (c *LRUCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.entries.Remove(k)
	}
	return nil
}

func (c *LRUCache) Close() error {
	c.entries.Purge()
	return nil
}
