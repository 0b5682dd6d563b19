package mock

import (
	"context"
	"sync"

	"github.com/lmmx/reswirl"
)

var _ reswirl.Cache = (*Cache)(nil)

// Cache is a mock implementation of reswirl.Cache. When a function field
// is nil the call falls through to an in-memory map, so tests can use it
// either as a spy or as a working fake.
type Cache struct {
	GetFn        func(ctx context.Context, key reswirl.CacheKey) (*reswirl.CacheEntry, error)
	PutFn        func(ctx context.Context, key reswirl.CacheKey, entry *reswirl.CacheEntry) error
	InvalidateFn func(ctx context.Context, key reswirl.CacheKey) error

	mu      sync.Mutex
	entries map[string]*reswirl.CacheEntry
}

func (c *Cache) Get(ctx context.Context, key reswirl.CacheKey) (*reswirl.CacheEntry, error) {
	if c.GetFn != nil {
		return c.GetFn(ctx, key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key.String()]
	if !ok {
		return nil, reswirl.Errorf(reswirl.ENOTFOUND, "no cache entry for %s", key)
	}
	return entry, nil
}

func (c *Cache) Put(ctx context.Context, key reswirl.CacheKey, entry *reswirl.CacheEntry) error {
	if c.PutFn != nil {
		return c.PutFn(ctx, key, entry)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]*reswirl.CacheEntry)
	}
	c.entries[key.String()] = entry
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, key reswirl.CacheKey) error {
	if c.InvalidateFn != nil {
		return c.InvalidateFn(ctx, key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key.String())
	return nil
}
