package slog

import (
	"context"
	"log/slog"

	"github.com/lmmx/reswirl"
)

// Ensure LoggingCache implements reswirl.Cache.
var _ reswirl.Cache = (*LoggingCache)(nil)

// LoggingCache wraps a Cache with debug logging of hits, misses and
// writes.
type LoggingCache struct {
	next   reswirl.Cache
	logger *slog.Logger
}

// NewLoggingCache creates a new LoggingCache.
func NewLoggingCache(next reswirl.Cache, logger *slog.Logger) *LoggingCache {
	return &LoggingCache{next: next, logger: logger}
}

// Get delegates to the wrapped cache, logging hit or miss.
func (c *LoggingCache) Get(ctx context.Context, key reswirl.CacheKey) (*reswirl.CacheEntry, error) {
	entry, err := c.next.Get(ctx, key)
	switch {
	case reswirl.ErrorCode(err) == reswirl.ENOTFOUND:
		c.logger.Debug("cache miss", "key", key.String())
	case err != nil:
		c.logger.Debug("cache read failed", "key", key.String(), "error", err)
	default:
		c.logger.Debug("cache hit", "key", key.String(), "bytes", len(entry.Payload), "fetched_at", entry.FetchedAt)
	}
	return entry, err
}

// Put delegates to the wrapped cache, logging the write.
func (c *LoggingCache) Put(ctx context.Context, key reswirl.CacheKey, entry *reswirl.CacheEntry) error {
	err := c.next.Put(ctx, key, entry)
	if err != nil {
		c.logger.Debug("cache write failed", "key", key.String(), "error", err)
	} else {
		c.logger.Debug("cache write", "key", key.String(), "bytes", len(entry.Payload))
	}
	return err
}

// Invalidate delegates to the wrapped cache.
func (c *LoggingCache) Invalidate(ctx context.Context, key reswirl.CacheKey) error {
	c.logger.Debug("cache invalidate", "key", key.String())
	return c.next.Invalidate(ctx, key)
}

// Lookup delegates to the wrapped cache when it supports package lookup.
func (c *LoggingCache) Lookup(ctx context.Context, pkg string, formatVersion int) (reswirl.CacheKey, *reswirl.CacheEntry, error) {
	idx, ok := c.next.(reswirl.CacheIndex)
	if !ok {
		return reswirl.CacheKey{}, nil, reswirl.Errorf(reswirl.ENOTFOUND, "cache does not support package lookup")
	}
	key, entry, err := idx.Lookup(ctx, pkg, formatVersion)
	if err != nil {
		c.logger.Debug("cache lookup miss", "package", pkg)
	} else {
		c.logger.Debug("cache lookup hit", "package", pkg, "url", key.URL)
	}
	return key, entry, err
}
