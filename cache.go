package reswirl

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// CacheKey identifies a cached inventory resolution. The key scheme is
// part of the cache contract and must be reproducible by any storage
// backend.
type CacheKey struct {
	Package       string `json:"package"`
	URL           string `json:"url"`
	FormatVersion int    `json:"formatVersion"`
}

// String renders the key in its canonical form.
func (k CacheKey) String() string {
	return fmt.Sprintf("%s|%s|%d", k.Package, k.URL, k.FormatVersion)
}

// CacheEntry is a cached raw inventory payload together with the
// bookkeeping needed for staleness decisions.
type CacheEntry struct {
	// Raw inventory bytes as fetched from the source.
	Payload []byte `json:"payload"`

	// Fingerprint of Payload, used to detect source changes without
	// comparing full payloads.
	Fingerprint string `json:"fingerprint"`

	// When the payload was fetched.
	FetchedAt time.Time `json:"fetchedAt"`
}

// Stale reports whether the entry is older than ttl. A non-positive ttl
// means entries never expire.
func (e *CacheEntry) Stale(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(e.FetchedAt) > ttl
}

// Cache stores raw inventory payloads keyed by resolved location.
// Implementations must make the read/write pair for a given key atomic:
// a concurrent reader never observes a half-written entry. Writes are
// all-or-nothing so a failed fetch cannot poison the cache.
type Cache interface {
	// Get retrieves the entry for key.
	// Returns ENOTFOUND if no entry exists.
	Get(ctx context.Context, key CacheKey) (*CacheEntry, error)

	// Put stores an entry for key, replacing any existing entry.
	// Returns EWRITE on storage failure; callers degrade to no-cache
	// mode rather than failing the resolution.
	Put(ctx context.Context, key CacheKey, entry *CacheEntry) error

	// Invalidate removes the entry for key, if present.
	Invalidate(ctx context.Context, key CacheKey) error
}

// CacheIndex is an optional capability of a Cache: looking up the most
// recently stored entry for a package without knowing its resolved URL.
// Resolvers use it to skip network calls entirely when a fresh entry
// exists for the package.
type CacheIndex interface {
	// Lookup returns the newest entry for the package at the given
	// format version, along with its full key.
	// Returns ENOTFOUND if the package has no entries.
	Lookup(ctx context.Context, pkg string, formatVersion int) (CacheKey, *CacheEntry, error)
}

// Fingerprint computes a deterministic digest of content using xxHash,
// rendered as a fixed-width hex string.
func Fingerprint(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}

// NewCacheEntry builds an entry for payload, fingerprinting it and
// stamping the current time.
func NewCacheEntry(payload []byte, now time.Time) *CacheEntry {
	return &CacheEntry{
		Payload:     payload,
		Fingerprint: Fingerprint(payload),
		FetchedAt:   now.UTC(),
	}
}
