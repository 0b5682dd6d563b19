package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lmmx/reswirl"
)

// Compile-time interface verification.
var (
	_ reswirl.Cache      = (*CacheService)(nil)
	_ reswirl.CacheIndex = (*CacheService)(nil)
)

// CacheService implements reswirl.Cache using SQLite. An upsert replaces
// a key's entry in a single statement, so writes are all-or-nothing and a
// concurrent reader never observes a half-written entry.
type CacheService struct {
	db *DB
}

// NewCacheService creates a new CacheService.
func NewCacheService(db *DB) *CacheService {
	return &CacheService{db: db}
}

// Get retrieves the cached entry for key.
// Returns ENOTFOUND if no entry exists.
func (s *CacheService) Get(ctx context.Context, key reswirl.CacheKey) (*reswirl.CacheEntry, error) {
	var payload []byte
	var fingerprint, fetchedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT payload, fingerprint, fetched_at
		FROM inventory_cache
		WHERE package = ? AND url = ? AND format_version = ?
	`, key.Package, key.URL, key.FormatVersion).Scan(&payload, &fingerprint, &fetchedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, reswirl.Errorf(reswirl.ENOTFOUND, "no cache entry for %s", key)
	} else if err != nil {
		return nil, reswirl.Errorf(reswirl.EINTERNAL, "reading cache entry for %s: %v", key, err)
	}

	ts, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return nil, reswirl.Errorf(reswirl.EINTERNAL, "parsing fetched_at for %s: %v", key, err)
	}

	return &reswirl.CacheEntry{
		Payload:     payload,
		Fingerprint: fingerprint,
		FetchedAt:   ts,
	}, nil
}

// Put stores an entry for key, replacing any existing entry.
// Returns EWRITE on storage failure.
func (s *CacheService) Put(ctx context.Context, key reswirl.CacheKey, entry *reswirl.CacheEntry) error {
	if len(entry.Payload) == 0 {
		return reswirl.Errorf(reswirl.EINVALID, "refusing to cache empty payload for %s", key)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_cache (id, package, url, format_version, payload, fingerprint, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(package, url, format_version) DO UPDATE SET
			payload = excluded.payload,
			fingerprint = excluded.fingerprint,
			fetched_at = excluded.fetched_at
	`, uuid.New().String(), key.Package, key.URL, key.FormatVersion,
		entry.Payload, entry.Fingerprint, entry.FetchedAt.UTC().Format(time.RFC3339))

	if err != nil {
		return reswirl.Errorf(reswirl.EWRITE, "writing cache entry for %s: %v", key, err)
	}
	return nil
}

// Invalidate removes the entry for key, if present.
func (s *CacheService) Invalidate(ctx context.Context, key reswirl.CacheKey) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM inventory_cache
		WHERE package = ? AND url = ? AND format_version = ?
	`, key.Package, key.URL, key.FormatVersion)

	if err != nil {
		return reswirl.Errorf(reswirl.EWRITE, "invalidating cache entry for %s: %v", key, err)
	}
	return nil
}

// Lookup returns the newest entry for a package at the given format
// version, along with its full key.
// Returns ENOTFOUND if the package has no entries.
func (s *CacheService) Lookup(ctx context.Context, pkg string, formatVersion int) (reswirl.CacheKey, *reswirl.CacheEntry, error) {
	var url string
	var payload []byte
	var fingerprint, fetchedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT url, payload, fingerprint, fetched_at
		FROM inventory_cache
		WHERE package = ? AND format_version = ?
		ORDER BY fetched_at DESC
		LIMIT 1
	`, pkg, formatVersion).Scan(&url, &payload, &fingerprint, &fetchedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return reswirl.CacheKey{}, nil, reswirl.Errorf(reswirl.ENOTFOUND, "no cache entries for package %q", pkg)
	} else if err != nil {
		return reswirl.CacheKey{}, nil, reswirl.Errorf(reswirl.EINTERNAL, "looking up cache entries for %q: %v", pkg, err)
	}

	ts, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return reswirl.CacheKey{}, nil, reswirl.Errorf(reswirl.EINTERNAL, "parsing fetched_at for %q: %v", pkg, err)
	}

	key := reswirl.CacheKey{Package: pkg, URL: url, FormatVersion: formatVersion}
	return key, &reswirl.CacheEntry{Payload: payload, Fingerprint: fingerprint, FetchedAt: ts}, nil
}

// InvalidatePackage removes all entries for a package, returning the
// number removed.
func (s *CacheService) InvalidatePackage(ctx context.Context, pkg string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM inventory_cache WHERE package = ?`, pkg)
	if err != nil {
		return 0, reswirl.Errorf(reswirl.EWRITE, "invalidating cache entries for %q: %v", pkg, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, reswirl.Errorf(reswirl.EINTERNAL, "counting invalidated entries for %q: %v", pkg, err)
	}
	return int(n), nil
}

// Clear removes every cache entry, returning the number removed.
func (s *CacheService) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM inventory_cache`)
	if err != nil {
		return 0, reswirl.Errorf(reswirl.EWRITE, "clearing cache: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, reswirl.Errorf(reswirl.EINTERNAL, "counting cleared entries: %v", err)
	}
	return int(n), nil
}

// EntryInfo is a summary row for cache inspection.
type EntryInfo struct {
	Package       string
	URL           string
	FormatVersion int
	Size          int
	Fingerprint   string
	FetchedAt     time.Time
}

// Entries lists all cache entries ordered by package then URL.
func (s *CacheService) Entries(ctx context.Context) ([]EntryInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT package, url, format_version, LENGTH(payload), fingerprint, fetched_at
		FROM inventory_cache
		ORDER BY package, url
	`)
	if err != nil {
		return nil, reswirl.Errorf(reswirl.EINTERNAL, "listing cache entries: %v", err)
	}
	defer rows.Close()

	var entries []EntryInfo
	for rows.Next() {
		var e EntryInfo
		var fetchedAt string
		if err := rows.Scan(&e.Package, &e.URL, &e.FormatVersion, &e.Size, &e.Fingerprint, &fetchedAt); err != nil {
			return nil, reswirl.Errorf(reswirl.EINTERNAL, "scanning cache entry: %v", err)
		}
		if e.FetchedAt, err = time.Parse(time.RFC3339, fetchedAt); err != nil {
			return nil, reswirl.Errorf(reswirl.EINTERNAL, "parsing fetched_at: %v", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
