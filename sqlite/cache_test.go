package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/lmmx/reswirl"
	"github.com/lmmx/reswirl/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *sqlite.CacheService {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { _ = db.Close() })

	return sqlite.NewCacheService(db)
}

func testKey(pkg string) reswirl.CacheKey {
	return reswirl.CacheKey{
		Package:       pkg,
		URL:           "https://docs.example.com/" + pkg + "/objects.inv",
		FormatVersion: 2,
	}
}

func TestCacheService_PutGet(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	ctx := context.Background()
	key := testKey("polars")

	entry := reswirl.NewCacheEntry([]byte("raw inventory bytes"), time.Now())
	require.NoError(t, cache.Put(ctx, key, entry))

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, entry.Payload, got.Payload)
	assert.Equal(t, entry.Fingerprint, got.Fingerprint)
	assert.Equal(t, reswirl.Fingerprint(got.Payload), got.Fingerprint, "fingerprint matches stored bytes")
	assert.WithinDuration(t, entry.FetchedAt, got.FetchedAt, time.Second)
}

func TestCacheService_Get_Missing(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)

	_, err := cache.Get(context.Background(), testKey("absent"))
	assert.Equal(t, reswirl.ENOTFOUND, reswirl.ErrorCode(err))
}

func TestCacheService_Put_ReplacesExistingEntry(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	ctx := context.Background()
	key := testKey("polars")

	first := reswirl.NewCacheEntry([]byte("old payload"), time.Now().Add(-time.Hour))
	require.NoError(t, cache.Put(ctx, key, first))

	second := reswirl.NewCacheEntry([]byte("new payload"), time.Now())
	require.NoError(t, cache.Put(ctx, key, second))

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("new payload"), got.Payload)
	assert.Equal(t, second.Fingerprint, got.Fingerprint)
}

func TestCacheService_Put_RejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)

	err := cache.Put(context.Background(), testKey("pkg"), &reswirl.CacheEntry{})
	assert.Equal(t, reswirl.EINVALID, reswirl.ErrorCode(err))
}

func TestCacheService_KeysAreDistinct(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	ctx := context.Background()

	keyA := testKey("pkg")
	keyB := keyA
	keyB.URL = "https://mirror.example.com/pkg/objects.inv"

	require.NoError(t, cache.Put(ctx, keyA, reswirl.NewCacheEntry([]byte("a"), time.Now())))
	require.NoError(t, cache.Put(ctx, keyB, reswirl.NewCacheEntry([]byte("b"), time.Now())))

	gotA, err := cache.Get(ctx, keyA)
	require.NoError(t, err)
	gotB, err := cache.Get(ctx, keyB)
	require.NoError(t, err)

	assert.Equal(t, []byte("a"), gotA.Payload)
	assert.Equal(t, []byte("b"), gotB.Payload)
}

func TestCacheService_Invalidate(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	ctx := context.Background()
	key := testKey("polars")

	require.NoError(t, cache.Put(ctx, key, reswirl.NewCacheEntry([]byte("payload"), time.Now())))
	require.NoError(t, cache.Invalidate(ctx, key))

	_, err := cache.Get(ctx, key)
	assert.Equal(t, reswirl.ENOTFOUND, reswirl.ErrorCode(err))

	// Invalidating an absent key is not an error.
	assert.NoError(t, cache.Invalidate(ctx, key))
}

func TestCacheService_Lookup(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	ctx := context.Background()

	t.Run("returns ENOTFOUND for unknown packages", func(t *testing.T) {
		_, _, err := cache.Lookup(ctx, "absent", 2)
		assert.Equal(t, reswirl.ENOTFOUND, reswirl.ErrorCode(err))
	})

	t.Run("returns the newest entry with its key", func(t *testing.T) {
		old := testKey("polars")
		old.URL = "https://old.example.com/objects.inv"
		require.NoError(t, cache.Put(ctx, old, reswirl.NewCacheEntry([]byte("old"), time.Now().Add(-time.Hour))))

		current := testKey("polars")
		require.NoError(t, cache.Put(ctx, current, reswirl.NewCacheEntry([]byte("current"), time.Now())))

		key, entry, err := cache.Lookup(ctx, "polars", 2)
		require.NoError(t, err)
		assert.Equal(t, current, key)
		assert.Equal(t, []byte("current"), entry.Payload)
	})
}

func TestCacheService_InvalidatePackage(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, testKey("a"), reswirl.NewCacheEntry([]byte("a"), time.Now())))
	require.NoError(t, cache.Put(ctx, testKey("b"), reswirl.NewCacheEntry([]byte("b"), time.Now())))

	n, err := cache.InvalidatePackage(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = cache.Get(ctx, testKey("a"))
	assert.Equal(t, reswirl.ENOTFOUND, reswirl.ErrorCode(err))

	_, err = cache.Get(ctx, testKey("b"))
	assert.NoError(t, err, "other packages are untouched")
}

func TestCacheService_Entries(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, testKey("b"), reswirl.NewCacheEntry([]byte("bb"), time.Now())))
	require.NoError(t, cache.Put(ctx, testKey("a"), reswirl.NewCacheEntry([]byte("aaa"), time.Now())))

	entries, err := cache.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "a", entries[0].Package)
	assert.Equal(t, 3, entries[0].Size)
	assert.Equal(t, "b", entries[1].Package)
}

func TestCacheService_Clear(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, testKey("a"), reswirl.NewCacheEntry([]byte("a"), time.Now())))
	require.NoError(t, cache.Put(ctx, testKey("b"), reswirl.NewCacheEntry([]byte("b"), time.Now())))

	n, err := cache.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := cache.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
