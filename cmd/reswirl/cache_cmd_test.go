package main_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/lmmx/reswirl"
	main "github.com/lmmx/reswirl/cmd/reswirl"
	"github.com/lmmx/reswirl/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheDeps(t *testing.T) (*main.Dependencies, *bytes.Buffer) {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { _ = db.Close() })

	stdout := &bytes.Buffer{}
	return &main.Dependencies{
		Ctx:    context.Background(),
		Stdout: stdout,
		Stderr: &bytes.Buffer{},
		Cache:  sqlite.NewCacheService(db),
	}, stdout
}

func seedEntry(t *testing.T, deps *main.Dependencies, pkg, url string) {
	t.Helper()

	key := reswirl.CacheKey{Package: pkg, URL: url, FormatVersion: 2}
	entry := reswirl.NewCacheEntry([]byte("payload"), time.Now())
	require.NoError(t, deps.Cache.Put(context.Background(), key, entry))
}

func TestCacheClearCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("clears all entries", func(t *testing.T) {
		t.Parallel()

		deps, stdout := cacheDeps(t)
		seedEntry(t, deps, "alpha", "https://alpha.example.org/objects.inv")
		seedEntry(t, deps, "beta", "https://beta.example.org/objects.inv")

		cmd := &main.CacheClearCmd{}
		require.NoError(t, cmd.Run(deps))

		assert.Contains(t, stdout.String(), "removed 2 cache entries")

		entries, err := deps.Cache.Entries(context.Background())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("clears only the named package", func(t *testing.T) {
		t.Parallel()

		deps, stdout := cacheDeps(t)
		seedEntry(t, deps, "alpha", "https://alpha.example.org/objects.inv")
		seedEntry(t, deps, "beta", "https://beta.example.org/objects.inv")

		cmd := &main.CacheClearCmd{Package: "alpha"}
		require.NoError(t, cmd.Run(deps))

		assert.Contains(t, stdout.String(), "removed 1 cache entry")

		entries, err := deps.Cache.Entries(context.Background())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "beta", entries[0].Package)
	})

	t.Run("fails without a cache database", func(t *testing.T) {
		t.Parallel()

		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: &bytes.Buffer{},
		}

		cmd := &main.CacheClearCmd{}
		err := cmd.Run(deps)
		assert.Equal(t, reswirl.EINVALID, reswirl.ErrorCode(err))
	})
}

func TestCacheInfoCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists entries with package, url, and size", func(t *testing.T) {
		t.Parallel()

		deps, stdout := cacheDeps(t)
		seedEntry(t, deps, "alpha", "https://alpha.example.org/objects.inv")

		cmd := &main.CacheInfoCmd{}
		require.NoError(t, cmd.Run(deps))

		output := stdout.String()
		assert.Contains(t, output, "PACKAGE")
		assert.Contains(t, output, "alpha")
		assert.Contains(t, output, "https://alpha.example.org/objects.inv")
		assert.Contains(t, output, "1 entry")
	})

	t.Run("reports an empty cache", func(t *testing.T) {
		t.Parallel()

		deps, stdout := cacheDeps(t)

		cmd := &main.CacheInfoCmd{}
		require.NoError(t, cmd.Run(deps))

		assert.Contains(t, stdout.String(), "cache is empty")
	})
}
