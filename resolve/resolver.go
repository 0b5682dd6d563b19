// Package resolve orchestrates inventory resolution: locating a package's
// documentation inventory from registry metadata, fetching its bytes
// through the cache, decoding them, and building the final symbol table.
package resolve

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lmmx/reswirl"
	"github.com/lmmx/reswirl/sphinx"
)

// DefaultTTL is how long a cache entry is trusted without a staleness
// re-check. TTL expiry is advisory: expiry triggers a conditional
// re-fetch, not an unconditional re-decode.
const DefaultTTL = 24 * time.Hour

// packagePlaceholder in a fallback host expands to the package name.
const packagePlaceholder = "{package}"

// DefaultFallbackHosts returns the documentation hosts probed when
// registry metadata is silent.
func DefaultFallbackHosts() []string {
	return []string{
		"https://" + packagePlaceholder + ".readthedocs.io/en/latest",
	}
}

// Resolver locates, fetches, decodes and tabulates package inventories.
type Resolver struct {
	Metadata reswirl.MetadataService
	Fetcher  reswirl.Fetcher

	// Cache is optional; a nil Cache means every resolution hits the
	// network.
	Cache reswirl.Cache

	// Enricher is optional; required only when a resolution requests
	// enrichment.
	Enricher reswirl.Enricher

	// TTL bounds how long cache entries are trusted without a
	// conditional re-fetch. Zero means DefaultTTL.
	TTL time.Duration

	// FallbackHosts overrides DefaultFallbackHosts when non-nil.
	FallbackHosts []string

	// Logger receives cache-degradation warnings. Nil means slog's
	// default logger.
	Logger *slog.Logger

	// probed holds inventory bytes paid for by a fallback probe until
	// the same resolution consumes them, so a cacheless resolver never
	// fetches the same inventory twice.
	mu     sync.Mutex
	probed map[string][]byte
}

func (r *Resolver) stashProbe(url string, raw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.probed == nil {
		r.probed = make(map[string][]byte)
	}
	r.probed[url] = raw
}

// takeProbe removes and returns stashed probe bytes. Take-once: a later
// resolution must not see bytes of unknown age.
func (r *Resolver) takeProbe(url string) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw := r.probed[url]
	delete(r.probed, url)
	return raw
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Resolver) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return DefaultTTL
}

// Locate determines the inventory URL for a package. Registry metadata is
// the primary source; when it is silent, the fallback hosts are probed in
// order and the first candidate serving a non-empty body wins. A probe
// that succeeds writes the fetched bytes to the cache so the subsequent
// decode can skip the network.
func (r *Resolver) Locate(ctx context.Context, pkg string) (*reswirl.Location, error) {
	return r.locate(ctx, pkg, r.fallbackHosts(nil), false)
}

// LocateFor is Locate honoring a resolution config's fallback hosts and
// force-refresh setting.
func (r *Resolver) LocateFor(ctx context.Context, pkg string, cfg reswirl.Config) (*reswirl.Location, error) {
	return r.locate(ctx, pkg, r.fallbackHosts(cfg.FallbackHosts), cfg.ForceRefresh)
}

func (r *Resolver) fallbackHosts(override []string) []string {
	if override != nil {
		return override
	}
	if r.FallbackHosts != nil {
		return r.FallbackHosts
	}
	return DefaultFallbackHosts()
}

func (r *Resolver) locate(ctx context.Context, pkg string, fallbacks []string, skipCache bool) (*reswirl.Location, error) {
	if pkg == "" {
		return nil, reswirl.Errorf(reswirl.EINVALID, "package name required")
	}

	// A fresh cache entry for the package already names the resolved
	// URL, so the registry round-trip can be skipped entirely.
	if !skipCache {
		if loc := r.cachedLocation(ctx, pkg); loc != nil {
			return loc, nil
		}
	}

	var homepage string
	meta, err := r.Metadata.ProjectMetadata(ctx, pkg)
	switch {
	case err != nil && reswirl.ErrorCode(err) == reswirl.ENOTFOUND:
		// Registry doesn't know the package; fall through to the
		// deterministic fallbacks.
	case err != nil:
		return nil, err
	case len(meta.DocURLs) > 1:
		return nil, reswirl.Errorf(reswirl.EAMBIGUOUS,
			"package %q has multiple equally ranked documentation URLs: %s",
			pkg, strings.Join(meta.DocURLs, ", "))
	case len(meta.DocURLs) == 1:
		return reswirl.NewLocation(pkg, meta.DocURLs[0]), nil
	default:
		homepage = meta.Homepage
	}

	var candidates []string
	if homepage != "" {
		candidates = append(candidates, homepage)
	}
	for _, host := range fallbacks {
		candidates = append(candidates, strings.ReplaceAll(host, packagePlaceholder, pkg))
	}

	var attempted []string
	for _, base := range candidates {
		loc := reswirl.NewLocation(pkg, base)
		attempted = append(attempted, loc.InventoryURL)

		raw, err := r.Fetcher.Fetch(ctx, loc.InventoryURL)
		if err != nil || len(raw) == 0 {
			if reswirl.ErrorCode(err) == reswirl.ETIMEOUT {
				return nil, err
			}
			continue
		}

		// The probe already paid for the bytes; keep them.
		r.writeCache(ctx, cacheKey(loc), reswirl.NewCacheEntry(raw, time.Now()))
		r.stashProbe(loc.InventoryURL, raw)
		return loc, nil
	}

	if len(attempted) == 0 {
		return nil, reswirl.Errorf(reswirl.ENOTFOUND,
			"no inventory found for package %q: metadata has no documentation URL and no fallback candidates are configured", pkg)
	}
	return nil, reswirl.Errorf(reswirl.ENOTFOUND,
		"no inventory found for package %q (tried: %s)", pkg, strings.Join(attempted, ", "))
}

// cachedLocation reconstructs a Location from a fresh cache entry, if
// the cache supports package lookup and has one.
func (r *Resolver) cachedLocation(ctx context.Context, pkg string) *reswirl.Location {
	idx, ok := r.Cache.(reswirl.CacheIndex)
	if !ok {
		return nil
	}
	key, entry, err := idx.Lookup(ctx, pkg, 2)
	if err != nil || entry.Stale(r.ttl(), time.Now()) {
		return nil
	}
	return &reswirl.Location{
		Package:      pkg,
		BaseURL:      strings.TrimSuffix(key.URL, "/"+reswirl.InventorySuffix),
		InventoryURL: key.URL,
	}
}

// GetInventory resolves a package's inventory into a symbol table,
// consulting and maintaining the cache along the way.
func (r *Resolver) GetInventory(ctx context.Context, pkg string, cfg reswirl.Config) (*reswirl.Table, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	loc, err := r.locate(ctx, pkg, r.fallbackHosts(cfg.FallbackHosts), cfg.ForceRefresh)
	if err != nil {
		return nil, err
	}

	return r.getAt(ctx, loc, cfg)
}

// GetInventoryAt is GetInventory for a location that has already been
// resolved, e.g. by a prior Locate call.
func (r *Resolver) GetInventoryAt(ctx context.Context, loc *reswirl.Location, cfg reswirl.Config) (*reswirl.Table, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	return r.getAt(ctx, loc, cfg)
}

func (r *Resolver) getAt(ctx context.Context, loc *reswirl.Location, cfg reswirl.Config) (*reswirl.Table, error) {
	raw, err := r.payload(ctx, loc, cfg.ForceRefresh)
	if err != nil {
		return nil, err
	}

	reader, err := sphinx.Decode(raw)
	if err != nil {
		return nil, err
	}
	header := reader.Header()

	table, err := reswirl.BuildTable(reader, header.Project, header.Version, header.FormatVersion)
	if err != nil {
		return nil, err
	}

	if cfg.Enrich {
		if r.Enricher == nil {
			return nil, reswirl.Errorf(reswirl.EINVALID, "enrichment requested but no enricher is configured")
		}
		return r.Enricher.Enrich(ctx, table)
	}
	return table, nil
}

// payload returns the raw inventory bytes for a location, applying the
// two-tier cache policy: a fresh entry is served as-is; a stale entry
// triggers a conditional re-fetch whose fingerprint decides between
// serving the cached bytes and replacing them; force-refresh bypasses
// the cache reads entirely.
func (r *Resolver) payload(ctx context.Context, loc *reswirl.Location, forceRefresh bool) ([]byte, error) {
	// Bytes fetched moments ago by a fallback probe are fresher than
	// anything the cache could serve, force-refresh included.
	if raw := r.takeProbe(loc.InventoryURL); len(raw) > 0 {
		return raw, nil
	}

	key := cacheKey(loc)

	if r.Cache == nil || forceRefresh {
		raw, err := r.fetchInventory(ctx, loc)
		if err != nil {
			return nil, err
		}
		r.writeCache(ctx, key, reswirl.NewCacheEntry(raw, time.Now()))
		return raw, nil
	}

	entry, err := r.Cache.Get(ctx, key)
	if err != nil && reswirl.ErrorCode(err) != reswirl.ENOTFOUND {
		r.logger().Warn("cache read failed, continuing without cache", "key", key.String(), "error", err)
		entry = nil
	}

	if entry != nil && !entry.Stale(r.ttl(), time.Now()) {
		return entry.Payload, nil
	}

	raw, err := r.fetchInventory(ctx, loc)
	if err != nil {
		return nil, err
	}

	if entry != nil && reswirl.Fingerprint(raw) == entry.Fingerprint {
		// Source unchanged; refresh the timestamp so the entry is
		// trusted for another TTL window.
		r.writeCache(ctx, key, &reswirl.CacheEntry{
			Payload:     entry.Payload,
			Fingerprint: entry.Fingerprint,
			FetchedAt:   time.Now().UTC(),
		})
		return entry.Payload, nil
	}

	r.writeCache(ctx, key, reswirl.NewCacheEntry(raw, time.Now()))
	return raw, nil
}

func (r *Resolver) fetchInventory(ctx context.Context, loc *reswirl.Location) ([]byte, error) {
	raw, err := r.Fetcher.Fetch(ctx, loc.InventoryURL)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, reswirl.Errorf(reswirl.EFORMAT, "empty inventory at %s", loc.InventoryURL)
	}
	return raw, nil
}

// writeCache stores an entry, degrading to no-cache mode on failure. A
// cache write failure is never fatal to the resolution.
func (r *Resolver) writeCache(ctx context.Context, key reswirl.CacheKey, entry *reswirl.CacheEntry) {
	if r.Cache == nil {
		return
	}
	if err := r.Cache.Put(ctx, key, entry); err != nil {
		r.logger().Warn("cache write failed, continuing without cache", "key", key.String(), "error", err)
	}
}

func cacheKey(loc *reswirl.Location) reswirl.CacheKey {
	return reswirl.CacheKey{
		Package:       loc.Package,
		URL:           loc.InventoryURL,
		FormatVersion: 2,
	}
}
