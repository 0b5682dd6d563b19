package main

import (
	"context"
	"strings"
	"sync"

	"github.com/lmmx/reswirl"
	"github.com/lmmx/reswirl/enrich"
	"github.com/lmmx/reswirl/goquery"
	"github.com/lmmx/reswirl/htmltomarkdown"
	"golang.org/x/sync/singleflight"
)

// pageCache memoizes fetched documentation pages for the duration of one
// enrichment run. Many symbols anchor into the same page, so each page is
// fetched at most once per run. The mutex only guards the result map;
// fetches run outside it, deduplicated per URL by the singleflight group,
// so distinct pages download in parallel.
type pageCache struct {
	group singleflight.Group

	mu    sync.Mutex
	pages map[string]pageResult
}

type pageResult struct {
	body []byte
	err  error
}

func (pc *pageCache) get(ctx context.Context, fetcher reswirl.Fetcher, url string) ([]byte, error) {
	pc.mu.Lock()
	res, ok := pc.pages[url]
	pc.mu.Unlock()
	if ok {
		return res.body, res.err
	}

	v, err, _ := pc.group.Do(url, func() (any, error) {
		// Re-check under the flight: a caller that missed the map may
		// enter here after an earlier flight for this URL finished.
		pc.mu.Lock()
		res, ok := pc.pages[url]
		pc.mu.Unlock()
		if ok {
			return res.body, res.err
		}

		body, err := fetcher.Fetch(ctx, url)
		pc.mu.Lock()
		pc.pages[url] = pageResult{body: body, err: err}
		pc.mu.Unlock()
		return body, err
	})

	body, _ := v.([]byte)
	return body, err
}

// newDocFetcher builds the per-symbol documentation fetch function: it
// resolves the record's location against the documentation base URL,
// fetches the page, extracts the block anchored at the location's
// fragment, and converts it to markdown.
func newDocFetcher(fetcher reswirl.Fetcher, baseURL string) enrich.FetchDocFunc {
	conv := htmltomarkdown.NewConverter()
	cache := &pageCache{pages: make(map[string]pageResult)}
	base := strings.TrimSuffix(baseURL, "/")

	return func(ctx context.Context, rec reswirl.SymbolRecord) (string, error) {
		page, fragment, _ := strings.Cut(rec.Location, "#")
		if page == "" {
			return "", reswirl.Errorf(reswirl.EINVALID, "symbol %q has no documentation location", rec.Name)
		}

		body, err := cache.get(ctx, fetcher, base+"/"+page)
		if err != nil {
			return "", err
		}

		block, err := goquery.ExtractFragment(string(body), fragment)
		if err != nil {
			return "", err
		}
		return conv.Convert(block)
	}
}
