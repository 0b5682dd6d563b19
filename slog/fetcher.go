// Package slog provides logging decorators for the reswirl domain
// interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/lmmx/reswirl"
)

// Ensure LoggingFetcher implements reswirl.Fetcher.
var _ reswirl.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging of every request.
type LoggingFetcher struct {
	next   reswirl.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next reswirl.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher, logging the outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	begin := time.Now()
	body, err := f.next.Fetch(ctx, url)
	if err != nil {
		f.logger.Debug("fetch failed",
			"url", url,
			"duration", time.Since(begin),
			"code", reswirl.ErrorCode(err),
		)
		return nil, err
	}
	f.logger.Debug("fetch",
		"url", url,
		"bytes", len(body),
		"duration", time.Since(begin),
	)
	return body, nil
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
