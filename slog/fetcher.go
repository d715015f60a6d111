// Package slog provides logging decorators for the scraping pipeline's
// interfaces. Decorators log metadata only: page content is reduced to a
// length and an xxhash digest, and credentials never reach the logger.
package slog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/eventscrape"
)

// shortContentThreshold is the advisory boundary below which a fetched page
// is flagged as suspiciously short.
const shortContentThreshold = 512

// Ensure LoggingFetcher implements eventscrape.Fetcher.
var _ eventscrape.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with structured logging of fetch outcomes.
type LoggingFetcher struct {
	next   eventscrape.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next eventscrape.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the outcome. Successful
// fetches log size, content hash, and duration; a short body gets an
// advisory warning but still succeeds.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	begin := time.Now()
	html, err := f.next.Fetch(ctx, url)
	if err != nil {
		f.logger.Error("fetch",
			"url", url,
			"duration", time.Since(begin),
			"err", err.Error(),
		)
		return "", err
	}

	f.logger.Info("fetch",
		"url", url,
		"bytes", len(html),
		"content_hash", contentHash(html),
		"duration", time.Since(begin),
	)
	if len(html) < shortContentThreshold {
		f.logger.Warn("fetch returned unusually short content",
			"url", url,
			"bytes", len(html),
		)
	}
	return html, nil
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

// contentHash returns a compact fingerprint of content for log correlation.
func contentHash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}
