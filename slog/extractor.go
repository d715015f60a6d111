package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/eventscrape"
)

// Ensure LoggingEventExtractor implements eventscrape.EventExtractor.
var _ eventscrape.EventExtractor = (*LoggingEventExtractor)(nil)

// LoggingEventExtractor wraps an EventExtractor with structured logging.
// The digest appears only as a length and a hash, and the API key and prompt
// never appear at all.
type LoggingEventExtractor struct {
	next   eventscrape.EventExtractor
	logger *slog.Logger
}

// NewLoggingEventExtractor creates a new LoggingEventExtractor.
func NewLoggingEventExtractor(next eventscrape.EventExtractor, logger *slog.Logger) *LoggingEventExtractor {
	return &LoggingEventExtractor{next: next, logger: logger}
}

// ExtractEvent delegates to the wrapped extractor and logs the outcome.
func (e *LoggingEventExtractor) ExtractEvent(ctx context.Context, req eventscrape.ExtractionRequest) (*eventscrape.EventRecord, error) {
	begin := time.Now()
	record, err := e.next.ExtractEvent(ctx, req)
	if err != nil {
		e.logger.Error("extract event",
			"digest_bytes", len(req.Digest),
			"digest_hash", contentHash(req.Digest),
			"duration", time.Since(begin),
			"code", eventscrape.ErrorCode(err),
			"err", eventscrape.ErrorMessage(err),
		)
		return nil, err
	}

	e.logger.Info("extract event",
		"digest_bytes", len(req.Digest),
		"digest_hash", contentHash(req.Digest),
		"duration", time.Since(begin),
		"has_title", record.Title != nil,
		"has_start", record.StartDatetime != nil,
	)
	return record, nil
}
