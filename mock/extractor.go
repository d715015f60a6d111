package mock

import (
	"context"

	"github.com/fwojciec/eventscrape"
)

var _ eventscrape.EventExtractor = (*EventExtractor)(nil)

// EventExtractor is a mock implementation of eventscrape.EventExtractor.
type EventExtractor struct {
	ExtractEventFn func(ctx context.Context, req eventscrape.ExtractionRequest) (*eventscrape.EventRecord, error)
}

func (e *EventExtractor) ExtractEvent(ctx context.Context, req eventscrape.ExtractionRequest) (*eventscrape.EventRecord, error) {
	return e.ExtractEventFn(ctx, req)
}
