package mock

import (
	"context"

	"github.com/fwojciec/eventscrape"
)

var _ eventscrape.ScrapeService = (*ScrapeService)(nil)

// ScrapeService is a mock implementation of eventscrape.ScrapeService.
type ScrapeService struct {
	ScrapeFn func(ctx context.Context, req eventscrape.ScrapeRequest) (*eventscrape.EventRecord, error)
}

func (s *ScrapeService) Scrape(ctx context.Context, req eventscrape.ScrapeRequest) (*eventscrape.EventRecord, error) {
	return s.ScrapeFn(ctx, req)
}
