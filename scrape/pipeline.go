package scrape

import (
	"context"

	"github.com/fwojciec/eventscrape"
)

// DefaultTemperature is the deterministic-leaning sampling temperature used
// for extraction calls.
const DefaultTemperature = 0.1

// Ensure Service implements eventscrape.ScrapeService at compile time.
var _ eventscrape.ScrapeService = (*Service)(nil)

// Service runs the fetch -> preprocess -> extract pipeline for one request.
// All fields must be set except Rendered, which is optional; a request asking
// for rendered fetching when none is configured fails with EINVALID.
//
// Service holds no per-request state and is safe for concurrent use as long
// as its collaborators are.
type Service struct {
	Simple    eventscrape.Fetcher
	Rendered  eventscrape.Fetcher
	Cleaner   eventscrape.Cleaner
	Converter eventscrape.Converter
	Extractor eventscrape.EventExtractor

	// MaxDigestLength bounds the digest in runes.
	// Defaults to DefaultMaxDigestLength when zero.
	MaxDigestLength int

	// Temperature for the extraction call. Nil means DefaultTemperature;
	// an explicit zero requests fully deterministic sampling.
	Temperature *float32
}

// Scrape extracts event metadata from the page at req.URL.
func (s *Service) Scrape(ctx context.Context, req eventscrape.ScrapeRequest) (*eventscrape.EventRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fetcher := s.Simple
	if req.UseRenderedFetch {
		if s.Rendered == nil {
			return nil, eventscrape.Errorf(eventscrape.EINVALID, "rendered fetching is not available")
		}
		fetcher = s.Rendered
	}

	html, err := fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	digest, err := s.Preprocess(html)
	if err != nil {
		return nil, err
	}

	return s.Extractor.ExtractEvent(ctx, eventscrape.ExtractionRequest{
		Digest:             digest,
		APIKey:             req.APIKey,
		CustomInstructions: req.CustomInstructions,
		Temperature:        s.temperature(),
	})
}

// Preprocess reduces raw HTML to the bounded digest: clean, convert to
// Markdown, collapse whitespace, truncate. Any cleaner or converter failure
// surfaces as a single EINTERNAL preprocessing error.
func (s *Service) Preprocess(html string) (string, error) {
	cleaned, err := s.Cleaner.Clean(html)
	if err != nil {
		return "", eventscrape.Errorf(eventscrape.EINTERNAL, "failed to preprocess HTML: %s", eventscrape.ErrorMessage(err))
	}

	markdown, err := s.Converter.Convert(cleaned)
	if err != nil {
		return "", eventscrape.Errorf(eventscrape.EINTERNAL, "failed to preprocess HTML: %s", eventscrape.ErrorMessage(err))
	}

	return Truncate(CollapseWhitespace(markdown), s.maxDigestLength()), nil
}

func (s *Service) maxDigestLength() int {
	if s.MaxDigestLength > 0 {
		return s.MaxDigestLength
	}
	return DefaultMaxDigestLength
}

func (s *Service) temperature() float32 {
	if s.Temperature != nil {
		return *s.Temperature
	}
	return DefaultTemperature
}
