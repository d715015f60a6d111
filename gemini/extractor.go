// Package gemini implements event extraction via the Google Gemini API:
// prompt assembly, model invocation, response repair, and normalization.
package gemini

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/eventscrape"
	"github.com/fwojciec/eventscrape/scrape"
)

// DefaultMaxAttempts is the total attempt budget for one extraction.
const DefaultMaxAttempts = 3

// DefaultRetryDelay is the base delay for exponential backoff between
// extraction attempts.
const DefaultRetryDelay = time.Second

// Ensure EventExtractor implements eventscrape.EventExtractor at compile time.
var _ eventscrape.EventExtractor = (*EventExtractor)(nil)

// EventExtractor implements eventscrape.EventExtractor using Gemini. Every
// failure inside an attempt is retried, including unparseable responses; a
// malformed response on one attempt says nothing about the next, since the
// model is nondeterministic.
type EventExtractor struct {
	factory     GeneratorFactory
	maxAttempts int
	retryDelay  time.Duration
}

// ExtractorOption configures an EventExtractor.
type ExtractorOption func(*EventExtractor)

// WithMaxAttempts sets the total attempt budget.
// Defaults to DefaultMaxAttempts (3).
func WithMaxAttempts(n int) ExtractorOption {
	return func(e *EventExtractor) {
		e.maxAttempts = n
	}
}

// WithRetryDelay sets the base delay for exponential backoff.
// Defaults to DefaultRetryDelay (1s).
func WithRetryDelay(d time.Duration) ExtractorOption {
	return func(e *EventExtractor) {
		e.retryDelay = d
	}
}

// WithGeneratorFactory overrides how Generators are built from API keys.
// Defaults to NewClientGenerator.
func WithGeneratorFactory(factory GeneratorFactory) ExtractorOption {
	return func(e *EventExtractor) {
		e.factory = factory
	}
}

// NewEventExtractor creates a Gemini-backed EventExtractor.
func NewEventExtractor(opts ...ExtractorOption) *EventExtractor {
	e := &EventExtractor{
		factory:     NewClientGenerator,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractEvent runs prompt → model → repair → normalize under a bounded
// retry. Client construction happens once, before the loop: a bad key fails
// the same way every time, so retrying it only burns the budget.
func (e *EventExtractor) ExtractEvent(ctx context.Context, req eventscrape.ExtractionRequest) (*eventscrape.EventRecord, error) {
	gen, err := e.factory(ctx, req.APIKey)
	if err != nil {
		// The factory error may echo the key back; report only the fact.
		return nil, eventscrape.Errorf(eventscrape.EUNAUTHORIZED, "failed to initialize LLM client with the provided API key")
	}

	prompt := BuildPrompt(req.Digest, req.CustomInstructions)

	var record *eventscrape.EventRecord
	retryAll := func(error) bool { return true }
	err = scrape.Do(ctx, e.maxAttempts, scrape.ExponentialBackoff(e.retryDelay), retryAll,
		func(ctx context.Context, attempt int) error {
			text, genErr := gen.Generate(ctx, prompt, req.Temperature)
			if genErr != nil {
				return classifyGenerateError(genErr)
			}

			rec, parseErr := ParseEventJSON(text)
			if parseErr != nil {
				return parseErr
			}
			if normErr := rec.Normalize(); normErr != nil {
				return eventscrape.Errorf(eventscrape.EUNPROCESSABLE,
					"model returned an invalid field value: %v", normErr)
			}

			record = rec
			return nil
		})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// classifyGenerateError maps a model-call failure onto the application error
// space. Safety-filter refusals are a property of the content, not the
// service.
func classifyGenerateError(err error) error {
	if eventscrape.ErrorCode(err) == eventscrape.EUNPROCESSABLE {
		return err
	}
	if strings.Contains(strings.ToLower(err.Error()), "blocked") {
		return eventscrape.Errorf(eventscrape.EUNPROCESSABLE, "content was blocked by the model's safety filters")
	}
	return eventscrape.Errorf(eventscrape.EUNAVAILABLE, "LLM service error: %v", err)
}
