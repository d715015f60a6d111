package eventscrape

import "context"

// ExtractionRequest carries the bounded digest and per-call model settings
// into an EventExtractor. The API key is a capability token; implementations
// must never log it or embed it in error messages.
type ExtractionRequest struct {
	Digest             string
	APIKey             string
	CustomInstructions string
	Temperature        float32
}

// EventExtractor turns a text digest into a validated EventRecord via an LLM
// call.
type EventExtractor interface {
	// ExtractEvent builds the prompt, invokes the model, repairs the
	// response into the five-field record, and normalizes it. Errors carry
	// EUNAUTHORIZED (key), EUNPROCESSABLE (filtered or unparseable), or
	// EUNAVAILABLE (model failure after retries).
	ExtractEvent(ctx context.Context, req ExtractionRequest) (*EventRecord, error)
}
