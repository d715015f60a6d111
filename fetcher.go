package eventscrape

import (
	"context"
	"fmt"
)

// Fetcher retrieves raw HTML from URLs.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch retrieves the page at url and returns its HTML.
	// The context controls timeout and cancellation. Retries, if any,
	// happen inside the implementation; the returned error is the
	// classified result of the final attempt.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases any resources held by the fetcher.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// FetchKind classifies why a fetch failed.
type FetchKind string

// Fetch failure kinds.
const (
	KindInvalidURL      FetchKind = "invalid_url"       // URL missing scheme or host
	KindClientError     FetchKind = "client_error"      // HTTP 4xx, never retried
	KindServerError     FetchKind = "server_error"      // HTTP 5xx after retries
	KindTransport       FetchKind = "transport"         // timeout, refused, DNS
	KindRender          FetchKind = "render"            // browser or navigation failure
	KindBlocked         FetchKind = "blocked"           // explicit block signal on the page
	KindContentTooShort FetchKind = "content_too_short" // rendered page effectively empty
)

// FetchError is a classified content-acquisition failure. All kinds map to
// EINVALID at the HTTP boundary; the kind stays available for diagnostics
// and for the retry driver's retryability decision.
type FetchError struct {
	Kind    FetchKind
	URL     string
	Status  int // HTTP status for client/server kinds, zero otherwise
	Attempt int // 1-based attempt on which the final failure occurred
	Message string
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch failed (%s, HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("fetch failed (%s): %s", e.Kind, e.Message)
}

// Code returns the application error code for this failure.
func (e *FetchError) Code() string {
	return EINVALID
}

// Retryable reports whether another attempt could plausibly succeed.
// Client errors, invalid URLs, and explicit block signals are terminal.
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case KindInvalidURL, KindClientError, KindBlocked:
		return false
	default:
		return true
	}
}
