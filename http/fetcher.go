// Package http provides the HTTP-based implementation of eventscrape.Fetcher
// for static pages, and the API server exposing the scrape pipeline.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fwojciec/eventscrape"
	"github.com/fwojciec/eventscrape/scrape"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 30 * time.Second

// DefaultMaxRetries is the default number of retries after the initial attempt.
const DefaultMaxRetries = 2

// DefaultRetryDelay is the base delay for exponential backoff between attempts.
const DefaultRetryDelay = 500 * time.Millisecond

// DefaultUserAgent mirrors a current desktop Chrome so fetches look like a
// regular browser visit.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// Ensure Fetcher implements eventscrape.Fetcher at compile time.
var _ eventscrape.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML content from URLs using plain HTTP requests.
// Unlike rod.Fetcher, this does not execute JavaScript and is suitable
// for static pages only.
//
// Server errors (5xx) and transport failures share a bounded retry budget
// with exponential backoff; client errors (4xx) fail immediately. TLS
// verification stays enabled; there is no knob to disable it.
type Fetcher struct {
	client     *http.Client
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	userAgent  string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxRetries sets how many times a retryable failure is reattempted
// after the initial try. Defaults to DefaultMaxRetries (2).
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithRetryDelay sets the base delay for exponential backoff.
// Defaults to DefaultRetryDelay (500ms).
func WithRetryDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.retryDelay = d
	}
}

// WithUserAgent overrides the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:    DefaultFetchTimeout,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the HTML content from the given URL, retrying server and
// transport failures up to the configured budget. The returned error is a
// classified *eventscrape.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if u, err := url.Parse(rawURL); err != nil || u.Scheme == "" || u.Host == "" {
		return "", &eventscrape.FetchError{
			Kind:    eventscrape.KindInvalidURL,
			URL:     rawURL,
			Attempt: 1,
			Message: "URL must have a scheme and a host",
		}
	}

	var html string
	err := scrape.Do(ctx, f.maxRetries+1, scrape.ExponentialBackoff(f.retryDelay), scrape.Retryable,
		func(ctx context.Context, attempt int) error {
			var attemptErr error
			html, attemptErr = f.fetchOnce(ctx, rawURL, attempt)
			return attemptErr
		})
	if err != nil {
		return "", err
	}
	return html, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string, attempt int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &eventscrape.FetchError{
			Kind:    eventscrape.KindInvalidURL,
			URL:     rawURL,
			Attempt: attempt,
			Message: err.Error(),
		}
	}
	f.setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &eventscrape.FetchError{
			Kind:    eventscrape.KindTransport,
			URL:     rawURL,
			Attempt: attempt,
			Message: err.Error(),
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return "", &eventscrape.FetchError{
			Kind:    eventscrape.KindServerError,
			URL:     rawURL,
			Status:  resp.StatusCode,
			Attempt: attempt,
			Message: fmt.Sprintf("server returned %s", resp.Status),
		}
	case resp.StatusCode >= 400:
		return "", &eventscrape.FetchError{
			Kind:    eventscrape.KindClientError,
			URL:     rawURL,
			Status:  resp.StatusCode,
			Attempt: attempt,
			Message: fmt.Sprintf("server returned %s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &eventscrape.FetchError{
			Kind:    eventscrape.KindTransport,
			URL:     rawURL,
			Attempt: attempt,
			Message: fmt.Sprintf("reading response body: %v", err),
		}
	}

	// A surprising content type or a short body is advisory only; "fetch
	// succeeded" is purely an HTTP judgment. The logging decorator surfaces
	// both.
	return string(body), nil
}

func (f *Fetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("DNT", "1")
}

// Close releases resources. For the HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}
