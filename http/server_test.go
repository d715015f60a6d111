package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/eventscrape"
	eshttp "github.com/fwojciec/eventscrape/http"
	"github.com/fwojciec/eventscrape/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scrapeBody(t *testing.T) *strings.Reader {
	t.Helper()
	return strings.NewReader(`{"url": "https://example.com/events/1", "api_key": "valid-key-12345"}`)
}

func TestServer_Scrape(t *testing.T) {
	t.Parallel()

	t.Run("returns the extracted record with all five keys", func(t *testing.T) {
		t.Parallel()

		title := "Go Meetup"
		scraper := &mock.ScrapeService{
			ScrapeFn: func(ctx context.Context, req eventscrape.ScrapeRequest) (*eventscrape.EventRecord, error) {
				assert.Equal(t, "https://example.com/events/1", req.URL)
				return &eventscrape.EventRecord{Title: &title}, nil
			},
		}
		srv := eshttp.NewServer(scraper, nil, discardLogger())

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scrape", scrapeBody(t)))

		require.Equal(t, http.StatusOK, rec.Code)
		var payload map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		for _, key := range []string{"title", "description", "start_datetime", "end_datetime", "location"} {
			assert.Contains(t, payload, key)
		}
		assert.Equal(t, `"Go Meetup"`, string(payload["title"]))
		assert.Equal(t, "null", string(payload["location"]))
	})

	t.Run("malformed JSON body is a 400", func(t *testing.T) {
		t.Parallel()

		srv := eshttp.NewServer(&mock.ScrapeService{}, nil, discardLogger())

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scrape", strings.NewReader("{not json")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Invalid input", resp["error"])
		assert.Contains(t, resp["details"], "invalid JSON")
	})

	t.Run("maps application error codes onto statuses", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			code   string
			status int
		}{
			{eventscrape.EINVALID, http.StatusBadRequest},
			{eventscrape.EUNAUTHORIZED, http.StatusUnauthorized},
			{eventscrape.EUNPROCESSABLE, http.StatusUnprocessableEntity},
			{eventscrape.ERATELIMIT, http.StatusTooManyRequests},
			{eventscrape.EUNAVAILABLE, http.StatusServiceUnavailable},
			{eventscrape.EINTERNAL, http.StatusInternalServerError},
		}
		for _, tt := range tests {
			t.Run(tt.code, func(t *testing.T) {
				t.Parallel()

				scraper := &mock.ScrapeService{
					ScrapeFn: func(ctx context.Context, req eventscrape.ScrapeRequest) (*eventscrape.EventRecord, error) {
						return nil, eventscrape.Errorf(tt.code, "failure detail")
					},
				}
				srv := eshttp.NewServer(scraper, nil, discardLogger())

				rec := httptest.NewRecorder()
				srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scrape", scrapeBody(t)))

				assert.Equal(t, tt.status, rec.Code)
			})
		}
	})

	t.Run("fetch errors surface as 400 with details", func(t *testing.T) {
		t.Parallel()

		scraper := &mock.ScrapeService{
			ScrapeFn: func(ctx context.Context, req eventscrape.ScrapeRequest) (*eventscrape.EventRecord, error) {
				return nil, &eventscrape.FetchError{
					Kind:    eventscrape.KindClientError,
					URL:     req.URL,
					Status:  404,
					Attempt: 1,
					Message: "server returned 404 Not Found",
				}
			},
		}
		srv := eshttp.NewServer(scraper, nil, discardLogger())

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scrape", scrapeBody(t)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp["details"], "404")
	})

	t.Run("unknown errors are masked 500s unless debug", func(t *testing.T) {
		t.Parallel()

		scraper := &mock.ScrapeService{
			ScrapeFn: func(ctx context.Context, req eventscrape.ScrapeRequest) (*eventscrape.EventRecord, error) {
				return nil, io.ErrUnexpectedEOF
			},
		}
		srv := eshttp.NewServer(scraper, nil, discardLogger())

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scrape", scrapeBody(t)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Internal server error", resp["error"])
		assert.NotContains(t, resp["details"], "EOF")
	})

	t.Run("rate limited requests get a 429", func(t *testing.T) {
		t.Parallel()

		limiter := &mock.ClientLimiter{
			AllowFn: func(clientID string) bool { return false },
		}
		srv := eshttp.NewServer(&mock.ScrapeService{}, limiter, discardLogger())

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scrape", scrapeBody(t)))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Rate limit exceeded", resp["error"])
	})

	t.Run("rate limiting keys on the client address", func(t *testing.T) {
		t.Parallel()

		var seen string
		limiter := &mock.ClientLimiter{
			AllowFn: func(clientID string) bool {
				seen = clientID
				return false
			},
		}
		srv := eshttp.NewServer(&mock.ScrapeService{}, limiter, discardLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/scrape", scrapeBody(t))
		req.RemoteAddr = "203.0.113.9:51234"
		srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "203.0.113.9", seen)
	})

	t.Run("health and root do not consume the rate budget", func(t *testing.T) {
		t.Parallel()

		limiter := &mock.ClientLimiter{
			AllowFn: func(clientID string) bool {
				t.Fatal("limiter should not be consulted")
				return false
			},
		}
		srv := eshttp.NewServer(&mock.ScrapeService{}, limiter, discardLogger())

		for _, path := range []string{"/health", "/"} {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("sets a request ID header", func(t *testing.T) {
		t.Parallel()

		srv := eshttp.NewServer(&mock.ScrapeService{}, nil, discardLogger())

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("panics become masked 500s", func(t *testing.T) {
		t.Parallel()

		scraper := &mock.ScrapeService{
			ScrapeFn: func(ctx context.Context, req eventscrape.ScrapeRequest) (*eventscrape.EventRecord, error) {
				panic("handler bug")
			},
		}
		srv := eshttp.NewServer(scraper, nil, discardLogger())

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scrape", scrapeBody(t)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "handler bug")
	})
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	srv := eshttp.NewServer(&mock.ScrapeService{}, nil, discardLogger())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}
