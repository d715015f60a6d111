package eventscrape_test

import (
	"testing"

	"github.com/fwojciec/eventscrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScrapeRequest() eventscrape.ScrapeRequest {
	return eventscrape.ScrapeRequest{
		URL:    "https://example.com/event-page",
		APIKey: "test-api-key-12345",
	}
}

func TestScrapeRequest_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid request passes", func(t *testing.T) {
		t.Parallel()

		req := validScrapeRequest()
		require.NoError(t, req.Validate())
	})

	t.Run("relative URL rejected", func(t *testing.T) {
		t.Parallel()

		req := validScrapeRequest()
		req.URL = "/event-page"

		err := req.Validate()
		require.Error(t, err)
		assert.Equal(t, eventscrape.EINVALID, eventscrape.ErrorCode(err))
	})

	t.Run("missing scheme rejected", func(t *testing.T) {
		t.Parallel()

		req := validScrapeRequest()
		req.URL = "example.com/event"

		require.Error(t, req.Validate())
	})

	t.Run("short API key rejected", func(t *testing.T) {
		t.Parallel()

		req := validScrapeRequest()
		req.APIKey = "short"

		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, eventscrape.ErrorMessage(err), "api_key")
	})

	t.Run("overlong custom instructions rejected", func(t *testing.T) {
		t.Parallel()

		req := validScrapeRequest()
		req.CustomInstructions = string(make([]byte, eventscrape.MaxCustomInstructionsLen+1))

		err := req.Validate()
		require.Error(t, err)
		assert.Equal(t, eventscrape.EINVALID, eventscrape.ErrorCode(err))
	})

	t.Run("facebook URLs rejected", func(t *testing.T) {
		t.Parallel()

		for _, u := range []string{
			"https://facebook.com/events/123",
			"https://www.facebook.com/events/123",
			"https://m.facebook.com/events/123",
		} {
			req := validScrapeRequest()
			req.URL = u

			err := req.Validate()
			require.Error(t, err, u)
			assert.Contains(t, eventscrape.ErrorMessage(err), "facebook.com")
		}
	})

	t.Run("facebook-like host not excluded", func(t *testing.T) {
		t.Parallel()

		req := validScrapeRequest()
		req.URL = "https://notfacebook.com/events/123"

		require.NoError(t, req.Validate())
	})
}
