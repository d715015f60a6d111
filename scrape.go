package eventscrape

import (
	"context"
	"net/url"
	"strings"
)

// MaxCustomInstructionsLen bounds the caller-supplied extraction instructions.
const MaxCustomInstructionsLen = 1000

// MinAPIKeyLen is the minimum accepted API key length.
const MinAPIKeyLen = 10

// ScrapeRequest is the inbound contract of the scrape operation.
type ScrapeRequest struct {
	URL                string `json:"url"`
	APIKey             string `json:"api_key"`
	UseRenderedFetch   bool   `json:"use_rendered_fetch"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
}

// Validate returns an EINVALID error if the request is malformed. Requests
// targeting facebook.com are rejected outright as a policy exclusion.
func (r *ScrapeRequest) Validate() error {
	u, err := url.Parse(r.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Errorf(EINVALID, "url must be an absolute URL with scheme and host")
	}
	if isExcludedHost(u.Hostname()) {
		return Errorf(EINVALID, "facebook.com URLs are not supported")
	}
	if len(r.APIKey) < MinAPIKeyLen {
		return Errorf(EINVALID, "api_key is required and must be at least %d characters", MinAPIKeyLen)
	}
	if len(r.CustomInstructions) > MaxCustomInstructionsLen {
		return Errorf(EINVALID, "custom_instructions too long (max %d characters)", MaxCustomInstructionsLen)
	}
	return nil
}

// isExcludedHost reports whether host is facebook.com or one of its subdomains.
func isExcludedHost(host string) bool {
	host = strings.ToLower(host)
	return host == "facebook.com" || strings.HasSuffix(host, ".facebook.com")
}

// ScrapeService runs the full fetch -> preprocess -> extract pipeline for a
// single request. Calls are independent and stateless.
type ScrapeService interface {
	Scrape(ctx context.Context, req ScrapeRequest) (*EventRecord, error)
}
