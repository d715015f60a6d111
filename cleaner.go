package eventscrape

// Cleaner strips non-content markup from raw HTML, returning clean HTML
// rooted at the most specific content landmark available.
type Cleaner interface {
	// Clean parses html permissively and returns the cleaned content HTML.
	// It must not fail on malformed markup.
	Clean(html string) (string, error)
}
