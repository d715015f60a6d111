// Package trafilatura provides a heuristic implementation of
// eventscrape.Cleaner based on main-content extraction.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/eventscrape"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Cleaner implements eventscrape.Cleaner at compile time.
var _ eventscrape.Cleaner = (*Cleaner)(nil)

// Cleaner wraps go-trafilatura to isolate a page's main content. Unlike the
// rule-based goquery cleaner it makes no guarantees about which elements
// survive; it trades determinism for better boilerplate removal on noisy
// pages.
type Cleaner struct{}

// NewCleaner creates a new heuristic Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean extracts the main content of rawHTML and returns it as HTML.
func (c *Cleaner) Clean(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", eventscrape.Errorf(eventscrape.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return "", eventscrape.Errorf(eventscrape.EINVALID, "failed to extract content: %v", err)
	}

	if result.ContentNode == nil {
		return "", nil
	}
	return renderNode(result.ContentNode)
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", eventscrape.Errorf(eventscrape.EINTERNAL, "failed to render content: %v", err)
	}
	return buf.String(), nil
}
