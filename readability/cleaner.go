// Package readability provides a Mozilla-Readability-based implementation of
// eventscrape.Cleaner.
package readability

import (
	"strings"

	"github.com/fwojciec/eventscrape"
	"github.com/go-shiori/go-readability"
)

// Ensure Cleaner implements eventscrape.Cleaner at compile time.
var _ eventscrape.Cleaner = (*Cleaner)(nil)

// Cleaner wraps go-readability to isolate a page's main content. It sits
// between the deterministic goquery rule set and the trafilatura heuristics:
// article-shaped pages come out very clean, but pages without an
// article-like structure may lose event details kept by the rule-based
// cleaner.
type Cleaner struct{}

// NewCleaner creates a new readability Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean extracts the main content of rawHTML and returns it as HTML.
func (c *Cleaner) Clean(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", eventscrape.Errorf(eventscrape.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return "", eventscrape.Errorf(eventscrape.EINVALID, "failed to extract content: %v", err)
	}

	return article.Content, nil
}
