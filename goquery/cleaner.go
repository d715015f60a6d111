// Package goquery provides the rule-based implementation of
// eventscrape.Cleaner using CSS selectors.
package goquery

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/eventscrape"
	"golang.org/x/net/html"
)

// noiseTags are removed wholesale; they never carry event content.
const noiseTags = "script, style, nav, footer, form, iframe, noscript"

// chromeSelectors remove page chrome by structural role.
const chromeSelectors = `[role="banner"], [role="navigation"], [role="complementary"], [role="contentinfo"], [aria-label="Advertisement"]`

// DefaultAllowedAttributes is the attribute allow-list applied to every
// remaining element.
var DefaultAllowedAttributes = []string{"href", "src", "alt", "title", "datetime"}

// Ensure Cleaner implements eventscrape.Cleaner at compile time.
var _ eventscrape.Cleaner = (*Cleaner)(nil)

// Cleaner strips non-content markup using a fixed, deterministic rule set:
// noise tags, ARIA chrome roles, comments, and all attributes outside an
// allow-list. The returned HTML is rooted at the most specific content
// landmark available (main, [role=main], body, whole document).
type Cleaner struct {
	allowedAttrs map[string]struct{}
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithAllowedAttributes replaces the default attribute allow-list.
func WithAllowedAttributes(attrs ...string) Option {
	return func(c *Cleaner) {
		c.allowedAttrs = make(map[string]struct{}, len(attrs))
		for _, a := range attrs {
			c.allowedAttrs[strings.ToLower(a)] = struct{}{}
		}
	}
}

// NewCleaner creates a new rule-based Cleaner.
func NewCleaner(opts ...Option) *Cleaner {
	c := &Cleaner{}
	WithAllowedAttributes(DefaultAllowedAttributes...)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean parses html permissively and returns the cleaned content HTML.
func (c *Cleaner) Clean(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", eventscrape.Errorf(eventscrape.EINVALID, "failed to parse HTML: %v", err)
	}

	doc.Find(noiseTags).Remove()
	doc.Find(chromeSelectors).Remove()

	for _, root := range doc.Nodes {
		removeComments(root)
	}

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		for _, node := range sel.Nodes {
			c.filterAttributes(node)
		}
	})

	return renderRoot(doc)
}

// filterAttributes drops every attribute outside the allow-list.
func (c *Cleaner) filterAttributes(node *html.Node) {
	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		if _, ok := c.allowedAttrs[strings.ToLower(attr.Key)]; ok {
			kept = append(kept, attr)
		}
	}
	node.Attr = kept
}

// removeComments strips comment nodes from the subtree rooted at n.
func removeComments(n *html.Node) {
	child := n.FirstChild
	for child != nil {
		next := child.NextSibling
		if child.Type == html.CommentNode {
			n.RemoveChild(child)
		} else {
			removeComments(child)
		}
		child = next
	}
}

// renderRoot serializes the most specific content root available.
func renderRoot(doc *goquery.Document) (string, error) {
	for _, selector := range []string{"main", `[role="main"]`, "body"} {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			out, err := goquery.OuterHtml(sel)
			if err != nil {
				return "", eventscrape.Errorf(eventscrape.EINTERNAL, "failed to render cleaned HTML: %v", err)
			}
			return out, nil
		}
	}

	var buf bytes.Buffer
	for _, node := range doc.Nodes {
		if err := html.Render(&buf, node); err != nil {
			return "", eventscrape.Errorf(eventscrape.EINTERNAL, "failed to render cleaned HTML: %v", err)
		}
	}
	return buf.String(), nil
}
