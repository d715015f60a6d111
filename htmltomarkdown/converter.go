// Package htmltomarkdown provides the eventscrape.Converter implementation
// that turns cleaned HTML into Markdown.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/eventscrape"
)

// Strategy names a conversion behavior.
type Strategy string

// Supported strategies.
const (
	// StrategyCommonmark keeps links and images, ATX headings.
	StrategyCommonmark Strategy = "commonmark"

	// StrategyPlain renders links as bare text and drops images.
	StrategyPlain Strategy = "plain"
)

// Ensure Converter implements eventscrape.Converter at compile time.
var _ eventscrape.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown to convert HTML to Markdown.
type Converter struct {
	conv     *converter.Converter
	strategy Strategy
}

// NewConverter creates a Converter for the given strategy. An unsupported
// strategy name is an error, never a silent fallback.
func NewConverter(strategy Strategy) (*Converter, error) {
	switch strategy {
	case StrategyCommonmark, StrategyPlain:
	default:
		return nil, eventscrape.Errorf(eventscrape.EINVALID, "unsupported conversion strategy: %q", strategy)
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
			),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv, strategy: strategy}, nil
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", eventscrape.Errorf(eventscrape.EINVALID, "empty HTML input")
	}

	if c.strategy == StrategyPlain {
		var err error
		if html, err = flattenLinksAndImages(html); err != nil {
			return "", err
		}
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", eventscrape.Errorf(eventscrape.EINVALID, "failed to convert HTML: %v", err)
	}

	return result, nil
}

// flattenLinksAndImages replaces anchors with their text and removes images,
// so the plain strategy produces prose without Markdown link syntax.
func flattenLinksAndImages(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", eventscrape.Errorf(eventscrape.EINVALID, "failed to parse HTML: %v", err)
	}

	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		sel.ReplaceWithHtml(sel.Text())
	})
	doc.Find("img").Remove()

	out, err := doc.Html()
	if err != nil {
		return "", eventscrape.Errorf(eventscrape.EINTERNAL, "failed to render HTML: %v", err)
	}
	return out, nil
}
