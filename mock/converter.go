package mock

import "github.com/fwojciec/eventscrape"

var _ eventscrape.Converter = (*Converter)(nil)

// Converter is a mock implementation of eventscrape.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
