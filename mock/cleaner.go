package mock

import "github.com/fwojciec/eventscrape"

var _ eventscrape.Cleaner = (*Cleaner)(nil)

// Cleaner is a mock implementation of eventscrape.Cleaner.
type Cleaner struct {
	CleanFn func(html string) (string, error)
}

func (c *Cleaner) Clean(html string) (string, error) {
	return c.CleanFn(html)
}
