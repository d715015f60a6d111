package mock

import "github.com/fwojciec/eventscrape"

var _ eventscrape.ClientLimiter = (*ClientLimiter)(nil)

// ClientLimiter is a mock implementation of eventscrape.ClientLimiter.
type ClientLimiter struct {
	AllowFn func(clientID string) bool
}

func (l *ClientLimiter) Allow(clientID string) bool {
	return l.AllowFn(clientID)
}
