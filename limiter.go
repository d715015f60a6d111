package eventscrape

// ClientLimiter bounds request rates per client identity. Implementations are
// best-effort and approximate: small under- or over-counting under concurrency
// is acceptable.
type ClientLimiter interface {
	// Allow reports whether the client identified by clientID may proceed.
	Allow(clientID string) bool
}
