package http

import (
	"sync"
	"time"

	"github.com/fwojciec/eventscrape"
	"golang.org/x/time/rate"
)

// DefaultRequestsPerWindow is the default per-client request budget.
const DefaultRequestsPerWindow = 10

// DefaultRateWindow is the window over which the budget refills.
const DefaultRateWindow = time.Minute

// evictionHorizon is how long an idle client's bucket survives before the
// next sweep reclaims it.
const evictionHorizon = 10 * time.Minute

// Ensure ClientLimiter implements eventscrape.ClientLimiter at compile time.
var _ eventscrape.ClientLimiter = (*ClientLimiter)(nil)

// ClientLimiter enforces a per-client request budget using one token bucket
// per client ID. Buckets idle past the eviction horizon are dropped so the
// map does not grow with every address ever seen. Admission is a single
// locked map access plus a bucket check; contention is negligible at the
// request rates this bounds.
type ClientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket

	limit rate.Limit
	burst int
	now   func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterOption configures a ClientLimiter.
type LimiterOption func(*ClientLimiter)

// WithRate sets the request budget per window. A non-positive budget disables
// limiting entirely rather than dividing the window by zero.
// Defaults to DefaultRequestsPerWindow per DefaultRateWindow.
func WithRate(requests int, window time.Duration) LimiterOption {
	return func(l *ClientLimiter) {
		if requests <= 0 {
			l.limit = rate.Inf
			l.burst = 0
			return
		}
		l.limit = rate.Every(window / time.Duration(requests))
		l.burst = requests
	}
}

// WithClockForTesting overrides the limiter's clock.
func WithClockForTesting(now func() time.Time) LimiterOption {
	return func(l *ClientLimiter) {
		l.now = now
	}
}

// NewClientLimiter creates a ClientLimiter.
func NewClientLimiter(opts ...LimiterOption) *ClientLimiter {
	l := &ClientLimiter{
		clients: make(map[string]*clientBucket),
		limit:   rate.Every(DefaultRateWindow / DefaultRequestsPerWindow),
		burst:   DefaultRequestsPerWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether clientID may proceed and consumes one token if so.
func (l *ClientLimiter) Allow(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, ok := l.clients[clientID]
	if !ok {
		l.evictStale(now)
		bucket = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[clientID] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter.AllowN(now, 1)
}

// evictStale drops buckets idle past the horizon. Called with the lock held,
// only when a new client arrives, so steady traffic never pays for sweeps.
func (l *ClientLimiter) evictStale(now time.Time) {
	for id, bucket := range l.clients {
		if now.Sub(bucket.lastSeen) > evictionHorizon {
			delete(l.clients, id)
		}
	}
}
