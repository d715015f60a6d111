package http_test

import (
	"testing"
	"time"

	eshttp "github.com/fwojciec/eventscrape/http"
	"github.com/stretchr/testify/assert"
)

func TestClientLimiter_Allow(t *testing.T) {
	t.Parallel()

	t.Run("admits up to the budget then rejects", func(t *testing.T) {
		t.Parallel()

		limiter := eshttp.NewClientLimiter(eshttp.WithRate(3, time.Hour))

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("10.0.0.1"), "request %d should be admitted", i+1)
		}
		assert.False(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("budgets are per client", func(t *testing.T) {
		t.Parallel()

		limiter := eshttp.NewClientLimiter(eshttp.WithRate(1, time.Hour))

		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.False(t, limiter.Allow("10.0.0.1"))
		assert.True(t, limiter.Allow("10.0.0.2"))
	})

	t.Run("budget refills over the window", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		limiter := eshttp.NewClientLimiter(
			eshttp.WithRate(1, time.Minute),
			eshttp.WithClockForTesting(func() time.Time { return now }),
		)

		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.False(t, limiter.Allow("10.0.0.1"))

		now = now.Add(time.Minute)
		assert.True(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("non-positive budget disables limiting", func(t *testing.T) {
		t.Parallel()

		limiter := eshttp.NewClientLimiter(eshttp.WithRate(0, time.Minute))

		for i := 0; i < 50; i++ {
			assert.True(t, limiter.Allow("10.0.0.1"))
		}
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		t.Parallel()

		limiter := eshttp.NewClientLimiter(eshttp.WithRate(100, time.Hour))
		done := make(chan struct{})
		for i := 0; i < 10; i++ {
			go func() {
				defer func() { done <- struct{}{} }()
				for j := 0; j < 20; j++ {
					limiter.Allow("10.0.0.1")
				}
			}()
		}
		for i := 0; i < 10; i++ {
			<-done
		}
	})
}
