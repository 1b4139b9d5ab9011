// Package ratelimit throttles inbound chat messages per identity.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter reports whether one more event for key is allowed right now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Buckets keeps one token bucket per key: burst capacity, one token back
// every interval/capacity. Buckets that have refilled completely are dropped.
type Buckets struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
	now      func() time.Time
}

func NewBuckets(capacity int, interval time.Duration) *Buckets {
	if capacity <= 0 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Buckets{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Every(interval / time.Duration(capacity)),
		burst:    capacity,
		now:      time.Now,
	}
}

func (b *Buckets) Allow(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	lim, ok := b.limiters[key]
	if !ok {
		lim = rate.NewLimiter(b.every, b.burst)
		b.limiters[key] = lim
	}
	allowed := lim.AllowN(now, 1)
	b.sweep(now)
	return allowed, nil
}

// sweep forgets limiters that are full again; they behave like a fresh one.
// Caller holds b.mu.
func (b *Buckets) sweep(now time.Time) {
	if len(b.limiters) < 1024 {
		return
	}
	for k, lim := range b.limiters {
		if lim.TokensAt(now) >= float64(b.burst) {
			delete(b.limiters, k)
		}
	}
}
