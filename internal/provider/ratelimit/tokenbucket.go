package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"wealthprice/internal/provider"
	"wealthprice/internal/symbol"
)

// ErrLimited is wrapped in the provider.Error returned when the local budget
// for an upstream is exhausted.
var ErrLimited = errors.New("local request budget exhausted")

// TokenBucket is a token bucket limiter.
//   - rate: tokens per second
//   - capacity: maximum tokens the bucket can hold (burst)
type TokenBucket struct {
	rate     float64
	capacity float64
	now      func() time.Time

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
	return newTokenBucket(tokensPerSecond, burst, time.Now)
}

func newTokenBucket(tokensPerSecond float64, burst int, now func() time.Time) *TokenBucket {
	if tokensPerSecond <= 0 {
		tokensPerSecond = 0.0000001
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		rate:     tokensPerSecond,
		capacity: float64(burst),
		now:      now,
		tokens:   float64(burst), // start full to allow an initial burst
		last:     now(),
	}
}

// take refills the bucket and consumes one token if available.
func (tb *TokenBucket) take() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	if elapsed := now.Sub(tb.last).Seconds(); elapsed > 0 {
		tb.tokens = min(tb.tokens+elapsed*tb.rate, tb.capacity)
		tb.last = now
	}
	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}

// Allow consumes a token without waiting.
func (tb *TokenBucket) Allow() bool {
	return tb.take()
}

// TokenBucketFetcher gates a Fetcher with a token bucket. An empty bucket
// fails the call immediately as rate limited, so callers fall back instead
// of queueing behind a slow upstream.
type TokenBucketFetcher struct {
	Next provider.Fetcher
	TB   *TokenBucket
}

func (t *TokenBucketFetcher) Name() string { return t.Next.Name() }

func (t *TokenBucketFetcher) FetchPrice(ctx context.Context, sym symbol.Symbol, creds provider.Credentials) (provider.Price, error) {
	if t.TB != nil && !t.TB.Allow() {
		return provider.Price{}, provider.NewError(t.Name(), provider.KindRateLimited, 0, ErrLimited)
	}
	return t.Next.FetchPrice(ctx, sym, creds)
}

// PerMinute wraps next in a bucket refilling perMinute tokens a minute.
// A non-positive perMinute returns next unchanged.
func PerMinute(next provider.Fetcher, perMinute, burst int) provider.Fetcher {
	if next == nil || perMinute <= 0 {
		return next
	}
	return &TokenBucketFetcher{Next: next, TB: NewTokenBucket(float64(perMinute)/60, burst)}
}
