// Package ratelimit keeps outbound calls to metered upstreams within budget.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"wealthprice/internal/provider"
	"wealthprice/internal/symbol"
)

// MinInterval wraps a Fetcher and enforces a minimum time between calls.
// Callers wait until the interval has elapsed since the last call, or return
// early if the context is canceled.
type MinInterval struct {
	Next     provider.Fetcher
	Interval time.Duration

	mu   sync.Mutex
	next time.Time
}

func (m *MinInterval) Name() string { return m.Next.Name() }

// reserve claims the next free slot and returns how long to wait for it.
func (m *MinInterval) reserve() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	slot := now
	if m.next.After(now) {
		slot = m.next
	}
	m.next = slot.Add(m.Interval)
	return slot.Sub(now)
}

func (m *MinInterval) FetchPrice(ctx context.Context, sym symbol.Symbol, creds provider.Credentials) (provider.Price, error) {
	if m.Interval > 0 {
		if wait := m.reserve(); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return provider.Price{}, provider.NewError(m.Name(), provider.KindNetwork, 0, ctx.Err())
			case <-t.C:
			}
		}
	}
	return m.Next.FetchPrice(ctx, sym, creds)
}
