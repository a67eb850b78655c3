package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wealthprice/internal/provider/cache"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestSnapshot_CoalescesConcurrentGets(t *testing.T) {
	t.Parallel()

	// Arrange: a fetch that blocks until released
	clk := newClock()
	snap := cache.New[int](10 * time.Second)
	snap.Now = clk.Now

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return 42, nil
	}

	// Act: many callers ask for the same key at once
	const callers = 32
	var wg sync.WaitGroup
	results := make([]int, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, _, err := snap.Get(t.Context(), "acct", fetch)
			results[i], errs[i] = e.Data, err
		}()
	}
	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	// Assert: exactly one upstream call, everyone saw its outcome
	require.Equal(t, int32(1), calls.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		require.Equal(t, 42, results[i])
	}
}

func TestSnapshot_SharedFailure(t *testing.T) {
	t.Parallel()

	snap := cache.New[int](10 * time.Second)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	boom := errors.New("upstream down")
	fetch := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return 0, boom
	}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, errs[i] = snap.Get(t.Context(), "acct", fetch)
		}()
	}
	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	// Every joined caller observed the single failure.
	require.Equal(t, int32(1), calls.Load())
	for _, err := range errs {
		require.ErrorIs(t, err, boom)
	}

	// The flight is forgotten once settled, so the next caller retries.
	_, _, err := snap.Get(t.Context(), "acct", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	_, ok := snap.Peek("acct")
	require.True(t, ok)
}

func TestSnapshot_TTL(t *testing.T) {
	t.Parallel()

	clk := newClock()
	snap := cache.New[string](10 * time.Second)
	snap.Now = clk.Now

	var calls int
	fetch := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}

	_, lookup, err := snap.Get(t.Context(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, cache.Miss, lookup)
	require.Equal(t, 1, calls)

	// Just under the TTL the entry is still fresh.
	clk.Advance(9*time.Second + 999*time.Millisecond)
	_, lookup, err = snap.Get(t.Context(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, cache.Hit, lookup)
	require.Equal(t, 1, calls)

	// At exactly the TTL it is stale and gets refetched.
	clk.Advance(time.Millisecond)
	e, lookup, err := snap.Get(t.Context(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, cache.Miss, lookup)
	require.Equal(t, 2, calls)
	require.Equal(t, clk.Now(), e.FetchedAt)
}

func TestSnapshot_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	snap := cache.New[string](time.Minute)

	a, _, err := snap.Get(t.Context(), "a", func(context.Context) (string, error) { return "alpha", nil })
	require.NoError(t, err)
	b, _, err := snap.Get(t.Context(), "b", func(context.Context) (string, error) { return "beta", nil })
	require.NoError(t, err)

	require.Equal(t, "alpha", a.Data)
	require.Equal(t, "beta", b.Data)
}

func TestSnapshot_CallerCancelDoesNotAbortFetch(t *testing.T) {
	t.Parallel()

	snap := cache.New[int](time.Minute)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (int, error) {
		calls.Add(1)
		close(started)
		<-release
		return 5, ctx.Err()
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		_, _, err := snap.Get(ctx, "k", fetch)
		done <- err
	}()

	<-started
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(release)

	// The detached fetch still completes and populates the entry.
	e, _, err := snap.Get(t.Context(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, 5, e.Data)
	require.Equal(t, int32(1), calls.Load())
}

func TestSnapshot_PanicBecomesError(t *testing.T) {
	t.Parallel()

	snap := cache.New[int](time.Minute)

	_, _, err := snap.Get(t.Context(), "k", func(context.Context) (int, error) {
		panic("bad payload")
	})
	require.ErrorContains(t, err, "bad payload")

	_, ok := snap.Peek("k")
	require.False(t, ok)
}

func TestKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, cache.Key("token"), cache.Key("token"))
	require.NotEqual(t, cache.Key("token-a"), cache.Key("token-b"))
	require.NotEqual(t, cache.Key("ab", "c"), cache.Key("a", "bc"))
	require.NotContains(t, cache.Key("secret"), "secret")
	require.Len(t, cache.Key(""), 64)
}
