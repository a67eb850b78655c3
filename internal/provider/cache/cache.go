// Package cache holds time-bounded snapshots keyed by string, with at most
// one upstream fetch in flight per key.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry is one stored snapshot.
type Entry[T any] struct {
	Data      T
	FetchedAt time.Time
}

// Fresh reports whether e is younger than ttl at now.
func (e Entry[T]) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// Lookup describes how a Get was satisfied.
type Lookup string

const (
	// Hit means a fresh entry was served without a fetch.
	Hit Lookup = "hit"
	// Miss means this caller's fetch produced the entry.
	Miss Lookup = "miss"
	// Shared means the caller joined a fetch started by someone else.
	Shared Lookup = "shared"
	// Stale means an expired entry was served after a failed fetch.
	Stale Lookup = "stale"
)

// Snapshot caches one Entry per key for TTL.
//
// Concurrent Gets for the same key share a single fetch. The new entry is
// stored before any waiter is released, so a caller arriving just after the
// fetch settles reads it instead of starting another one.
type Snapshot[T any] struct {
	TTL time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time

	mu    sync.RWMutex
	items map[string]Entry[T]
	sf    singleflight.Group
}

// New returns a Snapshot with the given TTL.
func New[T any](ttl time.Duration) *Snapshot[T] {
	return &Snapshot[T]{TTL: ttl}
}

func (s *Snapshot[T]) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Peek returns the stored entry for key regardless of age.
func (s *Snapshot[T]) Peek(key string) (Entry[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[key]
	return e, ok
}

func (s *Snapshot[T]) fresh(key string) (Entry[T], bool) {
	e, ok := s.Peek(key)
	if !ok || !e.Fresh(s.now(), s.TTL) {
		return Entry[T]{}, false
	}
	return e, true
}

func (s *Snapshot[T]) store(key string, e Entry[T]) {
	s.mu.Lock()
	if s.items == nil {
		s.items = make(map[string]Entry[T])
	}
	s.items[key] = e
	s.mu.Unlock()
}

// Get returns a fresh entry for key, fetching it when needed.
//
// The fetch runs detached from ctx cancellation so that one impatient caller
// cannot fail the fetch for everyone else waiting on it. ctx only bounds how
// long this caller waits. On error nothing is stored; callers that want to
// serve stale data use Peek.
func (s *Snapshot[T]) Get(ctx context.Context, key string, fetch func(context.Context) (T, error)) (Entry[T], Lookup, error) {
	if e, ok := s.fresh(key); ok {
		return e, Hit, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(key, func() (any, error) {
		// A flight that settled between the check above and now has
		// already stored a fresh entry.
		if e, ok := s.fresh(key); ok {
			return e, nil
		}
		data, err := safeFetch(detached, fetch)
		if err != nil {
			return nil, err
		}
		e := Entry[T]{Data: data, FetchedAt: s.now()}
		s.store(key, e)
		return e, nil
	})

	select {
	case <-ctx.Done():
		return Entry[T]{}, Miss, ctx.Err()
	case res := <-ch:
		lookup := Miss
		if res.Shared {
			lookup = Shared
		}
		if res.Err != nil {
			return Entry[T]{}, lookup, res.Err
		}
		return res.Val.(Entry[T]), lookup, nil
	}
}

// safeFetch turns a panic in fetch into an error. singleflight re-panics on
// a separate goroutine for DoChan callers, which no caller could recover.
func safeFetch[T any](ctx context.Context, fetch func(context.Context) (T, error)) (data T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return fetch(ctx)
}

// Key derives a cache key from secret material so raw credentials never sit
// in map keys or logs.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
