// Package cache holds the pipeline's tiered TTL stores and the last-known-good
// article snapshot.
package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"news-impact-engine/internal/logger"
)

// ErrComputePanic is returned by GetOrCompute when compute panicked.
var ErrComputePanic = errors.New("cache computation panicked")

// Entry is one cached value with its insertion time and lifetime.
type Entry[T any] struct {
	Key        string
	Value      T
	InsertedAt time.Time
	TTL        time.Duration
}

// Expired reports whether the entry has outlived its TTL at now.
func (e Entry[T]) Expired(now time.Time) bool {
	return now.Sub(e.InsertedAt) >= e.TTL
}

type options struct {
	keepStale bool
	clock     func() time.Time
}

// Option configures a Store.
type Option func(*options)

// KeepStale retains expired entries so they can serve as a fallback.
func KeepStale() Option {
	return func(o *options) { o.keepStale = true }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// Store is a keyed TTL cache where each key is computed at most once at a
// time: concurrent callers for a missing key share one computation.
type Store[T any] struct {
	name string
	ttl  time.Duration
	opts options

	mu      sync.RWMutex
	entries map[string]Entry[T]
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a store whose entries live for ttl.
func New[T any](name string, ttl time.Duration, opts ...Option) *Store[T] {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		name:    name,
		ttl:     ttl,
		opts:    o,
		entries: make(map[string]Entry[T]),
	}
}

// Get returns a fresh value.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || e.Expired(s.opts.clock()) {
		s.misses.Add(1)
		var zero T
		return zero, false
	}
	s.hits.Add(1)
	return e.Value, true
}

// Stale returns the entry regardless of age.
func (s *Store[T]) Stale(key string) (Entry[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

// Set overwrites key with a fresh entry.
func (s *Store[T]) Set(key string, value T) {
	s.mu.Lock()
	s.entries[key] = Entry[T]{
		Key:        key,
		Value:      value,
		InsertedAt: s.opts.clock(),
		TTL:        s.ttl,
	}
	s.mu.Unlock()
}

// GetOrCompute returns the fresh value for key, or runs compute once for all
// concurrent callers and stores its result. Errors are not cached, and a
// panicking compute is reported as ErrComputePanic.
func (s *Store[T]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (T, error)) (T, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}

	ch := s.group.DoChan(key, func() (res any, err error) {
		// A panic here would be rethrown on a goroutine nobody can recover.
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %s: %v", ErrComputePanic, s.name, r)
			}
		}()

		// Another caller may have filled the key while we queued.
		if v, ok := s.Get(key); ok {
			return v, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return v, err
		}
		s.Set(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		v, _ := res.Val.(T)
		return v, res.Err
	}
}

// Sweep drops expired entries unless the store keeps stale ones.
func (s *Store[T]) Sweep() int {
	if s.opts.keepStale {
		return 0
	}
	now := s.opts.clock()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len is the number of entries, fresh or stale.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats is a point-in-time view of one tier, reported on /health.
type Stats struct {
	Tier    string `json:"tier"`
	TTL     string `json:"ttl"`
	Entries int    `json:"entries"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
}

// Stats reports the tier's size and its hit and miss counts since creation.
func (s *Store[T]) Stats() Stats {
	return Stats{
		Tier:    s.name,
		TTL:     s.ttl.String(),
		Entries: s.Len(),
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
	}
}

// RunJanitor sweeps on every tick until ctx is done.
func (s *Store[T]) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Debug(ctx, "Swept expired cache entries", "tier", s.name, "removed", n)
			}
		}
	}
}

// Key hashes its parts into a compact cache key prefixed by stage.
func Key(stage string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return fmt.Sprintf("%s:%x", stage, sum[:8])
}
