// Package services – operation rate limiter
//
// This file implements a fixed-window counter keyed by (actor, operation
// class). Destructive operations get a much lower ceiling than general
// ones. The window is anchored at the first call and reset entirely when
// it elapses; adjacent windows can therefore admit up to twice the
// ceiling back to back. That is a deliberate simplicity/throughput
// tradeoff, not a bug; a sliding log would close the gap at the cost of
// per-call storage.
//
// The counter state lives behind the WindowStore interface so tests run on
// the in-memory store while horizontally scaled deployments share a Redis
// counter. A process-local map silently under-enforces limits the moment a
// second instance starts, which is why the store is injected rather than
// hard-coded.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// OperationClass buckets operations for rate limiting purposes.
type OperationClass string

const (
	// OpClassDestructive covers deletions and purges.
	OpClassDestructive OperationClass = "destructive"
	// OpClassGeneral covers everything else the limiter is asked about.
	OpClassGeneral OperationClass = "general"
)

// WindowLimit is the ceiling for one operation class within one window.
type WindowLimit struct {
	Ceiling int
	Window  time.Duration
}

// DefaultWindowLimits returns the stock limits: 5 destructive and 60
// general operations per rolling 60 seconds.
func DefaultWindowLimits() map[OperationClass]WindowLimit {
	return map[OperationClass]WindowLimit{
		OpClassDestructive: {Ceiling: 5, Window: time.Minute},
		OpClassGeneral:     {Ceiling: 60, Window: time.Minute},
	}
}

// Decision is the limiter's verdict. The limiter never returns an error to
// its caller: a broken store fails open (logged), because refusing every
// user action over a limiter outage is worse than briefly under-limiting.
type Decision struct {
	Allowed bool
	// Remaining is how many calls are left in the window (0 when throttled).
	Remaining int
	// RetryAfter is how long to wait before the window resets. Only set
	// when throttled; never less than one second so clients get a usable
	// Retry-After value.
	RetryAfter time.Duration
}

// WindowStore holds fixed-window counters. Incr must be atomic per key:
// two concurrent calls both reading "4 of 5" and both passing would defeat
// the ceiling, so implementations increment-and-read under their own
// synchronization.
type WindowStore interface {
	// Incr increments the counter for key, creating the window on first
	// call and resetting it when the window has elapsed. It returns the
	// post-increment count and the window start time.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, start time.Time, err error)
}

// OpWindowLimiter applies per-class window limits over a WindowStore.
// Safe for concurrent use.
type OpWindowLimiter struct {
	Store  WindowStore
	Limits map[OperationClass]WindowLimit
}

// NewOpWindowLimiter constructs a limiter over store with default limits.
func NewOpWindowLimiter(store WindowStore) *OpWindowLimiter {
	return &OpWindowLimiter{Store: store, Limits: DefaultWindowLimits()}
}

// Check increments the (actor, class) counter and decides whether the call
// may proceed. The increment is unconditional: a throttled call still
// counts toward the window it landed in. The window start never moves, so
// retrying while throttled cannot delay the reset; RetryAfter only shrinks
// as the window runs out.
func (l *OpWindowLimiter) Check(ctx context.Context, actorID string, class OperationClass) Decision {
	limit, ok := l.Limits[class]
	if !ok || limit.Ceiling <= 0 {
		return Decision{Allowed: true}
	}

	key := string(class) + ":" + actorID
	count, start, err := l.Store.Incr(ctx, key, limit.Window)
	if err != nil {
		// Fail open: the primary mutation path must not depend on the
		// limiter store being reachable.
		log.Warn().Err(err).Str("key", key).Msg("rate limit store unavailable; allowing")
		return Decision{Allowed: true}
	}

	if count > int64(limit.Ceiling) {
		retry := limit.Window - time.Since(start)
		if retry < time.Second {
			retry = time.Second
		}
		return Decision{Allowed: false, RetryAfter: retry}
	}
	return Decision{Allowed: true, Remaining: limit.Ceiling - int(count)}
}

// windowState is one in-memory counter with bookkeeping for eviction.
type windowState struct {
	count    int64
	start    time.Time
	lastSeen time.Time
}

// MemoryWindowStore is the process-local WindowStore. Suitable for tests
// and single-instance deployments; multi-instance deployments should use
// RedisWindowStore so all instances share one counter.
//
// Idle entries are evicted opportunistically during lookups to bound
// memory, mirroring how the HTTP edge limiter manages its buckets.
type MemoryWindowStore struct {
	mu       sync.Mutex
	windows  map[string]*windowState
	cleanupN uint64

	ttl time.Duration
	now func() time.Time // test seam
}

// NewMemoryWindowStore constructs an empty in-memory store.
func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{
		windows: make(map[string]*windowState),
		ttl:     10 * time.Minute,
		now:     time.Now,
	}
}

// Incr implements WindowStore. The mutex makes the read-reset-increment
// sequence atomic per store.
func (s *MemoryWindowStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Opportunistic GC of idle windows, before touching the requested key
	// so a stale entry for this key can be evicted too.
	s.cleanupN++
	if s.cleanupN >= 5000 {
		for k, w := range s.windows {
			if now.Sub(w.lastSeen) >= s.ttl {
				delete(s.windows, k)
			}
		}
		s.cleanupN = 0
	}

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= window {
		w = &windowState{count: 0, start: now}
		s.windows[key] = w
	}
	w.count++
	w.lastSeen = now
	return w.count, w.start, nil
}
