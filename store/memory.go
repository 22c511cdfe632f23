// Package store provides the cache and rate-limit backends behind the
// Store/RateLimiter abstractions: an in-process concurrent-safe map with
// expiry metadata, and a Redis-backed variant with native TTL for
// multi-instance deployments. Eviction is lazy: sweeps piggyback on request
// handling and throttle themselves, no background timer runs.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/mokokaf/interactions-api/interfaces"
)

// sweepInterval amortizes the O(n) sweep across requests.
const sweepInterval = time.Minute

// Compile-time checks.
var (
	_ interfaces.Store       = (*MemoryStore)(nil)
	_ interfaces.RateLimiter = (*FixedWindowLimiter)(nil)
)

// MemoryStore is a process-wide interaction cache keyed by canonical pair
// key. Entries expire after the configured TTL and are removed lazily on Get
// or during Sweep.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]interfaces.CacheEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryStore creates a memory store with the given entry TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return NewMemoryStoreWithClock(ttl, time.Now)
}

// NewMemoryStoreWithClock injects the clock, for tests.
func NewMemoryStoreWithClock(ttl time.Duration, now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]interfaces.CacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the live entry for key. Expired entries are deleted and
// reported as a miss, which triggers a fresh upstream call.
func (s *MemoryStore) Get(_ context.Context, key string) (*interfaces.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.ExpiresAt) {
		delete(s.entries, key)
		return nil, nil
	}
	return &entry, nil
}

// Set stores the entry under key with a fresh expiry.
func (s *MemoryStore) Set(_ context.Context, key string, entry interfaces.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ExpiresAt = s.now().Add(s.ttl)
	s.entries[key] = entry
	return nil
}

// Delete removes the entry for key if present.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Sweep evicts expired entries, at most once per sweepInterval.
func (s *MemoryStore) Sweep(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) < sweepInterval {
		return nil
	}
	s.lastSweep = now

	for key, entry := range s.entries {
		if now.After(entry.ExpiresAt) {
			delete(s.entries, key)
		}
	}
	return nil
}

// Len reports the number of stored entries, expired included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// windowEntry is the per-client fixed-window counter.
type windowEntry struct {
	count       int
	windowStart time.Time
}

// FixedWindowLimiter caps requests per client identifier over a fixed
// window (default 20 per 60s). Unattributable clients share the "unknown"
// bucket, so the identifier must already be resolved by the caller.
type FixedWindowLimiter struct {
	mu        sync.Mutex
	clients   map[string]windowEntry
	limit     int
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewFixedWindowLimiter creates a limiter allowing limit requests per window.
func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowLimiter {
	return NewFixedWindowLimiterWithClock(limit, window, time.Now)
}

// NewFixedWindowLimiterWithClock injects the clock, for tests.
func NewFixedWindowLimiterWithClock(limit int, window time.Duration, now func() time.Time) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		clients: make(map[string]windowEntry),
		limit:   limit,
		window:  window,
		now:     now,
	}
}

// Allow records one request for the client and reports whether it fits the
// current window. A new window starts once the previous one has elapsed.
func (l *FixedWindowLimiter) Allow(_ context.Context, clientID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.clients[clientID]
	if !ok || now.Sub(entry.windowStart) >= l.window {
		entry = windowEntry{windowStart: now}
	}
	if entry.count >= l.limit {
		l.clients[clientID] = entry
		return false, nil
	}
	entry.count++
	l.clients[clientID] = entry
	return true, nil
}

// Sweep drops windows that have fully elapsed, at most once per
// sweepInterval.
func (l *FixedWindowLimiter) Sweep(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) < sweepInterval {
		return nil
	}
	l.lastSweep = now

	for id, entry := range l.clients {
		if now.Sub(entry.windowStart) >= l.window {
			delete(l.clients, id)
		}
	}
	return nil
}
