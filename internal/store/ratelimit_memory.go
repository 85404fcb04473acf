package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

// pruneThreshold is the number of tracked keys above which elapsed windows are dropped.
const pruneThreshold = 10_000

type window struct {
	start time.Time
	size  time.Duration
	count int64
}

func (w *window) elapsed(now time.Time) bool {
	return now.Sub(w.start) >= w.size
}

// RateLimitMemoryStore is a single-process fixed-window implementation of ratelimit.Store.
type RateLimitMemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	clock   shortener.Clock
}

// RateLimitMemoryOption customizes a RateLimitMemoryStore.
type RateLimitMemoryOption func(*RateLimitMemoryStore)

// WithRateLimitClock overrides the clock that opens and closes windows.
func WithRateLimitClock(clock shortener.Clock) RateLimitMemoryOption {
	return func(s *RateLimitMemoryStore) { s.clock = clock }
}

func NewRateLimitMemoryStore(opts ...RateLimitMemoryOption) *RateLimitMemoryStore {
	s := &RateLimitMemoryStore{
		windows: make(map[string]*window),
		clock:   shortener.RealClock{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, size time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	w, ok := s.windows[key]
	if !ok || w.elapsed(now) {
		if len(s.windows) >= pruneThreshold {
			s.prune(now)
		}

		w = &window{start: now, size: size}
		s.windows[key] = w
	}

	w.count++

	return w.count, nil
}

// Len returns the number of keys currently tracked.
func (s *RateLimitMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.windows)
}

func (s *RateLimitMemoryStore) prune(now time.Time) {
	for key, w := range s.windows {
		if w.elapsed(now) {
			delete(s.windows, key)
		}
	}
}
