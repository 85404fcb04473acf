package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Decision is the outcome of a single limiter check.
type Decision struct {
	Allowed bool
	Count   int64
	Limit   int64
	Window  time.Duration
}

// FixedWindowLimiter counts requests per key in fixed windows that start with
// the first request and reset once the window elapses.
type FixedWindowLimiter struct {
	store  Store
	prefix string
	limit  int64
	window time.Duration
}

func NewFixedWindowLimiter(store Store, prefix string, limit int64, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		store:  store,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow records one request for key and reports whether it fits the window.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, err := l.store.Record(ctx, l.prefix+":"+key, l.window)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed: count <= l.limit,
		Count:   count,
		Limit:   l.limit,
		Window:  l.window,
	}, nil
}

// Describe renders the limit for error messages, e.g. "10 requests per 1m0s".
func (l *FixedWindowLimiter) Describe() string {
	return fmt.Sprintf("%d requests per %s", l.limit, l.window)
}
