package ratelimit

import (
	"context"
	"time"
)

// Store counts requests per key. Record increments the counter for key and
// returns the count within the current window, starting a new window when the
// previous one has elapsed.
type Store interface {
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
