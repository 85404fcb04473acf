package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Record(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

func TestFixedWindowLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit then denies", func(t *testing.T) {
		limiter := ratelimit.NewFixedWindowLimiter(store.NewRateLimitMemoryStore(), "shorten", 10, time.Minute)

		for i := range 10 {
			decision, err := limiter.Allow(ctx, "owner-1")

			require.NoError(t, err)
			assert.True(t, decision.Allowed, "request %d should pass", i+1)
		}

		decision, err := limiter.Allow(ctx, "owner-1")

		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, int64(11), decision.Count)
		assert.Equal(t, int64(10), decision.Limit)
	})

	t.Run("tracks keys independently", func(t *testing.T) {
		limiter := ratelimit.NewFixedWindowLimiter(store.NewRateLimitMemoryStore(), "shorten", 1, time.Minute)

		first, _ := limiter.Allow(ctx, "owner-1")
		second, _ := limiter.Allow(ctx, "owner-1")
		other, err := limiter.Allow(ctx, "owner-2")

		require.NoError(t, err)
		assert.True(t, first.Allowed)
		assert.False(t, second.Allowed)
		assert.True(t, other.Allowed)
	})

	t.Run("resets after the window elapses", func(t *testing.T) {
		limiter := ratelimit.NewFixedWindowLimiter(store.NewRateLimitMemoryStore(), "shorten", 1, 50*time.Millisecond)

		_, _ = limiter.Allow(ctx, "owner-1")
		denied, _ := limiter.Allow(ctx, "owner-1")
		assert.False(t, denied.Allowed)

		time.Sleep(60 * time.Millisecond)

		decision, err := limiter.Allow(ctx, "owner-1")

		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		limiter := ratelimit.NewFixedWindowLimiter(failingStore{}, "shorten", 1, time.Minute)

		_, err := limiter.Allow(ctx, "owner-1")

		assert.Error(t, err)
	})

	t.Run("describes itself", func(t *testing.T) {
		limiter := ratelimit.NewFixedWindowLimiter(store.NewRateLimitMemoryStore(), "shorten", 10, 60*time.Second)

		assert.Equal(t, "10 requests per 1m0s", limiter.Describe())
	})
}
