package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQueue_Submit(t *testing.T) {
	t.Run("runs submitted tasks", func(t *testing.T) {
		q := worker.NewQueue(10, 2, time.Second, zap.NewNop())
		require.NoError(t, q.Start(context.Background()))

		var ran atomic.Int32

		for range 5 {
			ok := q.Submit("count", func(_ context.Context) error {
				ran.Add(1)

				return nil
			})
			assert.True(t, ok)
		}

		require.NoError(t, q.Shutdown())
		assert.Equal(t, int32(5), ran.Load())
	})

	t.Run("drops tasks when full without blocking", func(t *testing.T) {
		q := worker.NewQueue(1, 1, time.Second, zap.NewNop())
		require.NoError(t, q.Start(context.Background()))

		release := make(chan struct{})
		started := make(chan struct{})

		q.Submit("block", func(_ context.Context) error {
			close(started)
			<-release

			return nil
		})
		<-started

		assert.True(t, q.Submit("buffered", func(_ context.Context) error { return nil }))

		done := make(chan bool)

		go func() {
			done <- q.Submit("dropped", func(_ context.Context) error { return nil })
		}()

		select {
		case ok := <-done:
			assert.False(t, ok, "task should be dropped when the queue is full")
		case <-time.After(time.Second):
			t.Fatal("Submit blocked on a full queue")
		}

		close(release)
		require.NoError(t, q.Shutdown())
	})

	t.Run("rejects tasks after shutdown", func(t *testing.T) {
		q := worker.NewQueue(1, 1, time.Second, zap.NewNop())
		require.NoError(t, q.Start(context.Background()))
		require.NoError(t, q.Shutdown())

		ok := q.Submit("late", func(_ context.Context) error { return nil })

		assert.False(t, ok)
		require.NoError(t, q.Shutdown())
	})
}

func TestQueue_TaskTimeout(t *testing.T) {
	q := worker.NewQueue(1, 1, 20*time.Millisecond, zap.NewNop())
	require.NoError(t, q.Start(context.Background()))

	result := make(chan error, 1)

	q.Submit("slow", func(ctx context.Context) error {
		<-ctx.Done()
		result <- ctx.Err()

		return ctx.Err()
	})

	select {
	case err := <-result:
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	case <-time.After(time.Second):
		t.Fatal("task was not cancelled by its timeout")
	}

	require.NoError(t, q.Shutdown())
}

func TestQueue_OutlivesStartContext(t *testing.T) {
	q := worker.NewQueue(1, 1, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, q.Start(ctx))
	cancel()

	result := make(chan error, 1)

	q.Submit("after-cancel", func(ctx context.Context) error {
		result <- ctx.Err()

		return nil
	})

	require.NoError(t, q.Shutdown())
	assert.NoError(t, <-result)
}
