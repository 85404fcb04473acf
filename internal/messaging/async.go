package messaging

import (
	"context"
	"errors"
)

// ErrQueueFull is returned by an async publish func when the background queue
// refused the event.
var ErrQueueFull = errors.New("background queue full")

// TaskRunner accepts named background tasks without blocking the caller.
type TaskRunner interface {
	Submit(name string, task func(ctx context.Context) error) bool
}

// NewAsyncPublish wraps publish so the broker round trip happens on runner.
// The returned func never waits on the broker; it reports ErrQueueFull when the
// event could not be queued.
func NewAsyncPublish[T any](runner TaskRunner, name string, publish Publish[T]) Publish[T] {
	return func(_ context.Context, event *T) error {
		ok := runner.Submit(name, func(ctx context.Context) error {
			return publish(ctx, event)
		})
		if !ok {
			return ErrQueueFull
		}

		return nil
	}
}
