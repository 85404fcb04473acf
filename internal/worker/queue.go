// Package worker runs best-effort background tasks on a bounded queue.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of background work.
type Task func(ctx context.Context) error

type job struct {
	name string
	task Task
}

// Queue is a bounded task queue drained by a fixed set of workers.
// Submit never blocks: when the buffer is full the task is dropped.
type Queue struct {
	jobs    chan job
	workers int
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewQueue creates a queue holding up to size pending tasks.
// Each task runs with its own timeout.
func NewQueue(size, workers int, timeout time.Duration, logger *zap.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}

	return &Queue{
		jobs:    make(chan job, size),
		workers: workers,
		timeout: timeout,
		logger:  logger,
	}
}

// Start launches the workers. Tasks outlive ctx cancellation; use Shutdown to stop.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return nil
	}

	q.started = true
	base := context.WithoutCancel(ctx)

	for range q.workers {
		q.wg.Add(1)

		go q.work(base)
	}

	q.logger.Info("worker queue started",
		zap.Int("workers", q.workers),
		zap.Int("capacity", cap(q.jobs)),
	)

	return nil
}

// Submit enqueues task. It returns false if the queue is full or shut down.
func (q *Queue) Submit(name string, task func(ctx context.Context) error) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.jobs <- job{name: name, task: task}:
		return true
	default:
		q.logger.Warn("worker queue full, task dropped", zap.String("task", name))

		return false
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
func (q *Queue) Shutdown() error {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()

		return nil
	}

	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()

	return nil
}

func (q *Queue) work(ctx context.Context) {
	defer q.wg.Done()

	for j := range q.jobs {
		q.run(ctx, j)
	}
}

func (q *Queue) run(ctx context.Context, j job) {
	if q.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	if err := j.task(ctx); err != nil {
		q.logger.Warn("background task failed",
			zap.String("task", j.name),
			zap.Error(err),
		)

		return
	}

	q.logger.Debug("background task done", zap.String("task", j.name))
}
