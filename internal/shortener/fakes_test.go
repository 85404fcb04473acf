package shortener_test

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// sequenceGenerator returns the given codes in order, repeating the last one.
func sequenceGenerator(codes ...string) shortener.CodeGenerator {
	var (
		mu sync.Mutex
		i  int
	)

	return func() string {
		mu.Lock()
		defer mu.Unlock()

		code := codes[min(i, len(codes)-1)]
		i++

		return code
	}
}

// faultyRepository wraps a MemoryStore and injects errors per operation.
type faultyRepository struct {
	*store.MemoryStore

	existsErr   error
	insertErrs  []error
	lookupErr   error
	deleteErr   error
	sweepErr    error
	insertCalls int
	existsCalls int
}

func newFaultyRepository() *faultyRepository {
	return &faultyRepository{MemoryStore: store.NewMemoryStore()}
}

func (r *faultyRepository) Exists(ctx context.Context, code shortener.Code) (bool, error) {
	r.existsCalls++
	if r.existsErr != nil {
		return false, r.existsErr
	}

	return r.MemoryStore.Exists(ctx, code)
}

func (r *faultyRepository) Insert(ctx context.Context, link *shortener.Link) error {
	r.insertCalls++
	if len(r.insertErrs) > 0 {
		err := r.insertErrs[0]
		r.insertErrs = r.insertErrs[1:]

		return err
	}

	return r.MemoryStore.Insert(ctx, link)
}

func (r *faultyRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}

	return r.MemoryStore.GetByCode(ctx, code)
}

func (r *faultyRepository) Delete(ctx context.Context, id, owner string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}

	return r.MemoryStore.Delete(ctx, id, owner)
}

func (r *faultyRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	if r.sweepErr != nil {
		return 0, r.sweepErr
	}

	return r.MemoryStore.DeactivateExpired(ctx, now)
}

// blockingRepository never answers lookups until the context is done.
type blockingRepository struct {
	*store.MemoryStore
}

func (r blockingRepository) GetByCode(ctx context.Context, _ shortener.Code) (*shortener.Link, error) {
	<-ctx.Done()

	return nil, ctx.Err()
}

type recordedEvent struct {
	kind string
	code shortener.Code
	at   time.Time
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (r *fakeRecorder) record(kind string, link *shortener.Link, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, recordedEvent{kind: kind, code: link.Code, at: at})

	return r.err
}

func (r *fakeRecorder) RecordClick(link *shortener.Link, _ shortener.Visit, at time.Time) error {
	return r.record("click", link, at)
}

func (r *fakeRecorder) RecordImpression(link *shortener.Link, _ shortener.Visit, at time.Time) error {
	return r.record("impression", link, at)
}

func (r *fakeRecorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.kind)
	}

	return out
}

// queuedTasks keeps submitted tasks so tests decide when they run.
type queuedTasks struct {
	mu     sync.Mutex
	names  []string
	tasks  []func(ctx context.Context) error
	reject bool
}

func (q *queuedTasks) Submit(name string, task func(ctx context.Context) error) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.reject {
		return false
	}

	q.names = append(q.names, name)
	q.tasks = append(q.tasks, task)

	return true
}

func (q *queuedTasks) RunAll() {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	for _, task := range tasks {
		_ = task(context.Background())
	}
}
