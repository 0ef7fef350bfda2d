package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"saldo/internal/log"
)

// PushQueue runs background push jobs on a fixed set of workers. The queue
// is bounded: when it is full a new job is dropped, since a job already
// waiting will read the newer state when it runs.
type PushQueue struct {
	size    int
	workers int
	run     func(ctx context.Context, seq uint64)
	logger  *log.Logger

	mu      sync.Mutex
	running bool
	jobs    chan uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	dropped atomic.Int64
}

func NewPushQueue(size, workers int, run func(ctx context.Context, seq uint64), logger *log.Logger) *PushQueue {
	if size < 1 {
		size = 1
	}
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &PushQueue{size: size, workers: workers, run: run, logger: logger}
}

// Start launches the workers. Jobs run with a context derived from ctx, so
// cancelling ctx abandons in-flight pushes.
func (q *PushQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return errors.New("push queue is already running")
	}
	wctx, cancel := context.WithCancel(ctx)
	q.running = true
	q.cancel = cancel
	q.jobs = make(chan uint64, q.size)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(wctx, q.jobs)
	}
	q.logger.Debug("Push queue started", "workers", q.workers, "size", q.size)
	return nil
}

func (q *PushQueue) work(ctx context.Context, jobs <-chan uint64) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case seq, ok := <-jobs:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				return
			}
			q.run(ctx, seq)
		}
	}
}

// Enqueue hands seq to a worker without blocking. It reports false when the
// queue is stopped or full.
func (q *PushQueue) Enqueue(seq uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return false
	}
	select {
	case q.jobs <- seq:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Stop abandons queued and in-flight jobs and waits for the workers to
// return. When ctx ends first Stop returns without waiting further.
func (q *PushQueue) Stop(ctx context.Context) error {
	return q.shutdown(ctx, false)
}

// Drain stops accepting jobs and lets the queued ones finish. When ctx ends
// first the remaining work is abandoned.
func (q *PushQueue) Drain(ctx context.Context) error {
	return q.shutdown(ctx, true)
}

func (q *PushQueue) shutdown(ctx context.Context, drain bool) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	cancel := q.cancel
	close(q.jobs)
	q.mu.Unlock()

	if !drain {
		cancel()
	}
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		cancel()
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

func (q *PushQueue) IsRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Dropped counts jobs refused because the queue was full.
func (q *PushQueue) Dropped() int64 {
	return q.dropped.Load()
}
