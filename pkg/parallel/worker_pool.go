// Package parallel runs independent jobs on a bounded pool of goroutines.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/dd0wney/cluso-netsim/pkg/logging"
)

// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
var ErrTooManyWorkers = errors.New("worker count exceeds maximum")

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// WorkerPool manages a pool of worker goroutines
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // guards taskQueue against close during send
	closed    bool
	panics    atomic.Int64
	logger    logging.Logger
}

// NewWorkerPool starts workers goroutines. A non-positive count uses one
// worker per CPU.
func NewWorkerPool(workers int, logger logging.Logger) (*WorkerPool, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
		logger:    logging.OrDefault(logger).With(logging.Component("parallel")),
	}
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool, nil
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int { return wp.workers }

// Panics returns how many tasks have panicked.
func (wp *WorkerPool) Panics() int64 { return wp.panics.Load() }

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		wp.run(task)
	}
}

func (wp *WorkerPool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			wp.panics.Add(1)
			wp.logger.Error("task panicked", logging.Any("panic", r))
		}
	}()
	task()
}

// Submit queues task, blocking while the queue is full.
func (wp *WorkerPool) Submit(task func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return ErrPoolClosed
	}
	wp.taskQueue <- task
	return nil
}

// Close stops accepting tasks and waits for queued ones to finish.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Map runs fn for every index in [0, n) on a fresh pool and returns the
// results in index order. Once ctx is cancelled or a job fails, jobs not yet
// started are skipped. The returned error joins every job failure, or is
// ctx's error when only cancellation stopped the run.
func Map[T any](ctx context.Context, workers, n int, logger logging.Logger, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	pool, err := NewWorkerPool(min(workers, max(n, 1)), logger)
	if err != nil {
		return nil, err
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]T, n)
	errs := make([]error, n)
	var done sync.WaitGroup
	for i := 0; i < n; i++ {
		done.Add(1)
		task := func() {
			defer done.Done()
			if jobCtx.Err() != nil {
				return
			}
			res, err := fn(jobCtx, i)
			if err != nil {
				errs[i] = fmt.Errorf("job %d: %w", i, err)
				cancel()
				return
			}
			results[i] = res
		}
		if err := pool.Submit(task); err != nil {
			done.Done()
			errs[i] = err
		}
	}
	done.Wait()
	pool.Close()

	if p := pool.Panics(); p > 0 {
		errs = append(errs, fmt.Errorf("%d jobs panicked", p))
	}
	if err := errors.Join(errs...); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
