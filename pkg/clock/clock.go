// Package clock abstracts wall time and timers so the simulation can run on
// real tickers or on a manually advanced virtual clock.
package clock

import (
	"sync"
	"time"
)

// Timer is a scheduled one-shot or repeating callback.
type Timer interface {
	// Stop prevents future firings. It does not wait for a running callback.
	Stop()
}

// Scheduler provides the current time and runs callbacks later.
// Callbacks run on scheduler-owned goroutines; callers synchronise.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// Real schedules on the system clock.
type Real struct {
	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	stopped bool
}

// NewReal returns a running real-time scheduler.
func NewReal() *Real {
	return &Real{stopCh: make(chan struct{})}
}

// Now returns time.Now.
func (r *Real) Now() time.Time { return time.Now() }

type realTimer struct{ t *time.Timer }

func (rt realTimer) Stop() { rt.t.Stop() }

// AfterFunc runs fn once after d unless the scheduler was stopped first.
func (r *Real) AfterFunc(d time.Duration, fn func()) Timer {
	return realTimer{time.AfterFunc(d, func() {
		select {
		case <-r.stopCh:
			return
		default:
		}
		fn()
	})}
}

type tickerTimer struct {
	once sync.Once
	done chan struct{}
}

func (tt *tickerTimer) Stop() { tt.once.Do(func() { close(tt.done) }) }

// Every runs fn every d until the returned timer or the scheduler is stopped.
func (r *Real) Every(d time.Duration, fn func()) Timer {
	tt := &tickerTimer{done: make(chan struct{})}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		tt.Stop()
		return tt
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(d)
		defer ticker.Stop()

		for {
			select {
			case <-r.stopCh:
				return
			case <-tt.done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return tt
}

// Stop halts every ticker and waits for their loops to exit. Pending
// AfterFunc callbacks are dropped. Must not be called from inside a callback
// or while holding a lock a callback takes.
func (r *Real) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()
}
