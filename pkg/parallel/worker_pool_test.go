package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dd0wney/cluso-netsim/pkg/logging"
)

func TestWorkerPoolBasicOperations(t *testing.T) {
	pool, err := NewWorkerPool(4, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("NewWorkerPool: %v", err)
	}

	executed := false
	if err := pool.Submit(func() { executed = true }); err != nil {
		t.Errorf("Submit: %v", err)
	}
	pool.Close()

	if !executed {
		t.Error("Task was not executed")
	}
	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
}

func TestWorkerPoolDefaultsToCPUCount(t *testing.T) {
	pool, err := NewWorkerPool(0, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("NewWorkerPool: %v", err)
	}
	defer pool.Close()
	if pool.Workers() < 1 {
		t.Errorf("Workers() = %d", pool.Workers())
	}
}

func TestWorkerPoolTooManyWorkers(t *testing.T) {
	_, err := NewWorkerPool(MaxWorkers+1, logging.NewNopLogger())
	if !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("err = %v, want ErrTooManyWorkers", err)
	}
}

func TestWorkerPoolConcurrentSubmissions(t *testing.T) {
	pool, err := NewWorkerPool(10, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("NewWorkerPool: %v", err)
	}

	const numTasks = 100
	var counter atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Submit(func() { counter.Add(1) })
		}()
	}
	wg.Wait()
	pool.Close()

	if counter.Load() != numTasks {
		t.Errorf("Expected counter %d, got %d", numTasks, counter.Load())
	}
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool, err := NewWorkerPool(2, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("NewWorkerPool: %v", err)
	}
	pool.Close()
	pool.Close()

	if err := pool.Submit(func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit after close = %v, want ErrPoolClosed", err)
	}
}

func TestWorkerPoolRecoversPanics(t *testing.T) {
	pool, err := NewWorkerPool(1, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("NewWorkerPool: %v", err)
	}

	ran := false
	_ = pool.Submit(func() { panic("boom") })
	_ = pool.Submit(func() { ran = true })
	pool.Close()

	if !ran {
		t.Error("worker died after a panicking task")
	}
	if pool.Panics() != 1 {
		t.Errorf("Panics() = %d, want 1", pool.Panics())
	}
}

func TestMap_PreservesOrder(t *testing.T) {
	got, err := Map(context.Background(), 4, 20, logging.NewNopLogger(), func(_ context.Context, i int) (int, error) {
		return i * i, nil
	})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	for i, v := range got {
		if v != i*i {
			t.Errorf("result[%d] = %d, want %d", i, v, i*i)
		}
	}
}

func TestMap_Empty(t *testing.T) {
	got, err := Map(context.Background(), 4, 0, logging.NewNopLogger(), func(context.Context, int) (int, error) {
		t.Error("fn called for empty input")
		return 0, nil
	})
	if err != nil || len(got) != 0 {
		t.Errorf("Map(0) = %v, %v", got, err)
	}
}

func TestMap_FailureStopsRemainingJobs(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int64
	_, err := Map(context.Background(), 1, 50, logging.NewNopLogger(), func(_ context.Context, i int) (int, error) {
		calls.Add(1)
		if i == 2 {
			return 0, boom
		}
		return i, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	// One worker runs jobs in order, so nothing after the failure starts.
	if calls.Load() != 3 {
		t.Errorf("fn called %d times, want 3", calls.Load())
	}
}

func TestMap_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Map(ctx, 2, 5, logging.NewNopLogger(), func(context.Context, int) (int, error) {
		return 1, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestMap_Panic(t *testing.T) {
	_, err := Map(context.Background(), 2, 3, logging.NewNopLogger(), func(_ context.Context, i int) (int, error) {
		if i == 1 {
			panic("bad job")
		}
		return i, nil
	})
	if err == nil {
		t.Error("expected error for panicking job")
	}
}
