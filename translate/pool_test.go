package translate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunPool_Bound(t *testing.T) {
	tasks := make([]int, 50)
	var inFlight, maxInFlight int64

	err := runPool(context.Background(), tasks, 4, func(ctx context.Context, _ int) error {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			m := atomic.LoadInt64(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt64(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return nil
	})
	if err != nil {
		t.Fatalf("runPool() error: %v", err)
	}
	if got := atomic.LoadInt64(&maxInFlight); got > 4 {
		t.Errorf("max in-flight = %d, want <= 4", got)
	}
}

func TestRunPool_AllTasksRun(t *testing.T) {
	tasks := make([]int, 100)
	var ran int64

	err := runPool(context.Background(), tasks, 8, func(ctx context.Context, _ int) error {
		atomic.AddInt64(&ran, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("runPool() error: %v", err)
	}
	if ran != 100 {
		t.Errorf("ran = %d, want 100", ran)
	}
}

func TestRunPool_FirstErrorReturned(t *testing.T) {
	boom := errors.New("boom")
	tasks := []int{1, 2, 3}

	err := runPool(context.Background(), tasks, 2, func(ctx context.Context, n int) error {
		if n == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestRunPool_CancelStopsNewTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	tasks := make([]int, 100)
	var started int64

	err := runPool(ctx, tasks, 1, func(ctx context.Context, _ int) error {
		if atomic.AddInt64(&started, 1) == 3 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	// With a single permit, cancellation after task 3 leaves the tail unscheduled.
	if got := atomic.LoadInt64(&started); got >= 100 {
		t.Errorf("started = %d, want early stop", got)
	}
}
