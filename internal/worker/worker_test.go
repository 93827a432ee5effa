package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWorkerPool_StartStop(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job Job) error {
		processed.Add(1)
		return nil
	}

	pool := NewWorkerPool(2, 10, processor)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	for i := 0; i < 5; i++ {
		pool.Submit(i)
	}

	time.Sleep(50 * time.Millisecond)

	cancel()
	pool.Stop()

	if processed.Load() != 5 {
		t.Errorf("expected 5 jobs processed, got %d", processed.Load())
	}
}

func TestWorkerPool_ConcurrentSubmit(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job Job) error {
		processed.Add(1)
		return nil
	}

	pool := NewWorkerPool(4, 100, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			pool.Submit(n)
		}(i)
	}
	wg.Wait()

	pool.Stop()

	if processed.Load() != 100 {
		t.Errorf("expected 100 jobs processed, got %d", processed.Load())
	}
}

func TestWorkerPool_TrySubmitDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	processor := func(ctx context.Context, job Job) error {
		<-block
		return nil
	}

	// One worker, buffer of one: the third submit has nowhere to go.
	pool := NewWorkerPool(1, 1, processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	if !pool.TrySubmit(1) {
		t.Fatal("expected first submit to be accepted")
	}

	// Give the worker time to pick up the first job; the buffer then holds
	// the second.
	deadline := time.Now().Add(time.Second)
	for !pool.TrySubmit(2) {
		if time.Now().After(deadline) {
			t.Fatal("second submit never accepted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	accepted := pool.TrySubmit(3)
	close(block)
	pool.Stop()

	if accepted {
		t.Error("expected third submit to be dropped while the pool was saturated")
	}
}
