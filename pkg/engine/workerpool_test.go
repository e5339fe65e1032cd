package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_ProcessPreservesOrder(t *testing.T) {
	pool := NewWorkerPoolWithLimit[int, int](4)
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	results, err := pool.Process(context.Background(), items, func(_ context.Context, n int) (int, error) {
		return n * n, nil
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	for i, item := range items {
		if want := item * item; results[i] != want {
			t.Errorf("results[%d] = %d, want %d", i, results[i], want)
		}
	}
}

func TestWorkerPool_EmptyInput(t *testing.T) {
	pool := NewWorkerPool[int, int]()
	results, err := pool.Process(context.Background(), nil, func(_ context.Context, n int) (int, error) {
		t.Fatal("fn should not be called for empty input")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestWorkerPool_FirstErrorWins(t *testing.T) {
	pool := NewWorkerPoolWithLimit[int, int](2)
	sentinel := errors.New("boom")

	_, err := pool.Process(context.Background(), []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, sentinel
		}
		return n, nil
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Process() error = %v, want %v", err, sentinel)
	}
}

func TestWorkerPool_RespectsConcurrencyLimit(t *testing.T) {
	const limit = 3
	pool := NewWorkerPoolWithLimit[int, struct{}](limit)

	var inFlight int32
	var maxSeen int32
	items := make([]int, 20)

	release := make(chan struct{})
	go func() { close(release) }()

	_, err := pool.Process(context.Background(), items, func(_ context.Context, _ int) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&maxSeen)
			if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if maxSeen > limit {
		t.Errorf("observed %d concurrent workers, want <= %d", maxSeen, limit)
	}
}
