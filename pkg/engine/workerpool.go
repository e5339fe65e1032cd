// Package engine provides the bounded compute pool shared by the generator
// and checker: a small generic helper over golang.org/x/sync/errgroup that
// runs a function over a slice of items with a fixed concurrency limit,
// collecting one result per item in input order.
package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the worker count used when a Pool is constructed
// with a non-positive limit: one worker per logical CPU, matching the
// compute pool's default sizing.
func DefaultConcurrency() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

// WorkerPool runs a function over a bounded set of concurrent workers. It
// replaces the exposed-future style of a builder-configured executor with
// structured concurrency: Process blocks until every item has been
// processed or the group's context is cancelled by the first error.
type WorkerPool[T any, R any] struct {
	limit int
}

// NewWorkerPool returns a WorkerPool sized to DefaultConcurrency. Use
// NewWorkerPoolWithLimit to size it explicitly (e.g. the checker's fixed
// compute-pool strategies).
func NewWorkerPool[T any, R any]() *WorkerPool[T, R] {
	return &WorkerPool[T, R]{limit: DefaultConcurrency()}
}

// NewWorkerPoolWithLimit returns a WorkerPool bounded to limit concurrent
// workers. A non-positive limit falls back to DefaultConcurrency.
func NewWorkerPoolWithLimit[T any, R any](limit int) *WorkerPool[T, R] {
	if limit <= 0 {
		limit = DefaultConcurrency()
	}
	return &WorkerPool[T, R]{limit: limit}
}

// Process runs fn over every item in items, bounded to the pool's
// concurrency limit, and returns results in the same order as items. It
// returns the first error encountered; once an item's fn call fails, the
// group's context is cancelled and fn will observe ctx.Done() on the
// remaining in-flight calls.
func (p *WorkerPool[T, R]) Process(ctx context.Context, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			result, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
