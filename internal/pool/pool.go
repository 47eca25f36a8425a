// Package pool implements the bounded-concurrency, order-preserving
// fan-out primitive used to execute many per-block storage or fee
// queries in parallel without unbounded RPC load on the node.
package pool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultCap is the fan-out parallelism used when no explicit cap is
// configured.
const DefaultCap = 4

// Task is one unit of work submitted to Run. It must respect ctx
// cancellation so that a sibling failure can abort it cooperatively.
type Task[T any] func(ctx context.Context) (T, error)

// Run executes tasks with at most cap running concurrently, and returns
// their results in the same order as the input slice regardless of
// completion order. The first task to return an error cancels ctx for
// the remaining in-flight tasks and Run returns that error; results for
// tasks that had not yet completed are zero-valued in the partial slice
// returned alongside the error.
func Run[T any](ctx context.Context, cap int, tasks []Task[T]) ([]T, error) {
	if cap <= 0 {
		cap = DefaultCap
	}
	results := make([]T, len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cap)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			r, err := task(gctx)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
