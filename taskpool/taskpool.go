// Package taskpool runs a bounded number of workers over an ordered list of
// items, preserving result order and observing context cancellation. It
// generalizes the worker-pool shape the teacher repo hand-rolls separately
// for planning and execution (files.go's evaluateFilesForPlanningParallel
// and backup.go's processFilesParallel).
package taskpool

import (
	"context"
	"sync"
)

// Result carries one task's failure (nil Err on success); WorstResult turns
// a slice of them into a non-zero code, mirroring the reference TaskPool's
// "capture error, continue, report worst result" propagation policy.
type Result struct {
	Err error
}

// Worker computes a result for item i.
type Worker[T any, R any] func(ctx context.Context, item T) R

// OnProgress is invoked once per completed item, from a worker goroutine;
// implementations must be safe for concurrent use.
type OnProgress func()

// Run executes worker for every item using up to `concurrency` goroutines,
// returning results in input order. If concurrency <= 0, it is treated as 1.
// An entry left at R's zero value means the pool was cancelled before that
// item's result was collected.
func Run[T any, R any](ctx context.Context, items []T, concurrency int, worker Worker[T, R], onProgress OnProgress) []R {
	if concurrency <= 0 {
		concurrency = 1
	}

	type job struct {
		index int
		item  T
	}
	type outcome struct {
		index  int
		result R
	}

	jobs := make(chan job, concurrency*2)
	outcomes := make(chan outcome, concurrency*2)

	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				r := worker(ctx, j.item)
				select {
				case outcomes <- outcome{index: j.index, result: r}:
					if onProgress != nil {
						onProgress()
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, item := range items {
			select {
			case jobs <- job{index: i, item: item}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make([]R, len(items))
collect:
	for {
		select {
		case o, ok := <-outcomes:
			if !ok {
				break collect
			}
			results[o.index] = o.result
		case <-ctx.Done():
			break collect
		}
	}
	return results
}

// WorstResult returns a non-zero status if any of results indicates failure,
// matching the reference's "top-level operation returns the worst task
// result" propagation policy.
func WorstResult(results []Result) int {
	for _, r := range results {
		if r.Err != nil {
			return 1
		}
	}
	return 0
}
