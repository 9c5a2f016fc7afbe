// Package batch provides a bounded-concurrency fan-out/fan-in runner.
// It dispatches work in input order, keeps at most a fixed number of
// invocations in flight, and returns successful results compacted back
// into input order so callers can index positionally.
package batch

import (
	"context"
	"sync"
)

// Worker processes one item. A non-nil error drops the item's result
// from the runner output; it is never propagated further.
type Worker[T, R any] func(ctx context.Context, item T) (R, error)

// Run invokes worker for every item with at most limit invocations
// outstanding at any instant. Dispatch follows input order: the next
// item is submitted as soon as any in-flight invocation completes,
// not necessarily the earliest-submitted one.
//
// The returned slice holds the results of successful invocations in
// input order (a stable filter; completion order never reorders it).
// An empty input returns immediately without invoking worker.
//
// obs, when non-nil, is notified exactly once per completed item,
// success or failure, in completion order.
//
// Cancelling ctx stops further dispatch; items already in flight run
// to completion and their results are kept.
func Run[T, R any](ctx context.Context, items []T, limit int, worker Worker[T, R], obs Observer) []R {
	if len(items) == 0 {
		return nil
	}
	if limit < 1 {
		limit = 1
	}

	results := make([]R, len(items))
	completed := make([]bool, len(items))

	// Tokens bound concurrency: dispatch blocks on acquiring a token
	// until any in-flight worker releases one.
	tokens := make(chan struct{}, limit)
	var wg sync.WaitGroup

dispatch:
	for i := range items {
		// Checked separately first: when a token is free and ctx is
		// already cancelled, the combined select below would pick a
		// branch at random.
		select {
		case <-ctx.Done():
			break dispatch
		default:
		}

		select {
		case tokens <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-tokens }()

			r, err := worker(ctx, items[i])
			if err == nil {
				results[i] = r
				completed[i] = true
			}
			if obs != nil {
				obs.ItemCompleted(i, err)
			}
		}(i)
	}

	wg.Wait()

	out := make([]R, 0, len(items))
	for i := range items {
		if completed[i] {
			out = append(out, results[i])
		}
	}
	return out
}
