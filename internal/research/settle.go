// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
)

// Task is one unit of concurrent work.
type Task[T any] func(ctx context.Context) (T, error)

// Settled is the outcome of one Task. Exactly one of Value or Err is
// meaningful.
type Settled[T any] struct {
	Value T
	Err   error
}

// SettleAll starts every task at once and waits for all of them to finish,
// whether they succeed, fail, or panic. It never returns early on a failure.
// Results are in task order, not completion order.
//
// When ctx is done, SettleAll stops waiting: tasks still running settle as
// ctx.Err() and are abandoned, even if they ignore ctx.
func SettleAll[T any](ctx context.Context, tasks ...Task[T]) []Settled[T] {
	type result struct {
		i int
		s Settled[T]
	}
	// Buffered so abandoned tasks can still finish and exit.
	results := make(chan result, len(tasks))
	for i, task := range tasks {
		i, task := i, task
		go func() {
			var s Settled[T]
			defer func() {
				if r := recover(); r != nil {
					s = Settled[T]{Err: fmt.Errorf("task %d panicked: %v", i, r)}
				}
				results <- result{i: i, s: s}
			}()
			v, err := task(ctx)
			s = Settled[T]{Value: v, Err: err}
		}()
	}

	out := make([]Settled[T], len(tasks))
	done := make([]bool, len(tasks))
	collect := func(r result) {
		out[r.i] = r.s
		done[r.i] = true
	}
	for pending := len(tasks); pending > 0; pending-- {
		select {
		case r := <-results:
			collect(r)
		case <-ctx.Done():
			// Keep whatever finished before the cutoff.
			for drained := false; !drained; {
				select {
				case r := <-results:
					collect(r)
				default:
					drained = true
				}
			}
			for i := range out {
				if !done[i] {
					out[i] = Settled[T]{Err: ctx.Err()}
				}
			}
			return out
		}
	}
	return out
}
