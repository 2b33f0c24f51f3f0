// Package bulk runs independent work items through a bounded pull-based
// worker pool and summarises HTTP outcomes into a pass/fail report.
package bulk

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Settlement is the outcome of one item: either a value or the error that
// item produced
type Settlement[R any] struct {
	Value R
	Err   error
}

// Fulfilled reports whether the item completed without error
func (s Settlement[R]) Fulfilled() bool {
	return s.Err == nil
}

// PanicError wraps a value recovered from a panicking worker
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker panicked: %v", e.Value)
}

// Worker processes one item. index is the item's position in the input.
type Worker[T, R any] func(ctx context.Context, item T, index int) (R, error)

// ClampConcurrency bounds concurrency to [1, n]
func ClampConcurrency(concurrency, n int) int {
	if concurrency > n {
		concurrency = n
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return concurrency
}

// RunWithConcurrency runs worker over items with at most concurrency calls in
// flight and returns one settlement per item, in input order.
//
// Workers pull the next unclaimed index from a shared atomic cursor, so a
// slow item never holds back the items queued behind it. A failing or
// panicking item is recorded in its own settlement and does not stop the
// other workers. ctx is handed to every call unchanged; the pool itself
// never cancels it.
func RunWithConcurrency[T, R any](ctx context.Context, items []T, worker Worker[T, R], concurrency int) []Settlement[R] {
	results := make([]Settlement[R], len(items))
	if len(items) == 0 {
		return results
	}
	if ctx == nil {
		ctx = context.Background()
	}

	workers := ClampConcurrency(concurrency, len(items))
	var cursor atomic.Int64

	// A plain Group: one item's error must not cancel its siblings.
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				i := int(cursor.Add(1) - 1)
				if i >= len(items) {
					return nil
				}
				results[i] = settle(ctx, worker, items[i], i)
			}
		})
	}
	_ = g.Wait()

	return results
}

func settle[T, R any](ctx context.Context, worker Worker[T, R], item T, index int) (s Settlement[R]) {
	defer func() {
		if r := recover(); r != nil {
			s = Settlement[R]{Err: &PanicError{Value: r, Stack: debug.Stack()}}
		}
	}()
	value, err := worker(ctx, item, index)
	return Settlement[R]{Value: value, Err: err}
}
