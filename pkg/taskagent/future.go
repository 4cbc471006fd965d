package taskagent

import (
	"context"
	"sync/atomic"
)

// Future is a single-assignment slot for the eventual outcome of a queued
// task. It is resolved exactly once, by the agent's worker.
type Future struct {
	assigned atomic.Bool
	done     chan struct{}
	value    interface{}
	err      error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve assigns the outcome. Only the first call wins; a second call leaves
// the observed outcome untouched and reports false.
func (f *Future) resolve(value interface{}, err error) bool {
	if !f.assigned.CompareAndSwap(false, true) {
		return false
	}
	f.value = value
	f.err = err
	close(f.done)
	return true
}

// Await blocks until the future is resolved or ctx is cancelled. It is safe
// to call repeatedly; once resolved it keeps returning the same outcome.
// Cancellation abandons the wait only; the task itself still runs to
// completion on the worker.
func (f *Future) Await(ctx context.Context) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel that is closed once the future is resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Resolved reports whether an outcome has been assigned and published.
func (f *Future) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
