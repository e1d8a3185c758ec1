// Package future provides a minimal single-value future and a bounded worker
// pool that completes them.
package future

import (
	"context"
	"sync"
)

type Future[T any] struct {
	done   chan struct{}
	once   sync.Once
	val    T
	err    error
	cancel context.CancelFunc
}

func newFuture[T any](cancel context.CancelFunc) *Future[T] {
	if cancel == nil {
		cancel = func() {}
	}
	return &Future[T]{done: make(chan struct{}), cancel: cancel}
}

func (f *Future[T]) complete(val T, err error) {
	f.once.Do(func() {
		f.val, f.err = val, err
		close(f.done)
	})
}

// Done is closed once the value or error is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the future completes or ctx ends. A completed future
// always wins over a cancelled ctx.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	default:
	}

	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel asks the underlying task to stop. Best effort: a task that already
// finished keeps its result.
func (f *Future[T]) Cancel() { f.cancel() }

// Go runs fn on its own goroutine.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := newFuture[T](cancel)

	go func() {
		defer cancel()
		f.complete(fn(ctx))
	}()

	return f
}

// Resolved returns an already completed future.
func Resolved[T any](val T, err error) *Future[T] {
	f := newFuture[T](nil)
	f.complete(val, err)
	return f
}
