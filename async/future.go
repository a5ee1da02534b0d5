package async

import (
	"context"
	"sync"
)

// Future is a one-shot result produced by a background computation. It is
// resolved exactly once, either with a value or with an error.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// NewFuture returns an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Go runs f on a new goroutine and returns a future resolved with its result.
func Go[T any](f func() (T, error)) *Future[T] {
	fut := NewFuture[T]()
	go func() {
		v, err := f()
		fut.Resolve(v, err)
	}()
	return fut
}

// Resolved returns a future that already carries the given result.
func Resolved[T any](v T, err error) *Future[T] {
	fut := NewFuture[T]()
	fut.Resolve(v, err)
	return fut
}

// Resolve completes the future. Only the first call has any effect.
func (f *Future[T]) Resolve(v T, err error) {
	f.once.Do(func() {
		f.val = v
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future is resolved or ctx is done. Giving up on the
// wait does not cancel the underlying computation.
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
