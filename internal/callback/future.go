// Package callback captures the one-time code an OAuth-style redirect hands
// back to a local listener, racing it against a URL pasted by the user.
package callback

import (
	"context"
	"sync"
)

// Future is a single-assignment value shared by several producers and one
// consumer. Only the first Resolve takes effect.
type Future[T any] struct {
	mu    sync.Mutex
	done  chan struct{}
	value T
	set   bool
}

// NewFuture returns an unresolved Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve stores v if the future is still empty and reports whether it did.
func (f *Future[T]) Resolve(v T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.set {
		return false
	}
	f.value = v
	f.set = true
	close(f.done)
	return true
}

// Done is closed once the future holds a value.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Value returns the stored value without blocking.
func (f *Future[T]) Value() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.set
}

// Wait blocks until the future is resolved or ctx ends.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		v, _ := f.Value()
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
