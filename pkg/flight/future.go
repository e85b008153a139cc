// Package flight provides a value that is produced once and observed by any
// number of waiters, in the order they registered.
package flight

import (
	"context"
	"sync"
)

// Future is resolved exactly once with a value or an error. Callbacks
// registered before resolution fire in registration order on the resolving
// goroutine; callbacks registered afterwards run immediately on the caller's
// goroutine.
type Future[T any] struct {
	mu       sync.Mutex
	resolved bool
	value    T
	err      error
	waiters  []func(T, error)
	done     chan struct{}
}

// New returns an unresolved future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future that already holds value.
func Resolved[T any](value T) *Future[T] {
	f := New[T]()
	f.Resolve(value, nil)
	return f
}

// Then registers fn. It reports whether fn ran synchronously because the
// future was already resolved.
func (f *Future[T]) Then(fn func(T, error)) bool {
	if fn == nil {
		return false
	}
	f.mu.Lock()
	if !f.resolved {
		f.waiters = append(f.waiters, fn)
		f.mu.Unlock()
		return false
	}
	value, err := f.value, f.err
	f.mu.Unlock()

	fn(value, err)
	return true
}

// Enqueue queues fn only while the future is unresolved. It reports false,
// without running fn, when the outcome is already available.
func (f *Future[T]) Enqueue(fn func(T, error)) bool {
	if fn == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolved {
		return false
	}
	f.waiters = append(f.waiters, fn)
	return true
}

// Resolve stores the outcome and fires queued waiters once each. Only the
// first call has an effect; it reports whether this call resolved the
// future.
func (f *Future[T]) Resolve(value T, err error) bool {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return false
	}
	f.resolved = true
	f.value = value
	f.err = err
	waiters := f.waiters
	f.waiters = nil
	close(f.done)
	f.mu.Unlock()

	for _, fn := range waiters {
		fn(value, err)
	}
	return true
}

// Fail resolves the future with err and the zero value.
func (f *Future[T]) Fail(err error) bool {
	var zero T
	return f.Resolve(zero, err)
}

// IsResolved reports whether the outcome is available.
func (f *Future[T]) IsResolved() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolved
}

// Pending returns the number of queued waiters.
func (f *Future[T]) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

// Done is closed once the future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until resolution or until ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
