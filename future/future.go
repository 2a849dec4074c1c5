package future

import (
	"context"
	"sync"
)

// Future is the result of an asynchronous computation.
// It is settled exactly once, with either a value or an error.
// The zero value is not usable; create futures with New.
type Future[R any] struct {
	once sync.Once
	done chan struct{}
	res  R
	err  error
}

// New returns a pending future and the function that settles it.
// Only the first call to settle has an effect.
func New[R any]() (*Future[R], func(R, error)) {
	f := &Future[R]{done: make(chan struct{})}
	return f, f.settle
}

// Resolved returns a future already settled with v.
func Resolved[R any](v R) *Future[R] {
	f, settle := New[R]()
	settle(v, nil)
	return f
}

// Rejected returns a future already settled with err.
func Rejected[R any](err error) *Future[R] {
	f, settle := New[R]()
	var zero R
	settle(zero, err)
	return f
}

func (f *Future[R]) settle(res R, err error) {
	f.once.Do(func() {
		f.res = res
		f.err = err
		// Закрытие канала будит всех ожидающих сразу
		close(f.done)
	})
}

// Done returns a channel that is closed once the future is settled.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Ready reports whether the future is settled.
func (f *Future[R]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get blocks until the future is settled and returns its result.
func (f *Future[R]) Get() (R, error) {
	<-f.done
	return f.res, f.err
}

// Await waits for the result until ctx is done.
// Giving up on ctx does not cancel the computation behind the future.
func (f *Future[R]) Await(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}
