package exclusivelock

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.com/slon/asynclock/future"
	"gitlab.com/slon/asynclock/lockopt"
)

// ErrHandlerPanic is wrapped by the error a caller receives when its handler panicked.
var ErrHandlerPanic = errors.New("exclusivelock: handler panicked")

// A Task is a unit of work executed while holding the lock.
//
// Start is called on its own goroutine with the protected value.
// The task holds the lock until it calls release, which must happen
// exactly once. Start may return before calling release.
type Task[T any] interface {
	Start(value T, release func())
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc[T any] func(value T, release func())

func (f TaskFunc[T]) Start(value T, release func()) {
	f(value, release)
}

type queued[T any] struct {
	task     Task[T]
	queuedAt time.Time
}

// A Lock is an asynchronous mutual exclusion lock over an owned value.
// Tasks are executed one at a time in submission order.
//
// Submitting never blocks: the caller gets control back immediately and the
// task runs later on its own goroutine.
type Lock[T any] struct {
	value T
	cfg   lockopt.Config
	log   *zap.Logger

	mu      sync.Mutex
	running bool
	queue   []queued[T]
}

// New creates a lock owning value. The value may be the zero value when the
// lock only serializes side effects.
func New[T any](value T, opts ...lockopt.Option) *Lock[T] {
	cfg := lockopt.Apply(opts...)
	return &Lock[T]{
		value: value,
		cfg:   cfg,
		log:   cfg.Logger.With(zap.String("lock", cfg.Name)),
	}
}

// Name returns the lock name used in logs and metrics.
func (l *Lock[T]) Name() string {
	return l.cfg.Name
}

// IsIdle reports whether no task is executing.
func (l *Lock[T]) IsIdle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.running
}

// QueueLength returns the number of waiting tasks, excluding the running one.
func (l *Lock[T]) QueueLength() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Submit enqueues t. If the lock is idle, t starts right away.
func (l *Lock[T]) Submit(t Task[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.queue = append(l.queue, queued[T]{task: t, queuedAt: l.cfg.Clock.Now()})
	l.cfg.Observer.TaskQueued(l.cfg.Name, len(l.queue))
	l.log.Debug("task queued", zap.Int("queue_len", len(l.queue)), zap.Bool("running", l.running))

	if !l.running {
		l.next()
	}
}

// next starts the queue head. Must be called with l.mu held.
func (l *Lock[T]) next() {
	if l.running {
		panic("exclusivelock: next called while a task is running")
	}
	if len(l.queue) == 0 {
		return
	}

	item := l.queue[0]
	l.queue[0] = queued[T]{}
	l.queue = l.queue[1:]
	l.running = true

	startedAt := l.cfg.Clock.Now()
	wait := startedAt.Sub(item.queuedAt)
	l.cfg.Observer.TaskStarted(l.cfg.Name, wait)
	l.log.Debug("task started", zap.Duration("wait", wait), zap.Int("queue_len", len(l.queue)))

	var released bool
	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		if released {
			panic("exclusivelock: task released twice")
		}
		released = true

		hold := l.cfg.Clock.Since(startedAt)
		l.cfg.Observer.TaskFinished(l.cfg.Name, hold)
		l.log.Debug("task finished", zap.Duration("hold", hold))

		// Переход в idle и запуск следующей задачи под одним мьютексом:
		// снаружи нельзя увидеть idle при непустой очереди.
		l.running = false
		l.next()
	}

	go item.task.Start(l.value, release)
}

// Run executes h with the protected value once every previously submitted
// task has finished. The returned future settles with h's result before the
// next task starts.
func Run[T, R any](l *Lock[T], h func(T) (R, error)) *future.Future[R] {
	f, settle := future.New[R]()
	l.Submit(TaskFunc[T](func(value T, release func()) {
		defer release()
		settle(Call(h, value))
	}))
	return f
}

// Call invokes h, turning a panic into an error wrapping ErrHandlerPanic.
func Call[T, R any](h func(T) (R, error), value T) (res R, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero R
			res, err = zero, fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h(value)
}
