package sharedlock

import (
	"sync"

	"go.uber.org/zap"

	"gitlab.com/slon/asynclock/exclusivelock"
	"gitlab.com/slon/asynclock/future"
	"gitlab.com/slon/asynclock/lockopt"
)

// A Lock is an asynchronous reader/writer lock over an owned value.
// Any number of read handlers may run at once, a write handler runs alone.
//
// Reads are grouped into batches. A batch occupies the underlying exclusive
// lock as a single task, so writes are ordered against whole batches:
// writes submitted before a batch finish before it starts, writes submitted
// after it wait for every member, including reads that joined while the
// batch was already running. A write also closes the current batch, so reads
// submitted after a write never overtake it. This keeps writers from starving.
type Lock[T any] struct {
	value T
	mutex *exclusivelock.Lock[struct{}]
	cfg   lockopt.Config
	log   *zap.Logger

	mu      sync.Mutex
	current *batch[T]
	active  *batch[T]
}

type batch[T any] struct {
	members []func(T)
	started bool
	pending int
	release func()
}

// New creates a lock owning value.
func New[T any](value T, opts ...lockopt.Option) *Lock[T] {
	cfg := lockopt.Apply(opts...)
	return &Lock[T]{
		value: value,
		mutex: exclusivelock.New(struct{}{}, lockopt.WithName(cfg.Name),
			lockopt.WithLogger(cfg.Logger), lockopt.WithClock(cfg.Clock),
			lockopt.WithObserver(cfg.Observer)),
		cfg: cfg,
		log: cfg.Logger.With(zap.String("lock", cfg.Name)),
	}
}

// Name returns the lock name used in logs and metrics.
func (l *Lock[T]) Name() string {
	return l.cfg.Name
}

// IsIdle reports whether neither a write nor a read batch is executing.
func (l *Lock[T]) IsIdle() bool {
	return l.mutex.IsIdle()
}

// QueueLength returns the number of writes and read batches waiting to run.
func (l *Lock[T]) QueueLength() int {
	return l.mutex.QueueLength()
}

// ActiveReaders returns the number of unfinished reads in the running batch.
func (l *Lock[T]) ActiveReaders() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return 0
	}
	return l.active.pending
}

// Write runs h with exclusive access to the value, after every previously
// submitted write and read batch.
func Write[T, R any](l *Lock[T], h func(T) (R, error)) *future.Future[R] {
	f, settle := future.New[R]()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Новые чтения не должны присоединяться к батчу, начатому до этой записи
	l.current = nil
	l.mutex.Submit(exclusivelock.TaskFunc[struct{}](func(_ struct{}, release func()) {
		defer release()
		settle(exclusivelock.Call(h, l.value))
	}))
	l.log.Debug("write queued")
	return f
}

// Read runs h with shared access to the value. The returned future settles
// as soon as h returns, regardless of other reads in the same batch.
func Read[T, R any](l *Lock[T], h func(T) (R, error)) *future.Future[R] {
	f, settle := future.New[R]()
	l.read(func(value T) {
		settle(exclusivelock.Call(h, value))
	})
	return f
}

func (l *Lock[T]) read(member func(T)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.current
	switch {
	case b == nil:
		b = &batch[T]{members: []func(T){member}}
		l.current = b
		l.mutex.Submit(exclusivelock.TaskFunc[struct{}](func(_ struct{}, release func()) {
			l.startBatch(b, release)
		}))
		l.log.Debug("batch created")

	case !b.started:
		// Задача батча ещё в очереди: участник будет запущен при старте
		b.members = append(b.members, member)
		l.cfg.Observer.BatchJoined(l.cfg.Name, false)
		l.log.Debug("read joined queued batch", zap.Int("batch_size", len(b.members)))

	default:
		b.pending++
		l.cfg.Observer.BatchJoined(l.cfg.Name, true)
		l.log.Debug("read joined running batch", zap.Int("pending", b.pending))
		go l.runMember(b, member)
	}
}

func (l *Lock[T]) startBatch(b *batch[T], release func()) {
	l.mu.Lock()
	b.started = true
	b.release = release
	b.pending = len(b.members)
	l.active = b
	members := b.members
	b.members = nil
	l.cfg.Observer.BatchStarted(l.cfg.Name, len(members))
	l.log.Debug("batch started", zap.Int("batch_size", len(members)))
	l.mu.Unlock()

	for _, member := range members {
		go l.runMember(b, member)
	}
}

func (l *Lock[T]) runMember(b *batch[T], member func(T)) {
	member(l.value)

	l.mu.Lock()
	b.pending--
	if b.pending < 0 {
		l.mu.Unlock()
		panic("sharedlock: negative pending read count")
	}
	if b.pending > 0 {
		l.mu.Unlock()
		return
	}

	if l.current == b {
		l.current = nil
	}
	if l.active == b {
		l.active = nil
	}
	release := b.release
	b.release = nil
	l.log.Debug("batch released")
	l.mu.Unlock()

	if release == nil {
		panic("sharedlock: batch finished without a release signal")
	}
	release()
}
