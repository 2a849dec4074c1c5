// Package lockopt holds the options shared by exclusivelock and sharedlock.
package lockopt

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

//go:generate mockgen -destination mocks/observer.go -package mocks gitlab.com/slon/asynclock/lockopt Observer

// Observer receives lock lifecycle events. Hooks are called with the lock's
// internal mutex held, so events of one lock arrive in order. Implementations
// must be safe for concurrent use, must not block and must not call back
// into the lock.
type Observer interface {
	// TaskQueued is called when a task is submitted; queueLen excludes the running task.
	TaskQueued(lock string, queueLen int)
	// TaskStarted is called when a task begins executing after waiting for wait.
	TaskStarted(lock string, wait time.Duration)
	// TaskFinished is called when a task releases the lock after holding it for hold.
	TaskFinished(lock string, hold time.Duration)
	// BatchStarted is called when a read batch starts with size members.
	BatchStarted(lock string, size int)
	// BatchJoined is called when a read joins an existing batch.
	// running is true when the batch had already started.
	BatchJoined(lock string, running bool)
}

// Config is the resolved set of options.
type Config struct {
	Name     string
	Logger   *zap.Logger
	Clock    clockwork.Clock
	Observer Observer
}

type Option func(*Config)

// WithName sets the lock name used in logs and metrics.
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithClock sets the clock used to measure wait and hold durations.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

func WithObserver(o Observer) Option {
	return func(c *Config) {
		c.Observer = o
	}
}

// Apply resolves opts on top of the defaults.
func Apply(opts ...Option) Config {
	c := Config{
		Logger:   zap.NewNop(),
		Clock:    clockwork.NewRealClock(),
		Observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.Name == "" {
		c.Name = "lock-" + uuid.Must(uuid.NewV4()).String()[:8]
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Observer == nil {
		c.Observer = NopObserver{}
	}
	return c
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) TaskQueued(string, int) {}
func (NopObserver) TaskStarted(string, time.Duration) {}
func (NopObserver) TaskFinished(string, time.Duration) {}
func (NopObserver) BatchStarted(string, int) {}
func (NopObserver) BatchJoined(string, bool) {}
