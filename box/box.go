// Package box holds a mutable value behind a pointer, so that lock handlers
// can change a scalar payload through the reference handed to them.
package box

import (
	"sync"

	"golang.org/x/exp/constraints"
)

// Box is a mutable value container.
// Access is synchronized, so a box may be shared between concurrent readers.
type Box[T any] struct {
	mu    sync.RWMutex
	value T
}

// New creates a box holding v.
func New[T any](v T) *Box[T] {
	return &Box[T]{value: v}
}

func (b *Box[T]) Get() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}

func (b *Box[T]) Set(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.value = v
}

// Update replaces the value with f(old) and returns the new value.
func (b *Box[T]) Update(f func(T) T) T {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.value = f(b.value)
	return b.value
}

// Add adds delta to an integer box and returns the new value.
func Add[T constraints.Integer](b *Box[T], delta T) T {
	return b.Update(func(v T) T {
		return v + delta
	})
}
