// Package idalloc allocates the monotonically increasing ids the
// transactor assigns to new entities and to each transaction itself. The
// allocator is owned by the transactor and is only ever touched while the
// write lock is held (spec.md §5), so it needs no synchronization of its
// own beyond what atomic.Uint64 already provides for safe publication to
// concurrent readers of Last.
package idalloc

import "sync/atomic"

// Allocator hands out strictly increasing, non-zero ids.
type Allocator interface {
	// Next returns a fresh id, guaranteed greater than every id returned
	// before it.
	Next() uint64

	// Last returns the most recently allocated id. Before the first Next
	// call it returns the allocator's starting point (the seed, for
	// CounterAllocator).
	Last() uint64
}

// CounterAllocator is the default Allocator: an atomic counter seeded
// above the highest id already reserved by bootstrap attributes.
type CounterAllocator struct {
	counter atomic.Uint64
}

// NewCounterAllocator constructs an allocator whose first Next() call
// returns seed+1.
func NewCounterAllocator(seed uint64) *CounterAllocator {
	a := &CounterAllocator{}
	a.counter.Store(seed)
	return a
}

func (a *CounterAllocator) Next() uint64 {
	return a.counter.Add(1)
}

func (a *CounterAllocator) Last() uint64 {
	return a.counter.Load()
}
