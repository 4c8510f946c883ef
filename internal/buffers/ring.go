// Package buffers holds bounded in-memory buffers shared by concurrent
// request handlers.
package buffers

import "sync"

const defaultRingSize = 100

// Ring is a fixed-size circular buffer. Once full, each Push overwrites the
// oldest item. All methods are safe for concurrent use.
type Ring[T any] struct {
	mu      sync.Mutex
	buf     []T
	cap     int
	head    int // next write position
	count   int // items in buffer (≤ cap)
	version int // monotonic counter for change detection
}

// NewRing creates a ring with the given capacity. If cap ≤ 0,
// defaultRingSize is used.
func NewRing[T any](cap int) *Ring[T] {
	if cap <= 0 {
		cap = defaultRingSize
	}
	return &Ring[T]{
		buf: make([]T, cap),
		cap: cap,
	}
}

// Push adds an item. Never blocks.
func (r *Ring[T]) Push(item T) {
	r.mu.Lock()
	r.buf[r.head] = item
	r.head = (r.head + 1) % r.cap
	if r.count < r.cap {
		r.count++
	}
	r.version++
	r.mu.Unlock()
}

// Snapshot returns the items oldest first.
func (r *Ring[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, r.count)
	start := (r.head - r.count + r.cap) % r.cap
	for i := range out {
		out[i] = r.buf[(start+i)%r.cap]
	}
	return out
}

// Len returns the number of items held.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Version returns a counter that increments on every Push.
func (r *Ring[T]) Version() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}
