// This file implements a Lock-Free MPSC Ring Buffer (Disruptor pattern)
// with cache-line padding to prevent false sharing between producers and
// consumer. A worker uses one of these as its inbound event queue: every
// connection goroutine reading frames off its own socket is a producer,
// the worker's single reactor loop is the sole consumer.
//
// Origin: LMAX Disruptor (2011), Vyukov MPSC queue.
package spatial

import (
	"runtime"
	"sync/atomic"
)

// CacheLineSize is the typical CPU cache line size (64 bytes on x86-64).
const CacheLineSize = 64

// Padding prevents head and tail from sharing a cache line with each
// other or with adjacent allocations (false sharing).
type Padding [CacheLineSize]byte

// LockFreeQueue is a high-performance MPSC ring buffer: any number of
// producer goroutines may call Push/TryPush concurrently, but only one
// goroutine may ever call Pop/TryPop/Drain (the worker's own loop).
//
// Memory layout: [Padding][head][Padding][tail][Padding][mask][Padding][data...]
type LockFreeQueue[T any] struct {
	_pad0 Padding

	head uint64 // write position (producers), own cache line
	_pad1 Padding

	tail uint64 // read position (consumer), own cache line
	_pad2 Padding

	mask uint64 // capacity-1, for fast modulo
	_pad3 Padding

	data []T
}

// NewLockFreeQueue creates a queue whose capacity is rounded up to the
// next power of two.
func NewLockFreeQueue[T any](capacity int) *LockFreeQueue[T] {
	cap := 1
	for cap < capacity {
		cap <<= 1
	}

	return &LockFreeQueue[T]{
		mask: uint64(cap - 1),
		data: make([]T, cap),
	}
}

// TryPush attempts to add an item, returning false if the queue is full.
// Safe for any number of concurrent producers.
func (q *LockFreeQueue[T]) TryPush(item T) bool {
	for {
		head := atomic.LoadUint64(&q.head)
		tail := atomic.LoadUint64(&q.tail)

		if head-tail > q.mask {
			return false
		}

		if atomic.CompareAndSwapUint64(&q.head, head, head+1) {
			q.data[head&q.mask] = item
			return true
		}

		runtime.Gosched()
	}
}

// Push adds an item, spinning until there is room.
func (q *LockFreeQueue[T]) Push(item T) {
	for !q.TryPush(item) {
		runtime.Gosched()
	}
}

// TryPop removes one item. Must only ever be called by a single
// consumer goroutine (MPSC pattern — no CAS needed on tail).
func (q *LockFreeQueue[T]) TryPop() (T, bool) {
	var zero T

	tail := atomic.LoadUint64(&q.tail)
	head := atomic.LoadUint64(&q.head)

	if tail >= head {
		return zero, false
	}

	item := q.data[tail&q.mask]
	atomic.StoreUint64(&q.tail, tail+1)
	return item, true
}

// Len returns an approximate item count; it may be stale immediately.
func (q *LockFreeQueue[T]) Len() int {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	if head < tail {
		return 0
	}
	return int(head - tail)
}

// Cap returns the queue's fixed capacity.
func (q *LockFreeQueue[T]) Cap() int {
	return int(q.mask + 1)
}

// Drain pops up to maxItems in one batch call — what a worker's reactor
// loop uses on each drain-ticker pass to pull in everything producers
// queued since the last pass.
func (q *LockFreeQueue[T]) Drain(maxItems int) []T {
	result := make([]T, 0, maxItems)
	for len(result) < maxItems {
		item, ok := q.TryPop()
		if !ok {
			break
		}
		result = append(result, item)
	}
	return result
}
