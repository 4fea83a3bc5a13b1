package tracer

import (
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Push after the consumer side has gone away.
var ErrQueueClosed = errors.New("tracer: event queue closed")

// eventQueue is an unbounded multi-producer, single-consumer queue.
// Producers never block: Push appends under a mutex held for O(1) and
// signals the consumer through a one-slot wake channel. The consumer takes
// everything pending with Drain, preserving FIFO order.
type eventQueue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	wake   chan struct{}
}

func newEventQueue[T any]() *eventQueue[T] {
	return &eventQueue[T]{wake: make(chan struct{}, 1)}
}

// Push enqueues one item. It never blocks; the only failure is a closed
// queue.
func (q *eventQueue[T]) Push(item T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Drain removes and returns all pending items in FIFO order.
func (q *eventQueue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Wake signals when items may be pending. The channel carries at most one
// pending signal; a drain loop must re-check after each wakeup.
func (q *eventQueue[T]) Wake() <-chan struct{} {
	return q.wake
}

// Close marks the consumer gone. Pending items stay drainable; subsequent
// pushes fail.
func (q *eventQueue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Len reports how many items are pending.
func (q *eventQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
