// Package handoff moves platform events from the UI thread to the engine
// thread. Posting never blocks the UI thread; a full queue drops the event.
package handoff

import (
	"context"
	"errors"
	"sync"
)

// Error definitions for the handoff queue.
var (
	ErrQueueFull   = errors.New("handoff queue full; event dropped")
	ErrQueueClosed = errors.New("handoff queue closed")
)

// DefaultQueueSize is used when a non-positive size is requested.
const DefaultQueueSize = 64

// Queue is a bounded multi-producer, single-consumer queue.
type Queue[T any] struct {
	mu     sync.RWMutex
	ch     chan T
	closed bool
}

// NewQueue returns a queue holding up to size events.
func NewQueue[T any](size int) *Queue[T] {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue[T]{ch: make(chan T, size)}
}

// Post enqueues v without blocking.
func (q *Queue[T]) Post(v T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- v:
		return nil
	default:
		return ErrQueueFull
	}
}

// Len returns the number of queued events.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Close stops accepting events. Events already queued are still handed to Run.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

// Run hands queued events to fn on the calling goroutine until the queue is
// closed and drained, or ctx is done.
func (q *Queue[T]) Run(ctx context.Context, fn func(T)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v, ok := <-q.ch:
			if !ok {
				return nil
			}
			fn(v)
		}
	}
}

// Drain hands every currently queued event to fn without waiting for more.
// Engines that poll once per audio block use it instead of Run.
func (q *Queue[T]) Drain(fn func(T)) int {
	n := 0
	for {
		select {
		case v, ok := <-q.ch:
			if !ok {
				return n
			}
			fn(v)
			n++
		default:
			return n
		}
	}
}
