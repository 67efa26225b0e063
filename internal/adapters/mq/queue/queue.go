// Package queue provides the shared channels between receivers, the merger,
// and the batch consumer.
//
// One generic implementation serves both hops: the record queue written by
// N receivers and drained by the single merger, and the batch queue written
// by the merger and drained by the caller.
package queue

import (
	"context"
	"sync"

	"github.com/okian/skystream/pkg/metrics"
)

// The contract treats queues as logically unbounded; the default buffer is
// big enough that producers never block in practice.
const defaultBufferSize = 100000

// Queue provides blocking enqueue and channel-based dequeue semantics for
// concurrent multi-producer/single-consumer use.
type Queue[T any] interface {
	// Enqueue adds an item to the queue, blocking on backpressure.
	// Returns false if the queue is closed or ctx is cancelled.
	Enqueue(ctx context.Context, item T) bool

	// Dequeue returns a channel that receives items as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan T

	// Len returns the current number of queued items.
	Len() int

	// Close shuts the queue down. After closing, no new items can be
	// enqueued and the dequeue channel drains then closes.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemory implements Queue using a buffered channel.
type InMemory[T any] struct {
	items      chan T
	name       string
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemory creates a new in-memory queue with configuration options.
func NewInMemory[T any](opts ...Option[T]) *InMemory[T] {
	q := &InMemory[T]{
		name:       "queue",
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.items = make(chan T, q.bufferSize)

	metrics.UpdateQueueCapacity(q.name, q.bufferSize)
	metrics.UpdateQueueDepth(q.name, 0)

	return q
}

// Enqueue adds an item to the queue. Unlike a bounded reject-on-full queue,
// this blocks when the buffer is full so that slow consumers apply
// backpressure to the wire readers instead of losing frames.
func (q *InMemory[T]) Enqueue(ctx context.Context, item T) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError(q.name)
		return false
	}

	select {
	case q.items <- item:
		metrics.RecordQueueEnqueue(q.name)
		metrics.UpdateQueueDepth(q.name, len(q.items))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError(q.name)
		return false
	}
}

// Dequeue returns a channel that receives items as they become available.
func (q *InMemory[T]) Dequeue(ctx context.Context) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for item := range q.items {
			select {
			case out <- item:
				metrics.RecordQueueDequeue(q.name)
				metrics.UpdateQueueDepth(q.name, len(q.items))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued items.
func (q *InMemory[T]) Len() int {
	return len(q.items)
}

// Close shuts the queue down. Producers must be cancelled first: Close
// waits for in-flight Enqueue calls, so a producer blocked on a full
// buffer has to be released via its context before Close can proceed.
func (q *InMemory[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.items)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemory[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
