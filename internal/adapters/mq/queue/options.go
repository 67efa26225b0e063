// Package queue provides the shared channels between pipeline stages.
package queue

// Option applies a configuration option to the InMemory queue.
type Option[T any] func(*InMemory[T])

// WithName labels the queue in logs and metrics ("records", "batches").
func WithName[T any](name string) Option[T] {
	return func(q *InMemory[T]) {
		if name != "" {
			q.name = name
		}
	}
}

// WithBufferSize sets the buffer size of the backing channel.
func WithBufferSize[T any](size int) Option[T] {
	return func(q *InMemory[T]) {
		if size > 0 {
			q.bufferSize = size
		}
	}
}
