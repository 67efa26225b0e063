// Package service wires the ingest pipeline together: one receiver per
// configured endpoint, the shared record queue, the merger, and the
// outgoing batch stream consumed by the caller.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/skystream/internal/adapters/mq/queue"
	"github.com/okian/skystream/internal/adapters/tcp/receiver"
	"github.com/okian/skystream/internal/domain/merge"
	"github.com/okian/skystream/internal/domain/model"
	"github.com/okian/skystream/pkg/logger"
)

// Default service configuration constants.
const (
	defaultQueueSize       = 100000
	defaultBatchQueueSize  = 1024
	defaultShutdownTimeout = 5 * time.Second
)

// ErrNoEndpoints is returned by Start when no data sources are configured.
var ErrNoEndpoints = errors.New("no endpoints configured")

// Service owns the ingest pipeline. Batches() is the lazy, infinite stream
// of timestamp-aligned batches; it never signals completion under normal
// operation, only Stop ends it.
type Service struct {
	mu sync.RWMutex

	// Core components
	records   *queue.InMemory[*model.Record]
	batches   *queue.InMemory[*model.Batch]
	receivers []*receiver.Receiver
	merger    *merge.Merger

	// Configuration
	endpoints       []model.Endpoint
	recordQueueSize int
	batchQueueSize  int
	retryDelay      time.Duration
	dialTimeout     time.Duration

	// State
	started bool
	cancel  context.CancelFunc
	out     <-chan *model.Batch

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEndpoints sets the telescope data sources to stream from.
func WithEndpoints(endpoints []model.Endpoint) Option {
	return func(s *Service) {
		s.endpoints = endpoints
	}
}

// WithRecordQueueSize sets the buffer of the shared record queue.
func WithRecordQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.recordQueueSize = size
		}
	}
}

// WithBatchQueueSize sets the buffer of the outgoing batch queue.
func WithBatchQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchQueueSize = size
		}
	}
}

// WithRetryDelay sets the receivers' wait between failed connects.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// WithDialTimeout bounds a receiver's single connect attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.dialTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		recordQueueSize: defaultQueueSize,
		batchQueueSize:  defaultBatchQueueSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start allocates the queues and launches the merger and one receiver per
// endpoint. Idempotent; the second call is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if len(s.endpoints) == 0 {
		return ErrNoEndpoints
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("ingest")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.records = queue.NewInMemory[*model.Record](
		queue.WithName[*model.Record]("records"),
		queue.WithBufferSize[*model.Record](s.recordQueueSize),
	)
	s.batches = queue.NewInMemory[*model.Batch](
		queue.WithName[*model.Batch]("batches"),
		queue.WithBufferSize[*model.Batch](s.batchQueueSize),
	)

	s.merger = merge.New(s.records, s.batches)
	go s.merger.Run(runCtx)

	recvOpts := []receiver.Option{}
	if s.retryDelay > 0 {
		recvOpts = append(recvOpts, receiver.WithRetryDelay(s.retryDelay))
	}
	if s.dialTimeout > 0 {
		recvOpts = append(recvOpts, receiver.WithDialTimeout(s.dialTimeout))
	}

	s.receivers = make([]*receiver.Receiver, 0, len(s.endpoints))
	for _, ep := range s.endpoints {
		r := receiver.New(ep, s.records, recvOpts...)
		s.receivers = append(s.receivers, r)
		go r.Run(runCtx)
	}

	s.out = s.batches.Dequeue(runCtx)
	s.started = true

	s.logger.Info(ctx, "ingest service started",
		logger.Int("endpoints", len(s.endpoints)),
		logger.Int("recordQueueSize", s.recordQueueSize),
		logger.Int("batchQueueSize", s.batchQueueSize),
	)

	return nil
}

// Batches returns the stream of merged batches. Nil before Start.
func (s *Service) Batches() <-chan *model.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.out
}

// Stop cancels all receivers and the merger, closes the queues, and waits
// briefly for the goroutines to exit. In-flight connections are closed via
// the shared cancellation.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping ingest service...")

	s.cancel()

	for _, r := range s.receivers {
		select {
		case <-r.Done():
		case <-time.After(defaultShutdownTimeout):
			s.logger.Warn(ctx, "receiver shutdown timed out")
		}
	}
	select {
	case <-s.merger.Done():
	case <-time.After(defaultShutdownTimeout):
		s.logger.Warn(ctx, "merger shutdown timed out")
	}

	_ = s.records.Close()
	_ = s.batches.Close()

	s.started = false
	s.logger.Info(ctx, "ingest service stopped")
}

// Stats returns pipeline statistics for monitoring.
func (s *Service) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   s.started,
		"endpoints": len(s.endpoints),
	}
	if s.started {
		stats["recordsQueued"] = s.records.Len()
		stats["batchesQueued"] = s.batches.Len()
	}
	return stats
}
