// Package merge groups the interleaved record stream from all receivers
// into timestamp-aligned batches.
package merge

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/skystream/internal/domain/model"
	"github.com/okian/skystream/pkg/logger"
	"github.com/okian/skystream/pkg/metrics"
)

// RecordSource defines how the merger receives records.
type RecordSource interface {
	Dequeue(ctx context.Context) <-chan *model.Record
}

// BatchSink defines how the merger emits completed batches.
type BatchSink interface {
	Enqueue(ctx context.Context, b *model.Batch) bool
}

// Merger is the single consumer of the shared record queue. It accumulates
// consecutive records with equal timestamps and emits the group as a batch
// the moment a record with a different timestamp arrives. There is no
// flush on idle: a source that stalls on its last timestamp keeps the
// group open indefinitely.
type Merger struct {
	in  RecordSource
	out BatchSink

	done chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Merger.
type Option func(*Merger)

// WithLogger sets a custom logger for the merger.
func WithLogger(l logger.Logger) Option {
	return func(m *Merger) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a merger bound to a record source and a batch sink.
func New(in RecordSource, out BatchSink, opts ...Option) *Merger {
	m := &Merger{
		in:     in,
		out:    out,
		done:   make(chan struct{}),
		logger: logger.Get().Named("merger"),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Run consumes records until ctx is cancelled or the record source closes.
//
// A record older than the current group is an ordering anomaly: it is
// logged and counted but not dropped, and because its timestamp differs
// from the current group it closes that group and opens a new one, exactly
// as any other timestamp change does. Grouping is by equality alone.
func (m *Merger) Run(ctx context.Context) {
	defer close(m.done)

	records := m.in.Dequeue(ctx)

	var first *model.Record
	select {
	case <-ctx.Done():
		return
	case rec, ok := <-records:
		if !ok {
			return
		}
		first = rec
	}
	m.logger.Info(ctx, "merger received first record", logger.Time("timestamp", first.Timestamp))

	current := first.Timestamp
	group := []*model.Record{first}

	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-records:
			if !ok {
				return
			}

			ts := rec.Timestamp
			if ts.Before(current) {
				metrics.RecordOrderingAnomaly()
				m.logger.Error(ctx, "timing anomaly, older record received after newer record",
					logger.String("source", rec.Source),
					logger.Time("timestamp", ts),
					logger.Time("current", current),
				)
			}

			if ts.Equal(current) {
				group = append(group, rec)
				continue
			}

			if !m.emit(ctx, current, group) {
				return
			}
			current = ts
			group = []*model.Record{rec}
		}
	}
}

// Done is closed once Run has returned.
func (m *Merger) Done() <-chan struct{} {
	return m.done
}

func (m *Merger) emit(ctx context.Context, ts time.Time, group []*model.Record) bool {
	batch := &model.Batch{
		ID:        uuid.New(),
		Timestamp: ts,
		Records:   group,
	}

	m.logger.Info(ctx, "collected batch",
		logger.Time("timestamp", ts),
		logger.Int("records", len(group)),
	)

	if !m.out.Enqueue(ctx, batch) {
		return false
	}
	metrics.RecordBatchEmitted(len(group))
	return true
}
