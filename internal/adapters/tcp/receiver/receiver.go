// Package receiver owns one TCP connection to one telescope data source.
// Each receiver dials its endpoint, retries failed connects on a fixed
// delay, and streams decoded image records onto the shared record queue
// until its context is cancelled.
package receiver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/okian/skystream/internal/adapters/wire"
	"github.com/okian/skystream/internal/domain/fits"
	"github.com/okian/skystream/internal/domain/model"
	"github.com/okian/skystream/pkg/logger"
	"github.com/okian/skystream/pkg/metrics"
)

// Default receiver configuration constants.
const (
	defaultRetryDelay  = 5 * time.Second
	defaultDialTimeout = 10 * time.Second
)

// Error kind labels for metrics.
const (
	kindConnect  = "connect"
	kindClosed   = "closed"
	kindProtocol = "protocol"
	kindDecode   = "decode"
)

// RecordQueue defines how the receiver hands records to the merger.
type RecordQueue interface {
	Enqueue(ctx context.Context, rec *model.Record) bool
}

// Receiver reads frames from a single endpoint and enqueues reconstructed
// records. Failure domains are independent: nothing a receiver hits ever
// propagates past its own reconnect loop.
type Receiver struct {
	endpoint model.Endpoint
	queue    RecordQueue

	retryDelay  time.Duration
	dialTimeout time.Duration

	done chan struct{}

	logger logger.Logger
}

// New creates a receiver for one endpoint with configuration options.
func New(endpoint model.Endpoint, queue RecordQueue, opts ...Option) *Receiver {
	r := &Receiver{
		endpoint:    endpoint,
		queue:       queue,
		retryDelay:  defaultRetryDelay,
		dialTimeout: defaultDialTimeout,
		done:        make(chan struct{}),
		logger:      logger.Get().Named("receiver"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run drives the connect/stream/reconnect state machine until ctx is
// cancelled. A failed connect waits the fixed retry delay before the next
// attempt; a broken or corrupted stream reconnects immediately.
func (r *Receiver) Run(ctx context.Context) {
	defer close(r.done)

	addr := r.endpoint.Addr()
	attempts := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if attempts > 0 {
			metrics.RecordReconnect(addr)
		}
		attempts++

		r.logger.Info(ctx, "connecting", logger.String("endpoint", addr))
		conn, err := r.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.RecordReceiverError(addr, kindConnect)
			r.logger.Error(ctx, "connect failed, retrying after delay",
				logger.String("endpoint", addr),
				logger.Duration("delay", r.retryDelay),
				logger.Error(err),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.retryDelay):
			}
			continue
		}

		session := uuid.New().String()
		r.logger.Info(ctx, "connected",
			logger.String("endpoint", addr),
			logger.String("session", session),
		)

		metrics.ReceiverConnected()
		r.stream(ctx, conn, session)
		metrics.ReceiverDisconnected()
	}
}

// Done is closed once Run has returned.
func (r *Receiver) Done() <-chan struct{} {
	return r.done
}

func (r *Receiver) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: r.dialTimeout}
	return dialer.DialContext(ctx, "tcp", r.endpoint.Addr())
}

// stream reads frames off conn until the stream breaks or ctx is cancelled.
// The socket is always closed on the way out; cancellation closes it early
// to unblock any in-flight read.
func (r *Receiver) stream(ctx context.Context, conn net.Conn, session string) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-streamCtx.Done()
		_ = conn.Close()
	}()

	addr := r.endpoint.Addr()

	for {
		frame, err := wire.ReadFrame(conn)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			kind := kindClosed
			if errors.Is(err, wire.ErrProtocolCorruption) {
				kind = kindProtocol
			}
			metrics.RecordReceiverError(addr, kind)
			r.logger.Error(ctx, "error reading frame",
				logger.String("endpoint", addr),
				logger.String("session", session),
				logger.Error(err),
			)
			return
		}

		rec, err := fits.Reconstruct(frame)
		if err != nil {
			// A frame that decodes wrongly means the stream can no longer
			// be trusted; drop the connection like a corrupted one.
			metrics.RecordReceiverError(addr, kindDecode)
			r.logger.Error(ctx, "error reconstructing image",
				logger.String("endpoint", addr),
				logger.String("session", session),
				logger.Error(err),
			)
			return
		}
		rec.Source = addr

		metrics.RecordFrameReceived(addr)
		metrics.RecordBytesRead(addr, frame.Size())

		if !r.queue.Enqueue(ctx, rec) {
			return
		}
	}
}
