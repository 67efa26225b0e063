package teststream

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/okian/skystream/internal/adapters/wire"
	"github.com/okian/skystream/internal/domain/model"
	"github.com/okian/skystream/pkg/logger"
)

// Default emitter configuration constants.
const (
	defaultGridSize = 8
	defaultInterval = time.Second
)

// Emitter serves generated frames over TCP to every client that connects.
// Multiple emitters constructed with the same start time produce identical
// timestamp sequences, which is what makes downstream merging observable.
type Emitter struct {
	ln net.Listener

	width      int
	height     int
	seed       int64
	frameCount int           // frames per connection; 0 means stream forever
	interval   time.Duration // timestamp step between consecutive frames
	cadence    time.Duration // real delay between writes; 0 writes back-to-back
	start      time.Time

	wg sync.WaitGroup

	logger logger.Logger
}

// EmitterOption applies a configuration option to the Emitter.
type EmitterOption func(*Emitter)

// WithGrid sets the generated image dimensions.
func WithGrid(width, height int) EmitterOption {
	return func(e *Emitter) {
		if width > 0 && height > 0 {
			e.width = width
			e.height = height
		}
	}
}

// WithSeed sets the pixel noise seed.
func WithSeed(seed int64) EmitterOption {
	return func(e *Emitter) {
		e.seed = seed
	}
}

// WithFrameCount limits how many frames each connection receives. The
// connection is then held open so clients block instead of reconnecting.
func WithFrameCount(n int) EmitterOption {
	return func(e *Emitter) {
		if n > 0 {
			e.frameCount = n
		}
	}
}

// WithInterval sets the observation-time step between consecutive frames.
func WithInterval(d time.Duration) EmitterOption {
	return func(e *Emitter) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithCadence sets a real-time delay between frame writes.
func WithCadence(d time.Duration) EmitterOption {
	return func(e *Emitter) {
		if d > 0 {
			e.cadence = d
		}
	}
}

// WithStartTime pins the timestamp of the first frame. Emitters sharing a
// start time emit the same DATE-OBS sequence.
func WithStartTime(t time.Time) EmitterOption {
	return func(e *Emitter) {
		e.start = t
	}
}

// NewEmitter listens on addr (use "127.0.0.1:0" for an ephemeral port).
func NewEmitter(addr string, opts ...EmitterOption) (*Emitter, error) {
	e := &Emitter{
		width:    defaultGridSize,
		height:   defaultGridSize,
		seed:     1,
		interval: defaultInterval,
		start:    time.Now().UTC().Truncate(time.Second),
		logger:   logger.Get().Named("teststream"),
	}

	for _, opt := range opts {
		opt(e)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	e.ln = ln
	return e, nil
}

// Endpoint returns the endpoint clients should dial.
func (e *Emitter) Endpoint() (model.Endpoint, error) {
	return model.ParseEndpoint(e.ln.Addr().String())
}

// Addr returns the bound listen address.
func (e *Emitter) Addr() string {
	return e.ln.Addr().String()
}

// Serve accepts connections until ctx is cancelled, streaming frames to
// each. It returns after the listener closes and all connections drain.
func (e *Emitter) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		_ = e.ln.Close()
	}()

	for {
		conn, err := e.ln.Accept()
		if err != nil {
			e.wg.Wait()
			return
		}

		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.serveConn(ctx, conn)
		}()
	}
}

func (e *Emitter) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	gen := NewGenerator(e.width, e.height, e.seed)

	for i := 0; e.frameCount == 0 || i < e.frameCount; i++ {
		ts := e.start.Add(time.Duration(i) * e.interval)
		if err := wire.WriteFrame(conn, gen.Frame(ts)); err != nil {
			e.logger.Debug(ctx, "client went away", logger.Error(err))
			return
		}

		if e.cadence > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(e.cadence):
			}
		}
	}

	// Finite stream served; hold the connection open so the client blocks
	// on the next header instead of entering its reconnect loop.
	<-ctx.Done()
}
