// Command test-frames emulates one telescope data source: it listens on a
// TCP port and streams synthetic image frames in the ingest wire format.
// Run several instances with the same -start value to exercise merging.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/skystream/internal/teststream"
	"github.com/okian/skystream/pkg/logger"
)

func main() {
	listen := flag.String("listen", "127.0.0.1:6666", "address to listen on")
	grid := flag.Int("grid", 64, "image width and height in pixels")
	count := flag.Int("count", 0, "frames per connection, 0 streams forever")
	interval := flag.Duration("interval", time.Second, "observation-time step between frames")
	cadence := flag.Duration("cadence", time.Second, "real-time delay between frames")
	start := flag.String("start", "", "timestamp of the first frame (RFC3339), defaults to now")
	seed := flag.Int64("seed", 1, "pixel noise seed")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []teststream.EmitterOption{
		teststream.WithGrid(*grid, *grid),
		teststream.WithInterval(*interval),
		teststream.WithCadence(*cadence),
		teststream.WithSeed(*seed),
	}
	if *count > 0 {
		opts = append(opts, teststream.WithFrameCount(*count))
	}
	if *start != "" {
		t, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			log.Error(ctx, "invalid -start", logger.Error(err))
			return
		}
		opts = append(opts, teststream.WithStartTime(t))
	}

	em, err := teststream.NewEmitter(*listen, opts...)
	if err != nil {
		log.Error(ctx, "failed to listen", logger.Error(err))
		return
	}

	log.Info(ctx, "emitting frames",
		logger.String("addr", em.Addr()),
		logger.Int("grid", *grid),
		logger.Int("count", *count),
	)
	em.Serve(ctx)
}
