package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	app "github.com/okian/skystream/internal/app"
	"github.com/okian/skystream/internal/config"
	"github.com/okian/skystream/pkg/logger"
	"github.com/okian/skystream/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Error(ctx, "invalid log level", logger.Error(err))
		return
	}

	endpoints, err := cfg.ParsedEndpoints()
	if err != nil {
		log.Error(ctx, "invalid endpoints", logger.Error(err))
		return
	}

	// Prometheus endpoint on the custom registry.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		log.Info(ctx, "serving metrics", logger.String("addr", cfg.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()

	svc := app.New(
		app.WithEndpoints(endpoints),
		app.WithRecordQueueSize(cfg.RecordQueueSize),
		app.WithBatchQueueSize(cfg.BatchQueueSize),
		app.WithRetryDelay(time.Duration(cfg.RetryDelayMS)*time.Millisecond),
		app.WithDialTimeout(time.Duration(cfg.DialTimeoutMS)*time.Millisecond),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start ingest service", logger.Error(err))
		return
	}

	// Drain batches until shutdown. Downstream pipeline stages hook in
	// here; for the bare daemon we log what arrived, which matches what
	// operators watch during commissioning.
	batches := svc.Batches()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case batch, ok := <-batches:
			if !ok {
				break loop
			}
			log.Info(ctx, "batch ready",
				logger.Time("timestamp", batch.Timestamp),
				logger.Int("records", batch.Size()),
				logger.String("id", batch.ID.String()),
			)
		}
	}

	log.Info(ctx, "shutting down")
	svc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "metrics server shutdown failed", logger.Error(err))
	}
}
