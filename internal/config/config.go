// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr configures the Prometheus listen address, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// Endpoints lists the telescope data sources as host:port pairs.
	Endpoints []string `koanf:"endpoints"`

	// RecordQueueSize buffers the shared record queue between the
	// receivers and the merger.
	RecordQueueSize int `koanf:"record_queue_size"`

	// BatchQueueSize buffers completed batches awaiting the consumer.
	BatchQueueSize int `koanf:"batch_queue_size"`

	// RetryDelayMS is the wait between failed connect attempts.
	RetryDelayMS int `koanf:"retry_delay_ms"`

	// DialTimeoutMS bounds a single connect attempt.
	DialTimeoutMS int `koanf:"dial_timeout_ms"`
}

// New creates a Config with defaults. The endpoint list mirrors the six
// AARTFAAC stream ports the pipeline historically listened to.
func New() *Config {
	c := &Config{
		LogLevel:        "info",
		MetricsAddr:     ":9090",
		Endpoints:       defaultEndpoints(),
		RecordQueueSize: 100_000,
		BatchQueueSize:  1024,
		RetryDelayMS:    5000,
		DialTimeoutMS:   10_000,
	}
	return c
}

func defaultEndpoints() []string {
	return []string{
		"localhost:6666",
		"localhost:6667",
		"localhost:6668",
		"localhost:6669",
		"localhost:6670",
		"localhost:6671",
	}
}
