package receiver

import (
	"time"

	"github.com/okian/skystream/pkg/logger"
)

// Option applies a configuration option to the Receiver.
type Option func(*Receiver)

// WithRetryDelay sets the wait between failed connect attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(r *Receiver) {
		if d > 0 {
			r.retryDelay = d
		}
	}
}

// WithDialTimeout bounds a single connect attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(r *Receiver) {
		if d > 0 {
			r.dialTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the receiver.
func WithLogger(l logger.Logger) Option {
	return func(r *Receiver) {
		if l != nil {
			r.logger = l
		}
	}
}
