// Package metrics provides Prometheus metrics for the skystream ingest service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the ingest pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Receiver metrics - per-endpoint ingest health
	framesReceived     *prometheus.CounterVec
	bytesRead          *prometheus.CounterVec
	receiverErrors     *prometheus.CounterVec
	reconnects         *prometheus.CounterVec
	connectedReceivers prometheus.Gauge

	// Queue metrics - shared record queue and outgoing batch queue
	queueDepth         *prometheus.GaugeVec
	queueCapacity      *prometheus.GaugeVec
	queueEnqueueTotal  *prometheus.CounterVec
	queueDequeueTotal  *prometheus.CounterVec
	queueEnqueueErrors *prometheus.CounterVec

	// Merger metrics - grouping behavior
	batchesEmitted    prometheus.Counter
	batchSize         prometheus.Histogram
	orderingAnomalies prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Registry returns the registry backing the global manager, for serving
// with promhttp.
func Registry() *prometheus.Registry {
	return customRegistry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skystream",
		subsystem:        "ingest",
		histogramBuckets: []float64{1, 2, 4, 6, 8, 12, 16, 24, 32, 48, 64},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.framesReceived = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "frames_received_total",
			Help:      "Total number of frames successfully decoded, by endpoint",
		},
		[]string{"endpoint"},
	)

	m.bytesRead = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "bytes_read_total",
			Help:      "Total number of payload bytes read off the wire, by endpoint",
		},
		[]string{"endpoint"},
	)

	m.receiverErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "receiver_errors_total",
			Help:      "Total number of receiver errors by endpoint and kind (connect, closed, protocol, decode)",
		},
		[]string{"endpoint", "kind"},
	)

	m.reconnects = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "reconnects_total",
			Help:      "Total number of connection attempts after the first, by endpoint",
		},
		[]string{"endpoint"},
	)

	m.connectedReceivers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "connected_receivers",
		Help:      "Number of receivers currently in the streaming state",
	})

	m.queueDepth = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "queue_depth",
			Help:      "Current number of items in a queue",
		},
		[]string{"queue"},
	)

	m.queueCapacity = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "queue_capacity",
			Help:      "Maximum capacity of a queue",
		},
		[]string{"queue"},
	)

	m.queueEnqueueTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "queue_enqueue_total",
			Help:      "Total number of items enqueued",
		},
		[]string{"queue"},
	)

	m.queueDequeueTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "queue_dequeue_total",
			Help:      "Total number of items dequeued",
		},
		[]string{"queue"},
	)

	m.queueEnqueueErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "queue_enqueue_errors_total",
			Help:      "Total number of rejected enqueues (queue closed or full)",
		},
		[]string{"queue"},
	)

	m.batchesEmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_emitted_total",
		Help:      "Total number of timestamp-aligned batches emitted by the merger",
	})

	m.batchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_size_records",
		Help:      "Histogram of records per emitted batch",
		Buckets:   m.histogramBuckets,
	})

	m.orderingAnomalies = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ordering_anomalies_total",
		Help:      "Total number of records observed with a timestamp older than the current group",
	})
}

// Receiver metric recording functions.

func RecordFrameReceived(endpoint string) {
	if globalManager.enabled {
		globalManager.framesReceived.WithLabelValues(endpoint).Inc()
	}
}

func RecordBytesRead(endpoint string, n int) {
	if globalManager.enabled {
		globalManager.bytesRead.WithLabelValues(endpoint).Add(float64(n))
	}
}

func RecordReceiverError(endpoint, kind string) {
	if globalManager.enabled {
		globalManager.receiverErrors.WithLabelValues(endpoint, kind).Inc()
	}
}

func RecordReconnect(endpoint string) {
	if globalManager.enabled {
		globalManager.reconnects.WithLabelValues(endpoint).Inc()
	}
}

func ReceiverConnected() {
	if globalManager.enabled {
		globalManager.connectedReceivers.Inc()
	}
}

func ReceiverDisconnected() {
	if globalManager.enabled {
		globalManager.connectedReceivers.Dec()
	}
}

// Queue metric recording functions.

func UpdateQueueDepth(queue string, depth int) {
	if globalManager.enabled {
		globalManager.queueDepth.WithLabelValues(queue).Set(float64(depth))
	}
}

func UpdateQueueCapacity(queue string, capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.WithLabelValues(queue).Set(float64(capacity))
	}
}

func RecordQueueEnqueue(queue string) {
	if globalManager.enabled {
		globalManager.queueEnqueueTotal.WithLabelValues(queue).Inc()
	}
}

func RecordQueueDequeue(queue string) {
	if globalManager.enabled {
		globalManager.queueDequeueTotal.WithLabelValues(queue).Inc()
	}
}

func RecordQueueEnqueueError(queue string) {
	if globalManager.enabled {
		globalManager.queueEnqueueErrors.WithLabelValues(queue).Inc()
	}
}

// Merger metric recording functions.

func RecordBatchEmitted(size int) {
	if globalManager.enabled {
		globalManager.batchesEmitted.Inc()
		globalManager.batchSize.Observe(float64(size))
	}
}

func RecordOrderingAnomaly() {
	if globalManager.enabled {
		globalManager.orderingAnomalies.Inc()
	}
}
