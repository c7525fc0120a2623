// Package metrics provides Prometheus metrics for the rankboard leaderboard.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultLatencyBuckets spans sub-microsecond index hits up to slow bulk operations.
var defaultLatencyBuckets = []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 5000, 25000} //nolint:gochecknoglobals // read-only defaults

// Manager manages all Prometheus metrics for the leaderboard.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	constLabels    map[string]string
	registry       prometheus.Registerer

	// Index operations
	operations       *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
	entriesTotal     prometheus.Gauge
	levelCount       prometheus.Gauge
	maxLevel         prometheus.Gauge

	// Load pipeline: queue
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Load pipeline: worker
	workerProcessed prometheus.Counter
	workerErrors    prometheus.Counter
	workerLatency   prometheus.Histogram

	// Load pipeline: loader
	loaderRecords  *prometheus.CounterVec
	loaderDuration prometheus.Histogram

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "rankboard",
		subsystem:      "leaderboard",
		latencyBuckets: defaultLatencyBuckets,
		constLabels:    make(map[string]string),
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.latencyBuckets}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.operations = auto.NewCounterVec(
		m.counterOpts("operations_total", "Index operations by operation and outcome"),
		[]string{"operation", "outcome"},
	)
	m.operationLatency = auto.NewHistogramVec(
		m.histogramOpts("operation_latency_microseconds", "Index operation latency in microseconds"),
		[]string{"operation"},
	)
	m.entriesTotal = auto.NewGauge(m.gaugeOpts("entries_total", "Number of entries in the leaderboard"))
	m.levelCount = auto.NewGauge(m.gaugeOpts("skiplist_levels", "Number of skip list levels currently in use"))
	m.maxLevel = auto.NewGauge(m.gaugeOpts("skiplist_max_levels", "Configured skip list level cap"))

	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum load queue capacity"))
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of queued load records"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of records enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of records dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of rejected enqueues"))

	m.workerProcessed = auto.NewCounter(m.counterOpts("worker_processed_total", "Total number of records applied by the load worker"))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of records the load worker failed to apply"))
	m.workerLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_microseconds", "Load worker per-record latency in microseconds"))

	m.loaderRecords = auto.NewCounterVec(
		m.counterOpts("loader_records_total", "CSV records read by result"),
		[]string{"result"},
	)
	m.loaderDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "loader_duration_seconds",
		Help:        "Duration of whole CSV loads in seconds",
		ConstLabels: m.constLabels,
		Buckets:     prometheus.DefBuckets,
	})

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
}

// RecordOperation increments the operation counter for an outcome.
func RecordOperation(operation, outcome string) {
	globalManager.operations.WithLabelValues(operation, outcome).Inc()
}

// RecordOperationLatency records index operation latency in microseconds.
func RecordOperationLatency(operation string, latencyUs float64) {
	globalManager.operationLatency.WithLabelValues(operation).Observe(latencyUs)
}

// UpdateEntriesTotal sets the number of leaderboard entries.
func UpdateEntriesTotal(count int) {
	globalManager.entriesTotal.Set(float64(count))
}

// UpdateLevels sets the skip list level gauges.
func UpdateLevels(current, limit int) {
	globalManager.levelCount.Set(float64(current))
	globalManager.maxLevel.Set(float64(limit))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordWorkerProcessed increments the worker processed counter.
func RecordWorkerProcessed() {
	globalManager.workerProcessed.Inc()
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordWorkerProcessingLatency records worker latency in microseconds.
func RecordWorkerProcessingLatency(latencyUs float64) {
	globalManager.workerLatency.Observe(latencyUs)
}

// RecordLoaderRecord counts one CSV record by result ("applied", "malformed").
func RecordLoaderRecord(result string) {
	globalManager.loaderRecords.WithLabelValues(result).Inc()
}

// RecordLoaderDuration records the duration of a whole load in seconds.
func RecordLoaderDuration(seconds float64) {
	globalManager.loaderDuration.Observe(seconds)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the current metrics in the text exposition format to path.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}
