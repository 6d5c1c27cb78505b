package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Handle-table metrics
	HandlesOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pclient_handles_open",
			Help: "Live handle count by table (file, key, open_path)",
		},
		[]string{"table"},
	)

	HandleAllocFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pclient_handle_alloc_failures_total",
			Help: "Total handle allocation failures by table, returned as max-handle",
		},
		[]string{"table"},
	)

	// KV access metrics
	KVOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pclient_kv_operations_total",
			Help: "Total key-value operations by kind (read, write, size, delete) and backend",
		},
		[]string{"kind", "backend"},
	)

	KVOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pclient_kv_operation_duration_seconds",
			Help:    "Key-value operation duration in seconds by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// File backup metrics
	BackupSidecarsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pclient_backup_sidecars_created_total",
			Help: "Total backup sidecar files created on first write",
		},
	)

	BackupRecoveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pclient_backup_recoveries_total",
			Help: "Total crash-recovery outcomes by result (restored, kept_original, no_sidecar)",
		},
		[]string{"result"},
	)

	// Notification metrics
	NotifySignalsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pclient_notify_signals_emitted_total",
			Help: "Total change signals emitted on the bus by status (changed, created, deleted)",
		},
		[]string{"status"},
	)

	NotifyCallbacksInvokedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pclient_notify_callbacks_invoked_total",
			Help: "Total times the registered application callback was invoked",
		},
	)

	// Event loop metrics
	LoopCommandQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pclient_loop_command_queue_depth",
			Help: "Current depth of the event loop's command pipe",
		},
	)

	LoopCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pclient_loop_command_duration_seconds",
			Help:    "Event loop command processing duration in seconds by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Access-lock and lifecycle metrics
	AccessLocked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pclient_access_locked",
			Help: "Whether the global access lock is currently held (1) or not (0)",
		},
	)

	InitRefCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pclient_init_refcount",
			Help: "Current process-wide init/deinit reference count",
		},
	)

	// Plugin gateway metrics
	PluginSlotsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pclient_plugin_slots_loaded",
			Help: "Number of plugin slots currently resolved and initialized",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HandlesOpen,
		HandleAllocFailuresTotal,
		KVOperationsTotal,
		KVOperationDuration,
		BackupSidecarsCreatedTotal,
		BackupRecoveriesTotal,
		NotifySignalsEmittedTotal,
		NotifyCallbacksInvokedTotal,
		LoopCommandQueueDepth,
		LoopCommandDuration,
		AccessLocked,
		InitRefCount,
		PluginSlotsLoaded,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer times a single operation and reports its duration to a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a labeled histogram vec.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
