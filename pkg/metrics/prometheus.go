// Package metrics provides Prometheus metrics for the ANU coordination core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the coordination core.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Event bus metrics
	busPublished  *prometheus.CounterVec
	busDropped    prometheus.Counter
	busEmergency  prometheus.Counter
	busDepth      prometheus.Gauge
	busCapacity   prometheus.Gauge

	// Scheduler metrics
	turnsCompleted     prometheus.Counter
	turnsAborted       prometheus.Counter
	preemptions        prometheus.Counter
	emergencyConflicts prometheus.Counter
	handlerFallbacks   *prometheus.CounterVec
	handlerLatency     prometheus.Histogram

	// Pronunciation scoring metrics
	phonemeErrorRate prometheus.Histogram
	scoringFailures  prometheus.Counter

	// Policy metrics
	actionsSelected *prometheus.CounterVec
	explorations    prometheus.Counter
	replaySteps     prometheus.Counter
	snapshotErrors  prometheus.Counter

	// Sync metrics
	syncPending  prometheus.Gauge
	syncSent     prometheus.Counter
	syncFailed   prometheus.Counter
	syncRetries  prometheus.Counter
	flushLatency prometheus.Histogram
	remoteOnline prometheus.Gauge

	// Notification metrics
	notifySent       prometheus.Counter
	notifyUnresolved prometheus.Counter
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
		namespace:        "anu",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.busPublished = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "bus_events_published_total",
			Help:      "Total number of events accepted by the event bus, by kind",
		},
		[]string{"kind"},
	)

	m.busDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bus_events_dropped_total",
		Help:      "Total number of events rejected by the bus (capacity or closed)",
	})

	m.busEmergency = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bus_emergency_bypass_total",
		Help:      "Total number of emergency events routed around the priority queue",
	})

	m.busDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bus_depth",
		Help:      "Current number of queued events (backlog indicator)",
	})

	m.busCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bus_capacity",
		Help:      "Maximum number of events the bus will hold",
	})

	m.turnsCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduler_turns_completed_total",
		Help:      "Total number of lesson turns completed end to end",
	})

	m.turnsAborted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduler_turns_aborted_total",
		Help:      "Total number of lesson turns cancelled before committing",
	})

	m.preemptions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduler_preemptions_total",
		Help:      "Total number of handlers interrupted by an emergency event",
	})

	m.emergencyConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduler_emergency_conflicts_total",
		Help:      "Total number of emergency events superseded by an earlier one",
	})

	m.handlerFallbacks = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "scheduler_handler_fallbacks_total",
			Help:      "Total number of degraded fallback actions taken, by collaborator",
		},
		[]string{"collaborator"},
	)

	m.handlerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scheduler_handler_latency_milliseconds",
		Help:      "Histogram of handler execution latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.phonemeErrorRate = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_phoneme_error_rate",
		Help:      "Histogram of phoneme error rate per scored utterance",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	m.scoringFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_failures_total",
		Help:      "Total number of utterances rejected as invalid input",
	})

	m.actionsSelected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "policy_actions_selected_total",
			Help:      "Total number of teaching actions selected, by action",
		},
		[]string{"action"},
	)

	m.explorations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "policy_explorations_total",
		Help:      "Total number of actions chosen by exploration rather than greedily",
	})

	m.replaySteps = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "policy_replay_steps_total",
		Help:      "Total number of experience-replay training steps performed",
	})

	m.snapshotErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "policy_snapshot_errors_total",
		Help:      "Total number of policy snapshot persistence failures",
	})

	m.syncPending = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sync_pending_records",
		Help:      "Current number of outcome records waiting for the remote store",
	})

	m.syncSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sync_records_sent_total",
		Help:      "Total number of outcome records acknowledged by the remote store",
	})

	m.syncFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sync_records_failed_total",
		Help:      "Total number of flush attempts that ended in failure",
	})

	m.syncRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sync_retries_total",
		Help:      "Total number of record retransmissions after transient failures",
	})

	m.flushLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sync_flush_latency_milliseconds",
		Help:      "Histogram of full flush pass latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.remoteOnline = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "remote_online",
		Help:      "Whether the last reachability probe succeeded (1) or failed (0)",
	})

	m.notifySent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_sent_total",
		Help:      "Total number of emergency notifications delivered",
	})

	m.notifyUnresolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_unresolved_total",
		Help:      "Total number of emergency notifications abandoned after retries",
	})
}

// Event bus metric functions.

// RecordBusPublish increments the published counter for an event kind.
func RecordBusPublish(kind string) {
	globalManager.busPublished.WithLabelValues(kind).Inc()
}

// RecordBusDrop increments the dropped events counter.
func RecordBusDrop() {
	globalManager.busDropped.Inc()
}

// RecordBusEmergencyBypass increments the emergency bypass counter.
func RecordBusEmergencyBypass() {
	globalManager.busEmergency.Inc()
}

// UpdateBusDepth sets the current bus depth.
func UpdateBusDepth(depth int) {
	globalManager.busDepth.Set(float64(depth))
}

// UpdateBusCapacity sets the configured bus capacity.
func UpdateBusCapacity(capacity int) {
	globalManager.busCapacity.Set(float64(capacity))
}

// Scheduler metric functions.

// RecordTurnCompleted increments the completed turns counter.
func RecordTurnCompleted() {
	globalManager.turnsCompleted.Inc()
}

// RecordTurnAborted increments the aborted turns counter.
func RecordTurnAborted() {
	globalManager.turnsAborted.Inc()
}

// RecordPreemption increments the preemption counter.
func RecordPreemption() {
	globalManager.preemptions.Inc()
}

// RecordEmergencyConflict increments the emergency conflict counter.
func RecordEmergencyConflict() {
	globalManager.emergencyConflicts.Inc()
}

// RecordHandlerFallback increments the fallback counter for a collaborator.
func RecordHandlerFallback(collaborator string) {
	globalManager.handlerFallbacks.WithLabelValues(collaborator).Inc()
}

// RecordHandlerLatency records handler execution latency.
func RecordHandlerLatency(latencyMs float64) {
	globalManager.handlerLatency.Observe(latencyMs)
}

// Scoring metric functions.

// RecordPhonemeErrorRate records the PER of a scored utterance.
func RecordPhonemeErrorRate(per float64) {
	globalManager.phonemeErrorRate.Observe(per)
}

// RecordScoringFailure increments the invalid-input counter.
func RecordScoringFailure() {
	globalManager.scoringFailures.Inc()
}

// Policy metric functions.

// RecordActionSelected increments the selection counter for an action.
func RecordActionSelected(action string) {
	globalManager.actionsSelected.WithLabelValues(action).Inc()
}

// RecordExploration increments the exploration counter.
func RecordExploration() {
	globalManager.explorations.Inc()
}

// RecordReplayStep increments the replay training step counter.
func RecordReplayStep() {
	globalManager.replaySteps.Inc()
}

// RecordSnapshotError increments the snapshot failure counter.
func RecordSnapshotError() {
	globalManager.snapshotErrors.Inc()
}

// Sync metric functions.

// UpdateSyncPending sets the number of records awaiting sync.
func UpdateSyncPending(count int) {
	globalManager.syncPending.Set(float64(count))
}

// RecordSyncSent increments the synced records counter.
func RecordSyncSent() {
	globalManager.syncSent.Inc()
}

// RecordSyncFailed increments the failed flush counter.
func RecordSyncFailed() {
	globalManager.syncFailed.Inc()
}

// RecordSyncRetry increments the retransmission counter.
func RecordSyncRetry() {
	globalManager.syncRetries.Inc()
}

// RecordFlushLatency records the latency of a full flush pass.
func RecordFlushLatency(latencyMs float64) {
	globalManager.flushLatency.Observe(latencyMs)
}

// UpdateRemoteOnline sets the reachability gauge.
func UpdateRemoteOnline(online bool) {
	if online {
		globalManager.remoteOnline.Set(1)
	} else {
		globalManager.remoteOnline.Set(0)
	}
}

// Notification metric functions.

// RecordNotificationSent increments the delivered notifications counter.
func RecordNotificationSent() {
	globalManager.notifySent.Inc()
}

// RecordNotificationUnresolved increments the abandoned notifications counter.
func RecordNotificationUnresolved() {
	globalManager.notifyUnresolved.Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
