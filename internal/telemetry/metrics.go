// Package telemetry provides the pipeline's Prometheus metrics and
// OpenTelemetry tracing setup (spec component C14, ambient observability
// stack).
//
// Grounded on Boddenberg-pj-assistant-bfa-go/internal/infra/observability/
// metrics.go's private-registry + promauto pattern (avoids "duplicate
// collector" panics across repeated construction, e.g. in tests).
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector the pipeline emits.
type Metrics struct {
	Registry *prometheus.Registry

	transactionsProcessed *prometheus.CounterVec
	fraudScoreHistogram   prometheus.Histogram
	stageLatency          *prometheus.HistogramVec
	stateStoreErrors      *prometheus.CounterVec
	velocityWriteFailures prometheus.Counter
	lateEvents            *prometheus.CounterVec
	sinkWriteFailures     *prometheus.CounterVec
	alertsEmitted         *prometheus.CounterVec
	alertsSuppressed      prometheus.Counter
	checkpointDuration    prometheus.Histogram
}

// New creates a dedicated registry and registers every collector in it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		transactionsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_scorer_transactions_processed_total",
			Help: "Total transactions processed, by decision.",
		}, []string{"decision"}),

		fraudScoreHistogram: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fraud_scorer_fraud_score",
			Help:    "Distribution of emitted fraud scores.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 10),
		}),

		stageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fraud_scorer_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),

		stateStoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_scorer_state_store_errors_total",
			Help: "Total state store call failures, by operation.",
		}, []string{"operation"}),

		velocityWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "fraud_scorer_velocity_write_failures_total",
			Help: "Total velocity counter write failures.",
		}),

		lateEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_scorer_late_events_total",
			Help: "Total events dropped as late, by aggregate.",
		}, []string{"aggregate"}),

		sinkWriteFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_scorer_sink_write_failures_total",
			Help: "Total sink write failures after exhausting retries, by sink.",
		}, []string{"sink"}),

		alertsEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_scorer_alerts_emitted_total",
			Help: "Total alerts emitted, by risk level.",
		}, []string{"risk_level"}),

		alertsSuppressed: f.NewCounter(prometheus.CounterOpts{
			Name: "fraud_scorer_alerts_suppressed_total",
			Help: "Total alerts suppressed by the rate limiter.",
		}),

		checkpointDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fraud_scorer_checkpoint_duration_seconds",
			Help:    "Duration of each checkpoint barrier.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) RecordTransaction(decision string, score float64) {
	m.transactionsProcessed.WithLabelValues(decision).Inc()
	m.fraudScoreHistogram.Observe(score)
}

func (m *Metrics) RecordStageLatency(stage string, d time.Duration) {
	m.stageLatency.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) IncrStateStoreError(operation string) {
	m.stateStoreErrors.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrVelocityWriteFailure() {
	m.velocityWriteFailures.Inc()
}

func (m *Metrics) IncrLateEvent(aggregate string) {
	m.lateEvents.WithLabelValues(aggregate).Inc()
}

func (m *Metrics) IncrSinkWriteFailure(sink string) {
	m.sinkWriteFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) IncrAlertEmitted(riskLevel string) {
	m.alertsEmitted.WithLabelValues(riskLevel).Inc()
}

func (m *Metrics) IncrAlertSuppressed() {
	m.alertsSuppressed.Inc()
}

func (m *Metrics) RecordCheckpointDuration(d time.Duration) {
	m.checkpointDuration.Observe(d.Seconds())
}
