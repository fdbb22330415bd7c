package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	fetchAttempts     *prometheus.CounterVec
	sourceOutcomes    *prometheus.CounterVec
	sourceRecords     *prometheus.GaugeVec
	sourceLatency     *prometheus.HistogramVec
	validationRejects *prometheus.CounterVec
	passDuration      *prometheus.HistogramVec
	quotaUsed         prometheus.Gauge
}

// New creates the Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipopulse_fetch_attempts_total",
				Help: "Total fetch attempts per source, including retries",
			},
			[]string{"source"},
		),
		sourceOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipopulse_source_outcomes_total",
				Help: "Adapter call outcomes per source and operation",
			},
			[]string{"source", "operation", "outcome"},
		),
		sourceRecords: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ipopulse_source_records",
				Help: "Records returned by the most recent adapter call",
			},
			[]string{"source", "operation"},
		),
		sourceLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ipopulse_source_latency_seconds",
				Help:    "Adapter call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		validationRejects: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipopulse_validation_rejects_total",
				Help: "Records rejected by the corruption filter, by reason",
			},
			[]string{"reason"},
		),
		passDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ipopulse_pass_duration_seconds",
				Help:    "End-to-end aggregation pass duration",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
		quotaUsed: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ipopulse_quota_used",
				Help: "Requests consumed from the rate-limited source's daily budget",
			},
		),
	}
}

func (r *Recorder) RecordFetchAttempt(source string, _ int) {
	r.fetchAttempts.WithLabelValues(source).Inc()
}

func (r *Recorder) RecordSourceOutcome(source, operation, outcome string, records int, seconds float64) {
	r.sourceOutcomes.WithLabelValues(source, operation, outcome).Inc()
	r.sourceRecords.WithLabelValues(source, operation).Set(float64(records))
	r.sourceLatency.WithLabelValues(source).Observe(seconds)
}

func (r *Recorder) RecordValidationReject(reason string) {
	r.validationRejects.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordPassDuration(operation string, seconds float64) {
	r.passDuration.WithLabelValues(operation).Observe(seconds)
}

func (r *Recorder) RecordQuotaUsed(used int) {
	r.quotaUsed.Set(float64(used))
}
