package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the submission pipeline. It is
// passed explicitly to the components that record into it; a nil *Metrics
// records nothing.
type Metrics struct {
	// Node client
	nodeRequestsTotal   *prometheus.CounterVec
	nodeRequestDuration *prometheus.HistogramVec

	// Fees
	feeRecommendedDrops prometheus.Gauge
	feeFallbacksTotal   prometheus.Counter

	// Submissions
	submissionsTotal      *prometheus.CounterVec
	submissionRetries     *prometheus.CounterVec
	submissionWait        *prometheus.HistogramVec
	idempotencyRejections prometheus.Counter

	// Side outputs
	journalWritesTotal   *prometheus.CounterVec
	eventsPublishedTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		nodeRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xrplgate_node_requests_total",
				Help: "Total number of node requests by command and status",
			},
			[]string{"command", "status"},
		),
		nodeRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xrplgate_node_request_duration_seconds",
				Help:    "Duration of node requests in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"command"},
		),
		feeRecommendedDrops: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "xrplgate_fee_recommended_drops",
				Help: "Last recommended transaction fee in drops",
			},
		),
		feeFallbacksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "xrplgate_fee_fallbacks_total",
				Help: "Total number of fee recommendations that used the fallback fee",
			},
		),
		submissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xrplgate_submissions_total",
				Help: "Total number of finished submissions by transaction type and result code",
			},
			[]string{"tx_type", "result"},
		),
		submissionRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xrplgate_submission_retries_total",
				Help: "Total number of rebuild-and-resubmit attempts after an expired window",
			},
			[]string{"tx_type"},
		),
		submissionWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xrplgate_submission_wait_seconds",
				Help:    "Time from submit until the transaction was validated or expired",
				Buckets: []float64{1, 2, 4, 6, 10, 20, 40, 80},
			},
			[]string{"tx_type"},
		),
		idempotencyRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "xrplgate_idempotency_rejections_total",
				Help: "Total number of submissions refused because their idempotency key was used",
			},
		),
		journalWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xrplgate_journal_writes_total",
				Help: "Total number of submission journal writes",
			},
			[]string{"status"},
		),
		eventsPublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xrplgate_events_published_total",
				Help: "Total number of outcome events published",
			},
			[]string{"status"},
		),
	}
}

// ObserveNodeRequest records one node request.
func (m *Metrics) ObserveNodeRequest(command, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.nodeRequestsTotal.WithLabelValues(command, status).Inc()
	m.nodeRequestDuration.WithLabelValues(command).Observe(d.Seconds())
}

// RecordFee records a fee recommendation.
func (m *Metrics) RecordFee(drops uint64, fallback bool) {
	if m == nil {
		return
	}
	m.feeRecommendedDrops.Set(float64(drops))
	if fallback {
		m.feeFallbacksTotal.Inc()
	}
}

// RecordSubmission records a finished submission.
func (m *Metrics) RecordSubmission(txType, result string, wait time.Duration) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(txType, result).Inc()
	m.submissionWait.WithLabelValues(txType).Observe(wait.Seconds())
}

// RecordRetry records a rebuild after an expired window.
func (m *Metrics) RecordRetry(txType string) {
	if m == nil {
		return
	}
	m.submissionRetries.WithLabelValues(txType).Inc()
}

// RecordIdempotencyRejection records a refused duplicate.
func (m *Metrics) RecordIdempotencyRejection() {
	if m == nil {
		return
	}
	m.idempotencyRejections.Inc()
}

// RecordJournalWrite records a journal write.
func (m *Metrics) RecordJournalWrite(err error) {
	if m == nil {
		return
	}
	m.journalWritesTotal.WithLabelValues(statusOf(err)).Inc()
}

// RecordEventPublish records an event publish.
func (m *Metrics) RecordEventPublish(err error) {
	if m == nil {
		return
	}
	m.eventsPublishedTotal.WithLabelValues(statusOf(err)).Inc()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// WriteTextfile writes the registry's current values in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return errors.New("metrics textfile path is empty")
	}
	return prometheus.WriteToTextfile(path, g)
}
