// Package metrics defines the Prometheus collectors for the ingestion pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "udplog"

// Metrics groups the pipeline collectors.
type Metrics struct {
	// DatagramsReceived counts records handed to the pipeline, labelled by input type.
	DatagramsReceived *prometheus.CounterVec

	// RecordsWritten counts lines appended to the log file.
	RecordsWritten prometheus.Counter

	// RecordsDropped counts rejected records by reason
	// (decode_error, empty_message, malformed_format, invalid_level, rate_limited, write_error, queue_full, too_large).
	RecordsDropped *prometheus.CounterVec

	// ReceiveErrors counts failed socket reads.
	ReceiveErrors prometheus.Counter

	// QueueDepth is the number of datagrams waiting for a worker.
	QueueDepth prometheus.Gauge

	// TrackedClients is the size of the rate limiter client table.
	TrackedClients prometheus.Gauge

	// ProcessDuration observes parse-to-append latency in seconds.
	ProcessDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DatagramsReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datagrams_received_total",
			Help:      "Records received by the ingestion pipeline.",
		}, []string{"input"}),
		RecordsWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Records appended to the log file.",
		}),
		RecordsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Records dropped, by reason.",
		}, []string{"reason"}),
		ReceiveErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receive_errors_total",
			Help:      "Socket receive errors.",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Datagrams waiting for a worker.",
		}),
		TrackedClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_limit_tracked_clients",
			Help:      "Clients held in the rate limiter table.",
		}),
		ProcessDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_duration_seconds",
			Help:      "Time to parse, rate-limit, format and append one record.",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		}),
	}
}

func (m *Metrics) Received(input string) {
	if m == nil {
		return
	}
	m.DatagramsReceived.WithLabelValues(input).Inc()
}

func (m *Metrics) Written() {
	if m == nil {
		return
	}
	m.RecordsWritten.Inc()
}

func (m *Metrics) Dropped(reason string) {
	if m == nil {
		return
	}
	m.RecordsDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) ReceiveError() {
	if m == nil {
		return
	}
	m.ReceiveErrors.Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) SetTrackedClients(n int) {
	if m == nil {
		return
	}
	m.TrackedClients.Set(float64(n))
}

func (m *Metrics) ObserveProcess(seconds float64) {
	if m == nil {
		return
	}
	m.ProcessDuration.Observe(seconds)
}
