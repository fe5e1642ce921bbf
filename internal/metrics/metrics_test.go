package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Received("udp")
	m.Received("udp")
	m.Written()
	m.Dropped("rate_limited")
	m.ReceiveError()
	m.SetQueueDepth(3)
	m.SetTrackedClients(2)
	m.ObserveProcess(0.001)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DatagramsReceived.WithLabelValues("udp")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsDropped.WithLabelValues("rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReceiveErrors))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.QueueDepth))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TrackedClients))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Received("udp")
		m.Written()
		m.Dropped("x")
		m.ReceiveError()
		m.SetQueueDepth(1)
		m.SetTrackedClients(1)
		m.ObserveProcess(1)
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
