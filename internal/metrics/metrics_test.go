package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestServiceMetrics(t *testing.T) {
	buffered := 1
	m := NewServiceMetrics(prometheus.NewRegistry(), func() int { return buffered })

	m.RecordAccepted(false)
	m.RecordAccepted(true)
	m.RecordRejected(ReasonInvalidJSON)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.accepted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evicted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.buffered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues(ReasonInvalidJSON)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.rejected.WithLabelValues(ReasonTooLarge)))
}

func TestBufferedGaugeReadsAtScrapeTime(t *testing.T) {
	buffered := 3
	m := NewServiceMetrics(prometheus.NewRegistry(), func() int { return buffered })
	assert.Equal(t, 3.0, testutil.ToFloat64(m.buffered))

	buffered = 0
	assert.Equal(t, 0.0, testutil.ToFloat64(m.buffered))
}

func TestSenderMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSenderMetrics(reg)

	m.RecordSend(OutcomeSent)
	m.RecordSend(OutcomeSent)
	m.RecordSend(OutcomeRejected)
	m.RecordDelay(2 * time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sends.WithLabelValues(OutcomeSent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sends.WithLabelValues(OutcomeRejected)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.delays))
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewServiceMetrics(prometheus.NewRegistry(), func() int { return 0 })
		NewServiceMetrics(prometheus.NewRegistry(), func() int { return 0 })
	})
}
