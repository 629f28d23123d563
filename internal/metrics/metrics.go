package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const MetricsPrefix = "packetstream_"

// Rejection reasons reported by the ingestion service.
const (
	ReasonInvalidJSON = "invalid_json"
	ReasonTooLarge    = "too_large"
)

// Send outcomes reported by the sender.
const (
	OutcomeSent      = "sent"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport_error"
)

// ServiceMetrics holds the ingestion service collectors.
type ServiceMetrics struct {
	accepted prometheus.Counter
	evicted  prometheus.Counter
	rejected *prometheus.CounterVec
	buffered prometheus.GaugeFunc
}

// NewServiceMetrics registers the ingestion service collectors on reg.
// The buffered gauge calls buffered at scrape time, so it always matches
// the store rather than the last request that touched it.
func NewServiceMetrics(reg prometheus.Registerer, buffered func() int) *ServiceMetrics {
	factory := promauto.With(reg)
	return &ServiceMetrics{
		accepted: factory.NewCounter(prometheus.CounterOpts{
			Name: MetricsPrefix + "packages_accepted_total",
			Help: "Number of packages accepted by the ingestion service",
		}),
		evicted: factory.NewCounter(prometheus.CounterOpts{
			Name: MetricsPrefix + "packages_evicted_total",
			Help: "Number of buffered packages dropped to make room for newer ones",
		}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: MetricsPrefix + "packages_rejected_total",
			Help: "Number of accept requests rejected before buffering",
		}, []string{"reason"}),
		buffered: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: MetricsPrefix + "packages_buffered",
			Help: "Number of packages currently retained",
		}, func() float64 { return float64(buffered()) }),
	}
}

func (m *ServiceMetrics) RecordAccepted(evicted bool) {
	m.accepted.Inc()
	if evicted {
		m.evicted.Inc()
	}
}

func (m *ServiceMetrics) RecordRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// SenderMetrics holds the replay sender collectors.
type SenderMetrics struct {
	sends  *prometheus.CounterVec
	delays prometheus.Histogram
}

// NewSenderMetrics registers the sender collectors on reg.
func NewSenderMetrics(reg prometheus.Registerer) *SenderMetrics {
	factory := promauto.With(reg)
	return &SenderMetrics{
		sends: factory.NewCounterVec(prometheus.CounterOpts{
			Name: MetricsPrefix + "sender_sends_total",
			Help: "Number of send attempts by outcome",
		}, []string{"outcome"}),
		delays: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricsPrefix + "sender_delay_seconds",
			Help:    "Pacing delay applied before a send",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
		}),
	}
}

func (m *SenderMetrics) RecordSend(outcome string) {
	m.sends.WithLabelValues(outcome).Inc()
}

func (m *SenderMetrics) RecordDelay(d time.Duration) {
	m.delays.Observe(d.Seconds())
}
