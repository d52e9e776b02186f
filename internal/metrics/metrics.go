package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeStored        = "stored"
	OutcomeConfigMissing = "config_missing"
	OutcomeWriteFailed   = "write_failed"
)

type Metrics struct {
	registry       *prometheus.Registry
	invocations    *prometheus.CounterVec
	writeDuration  prometheus.Histogram
	eventBytes     prometheus.Histogram
	lastInvocation atomic.Int64
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	invocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "event_ingest_invocations_total",
		Help: "Total number of handler invocations by outcome",
	}, []string{"outcome"})

	writeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "event_ingest_write_duration_seconds",
		Help:    "Duration of the object write in seconds",
		Buckets: prometheus.DefBuckets,
	})

	eventBytes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "event_ingest_event_bytes",
		Help:    "Size of the serialized event body in bytes",
		Buckets: prometheus.ExponentialBuckets(64, 4, 8),
	})

	reg.MustRegister(invocations, writeDuration, eventBytes)

	return &Metrics{
		registry:      reg,
		invocations:   invocations,
		writeDuration: writeDuration,
		eventBytes:    eventBytes,
	}
}

func (m *Metrics) RecordInvocation(outcome string) {
	m.invocations.WithLabelValues(outcome).Inc()
	m.lastInvocation.Store(time.Now().UnixNano())
}

func (m *Metrics) RecordWriteDuration(seconds float64) {
	m.writeDuration.Observe(seconds)
}

func (m *Metrics) RecordEventSize(n int) {
	m.eventBytes.Observe(float64(n))
}

// LastInvocationTime is zero until the first invocation completes.
func (m *Metrics) LastInvocationTime() time.Time {
	ns := m.lastInvocation.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
