package ceremony

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/f3rmion/frostkit/frost"
)

const (
	metricsNamespace = "frost"
	metricsSubsystem = "ceremony"
)

var phaseBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Metrics collects Prometheus metrics for ceremonies. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	ceremonies    *prometheus.CounterVec
	messages      *prometheus.CounterVec
	payloadBytes  *prometheus.CounterVec
	failures      *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
}

// NewMetrics creates the ceremony collectors and registers them with reg.
// A nil reg gets a fresh registry so tests never touch the global one.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		ceremonies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "total",
				Help:      "Completed ceremonies by kind and result.",
			},
			[]string{"kind", "result"},
		),
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "messages_total",
				Help:      "Protocol messages sent and received.",
			},
			[]string{"phase", "direction"},
		),
		payloadBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "payload_bytes_total",
				Help:      "Encoded payload bytes handed to the transport.",
			},
			[]string{"phase"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "failures_total",
				Help:      "Party failures by phase.",
			},
			[]string{"phase"},
		),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "barrier_wait_seconds",
				Help:      "Time a party waited for a phase barrier to fill.",
				Buckets:   phaseBuckets,
			},
			[]string{"phase"},
		),
	}

	for _, c := range []prometheus.Collector{m.ceremonies, m.messages, m.payloadBytes, m.failures, m.phaseDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMetricsRegistration, err)
		}
	}
	return m, nil
}

func (m *Metrics) sent(phase frost.Phase, size int) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(string(phase), "sent").Inc()
	m.payloadBytes.WithLabelValues(string(phase)).Add(float64(size))
}

func (m *Metrics) received(phase frost.Phase, count int) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(string(phase), "received").Add(float64(count))
}

func (m *Metrics) waited(phase frost.Phase, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(string(phase)).Observe(d.Seconds())
}

func (m *Metrics) failed(phase frost.Phase) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(string(phase)).Inc()
}

func (m *Metrics) finished(kind string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.ceremonies.WithLabelValues(kind, result).Inc()
}
