package outbox

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	lag       prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_relay_published_total",
			Help: "Outbox rows published and marked processed.",
		}, []string{"topic"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_relay_failed_total",
			Help: "Outbox rows the relay could not deliver.",
		}, []string{"reason"}),
		lag: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_relay_oldest_pending_seconds",
			Help: "Age of the oldest unprocessed outbox row seen by the last poll.",
		}),
	}
	reg.MustRegister(m.published, m.failed, m.lag)
	return m
}

func (m *Metrics) observePublished(topic string) {
	if m != nil {
		m.published.WithLabelValues(topic).Inc()
	}
}

func (m *Metrics) observeFailed(reason string) {
	if m != nil {
		m.failed.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) observeLag(seconds float64) {
	if m != nil {
		m.lag.Set(seconds)
	}
}
