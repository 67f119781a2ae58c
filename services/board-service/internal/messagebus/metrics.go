package messagebus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	commands *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	events   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messagebus_commands_total",
			Help: "Commands handled by the message bus, by outcome.",
		}, []string{"command", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "messagebus_command_duration_seconds",
			Help:    "Time from command lookup to the end of event draining.",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messagebus_event_dispatches_total",
			Help: "Event handler invocations, by topic and outcome.",
		}, []string{"topic", "outcome"}),
	}
	reg.MustRegister(m.commands, m.latency, m.events)
	return m
}

func (m *Metrics) observeCommand(name, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name, outcome).Inc()
	m.latency.WithLabelValues(name).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeEvent(topic, outcome string) {
	if m != nil {
		m.events.WithLabelValues(topic, outcome).Inc()
	}
}
