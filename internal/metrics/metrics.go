package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the process counters exposed on /metrics. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	payloadsBuilt    *prometheus.CounterVec
	trackingSkipped  *prometheus.CounterVec
	eventsDispatched *prometheus.CounterVec
}

// New registers the tracking counters with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		payloadsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "divvit_tracking",
			Name:      "payloads_built_total",
			Help:      "Tracking payloads assigned to a view, by kind.",
		}, []string{"kind"}),
		trackingSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "divvit_tracking",
			Name:      "skipped_total",
			Help:      "Events that produced no tracking payload, by reason.",
		}, []string{"reason"}),
		eventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "divvit_tracking",
			Name:      "events_dispatched_total",
			Help:      "Host events dispatched, by event and outcome.",
		}, []string{"event", "outcome"}),
	}
	reg.MustRegister(m.payloadsBuilt, m.trackingSkipped, m.eventsDispatched)
	return m
}

// PayloadBuilt counts a payload of kind page, cart or order.
func (m *Metrics) PayloadBuilt(kind string) {
	if m == nil {
		return
	}
	m.payloadsBuilt.WithLabelValues(kind).Inc()
}

// Skipped counts an event that was ignored.
func (m *Metrics) Skipped(reason string) {
	if m == nil {
		return
	}
	m.trackingSkipped.WithLabelValues(reason).Inc()
}

// Dispatched counts a dispatched host event.
func (m *Metrics) Dispatched(event string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.eventsDispatched.WithLabelValues(event, outcome).Inc()
}
