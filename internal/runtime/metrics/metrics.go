// Package metrics exposes the Prometheus instrumentation shared by the
// runtime and its transports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors tracked by one runtime instance. A nil
// *Metrics is valid and records nothing, so transports never need to guard
// their instrumentation calls.
type Metrics struct {
	EventsPublished prometheus.Counter
	EventsDropped   prometheus.Counter
	Actions         *prometheus.CounterVec
	Heartbeats      prometheus.Counter
	WSConnections   prometheus.Gauge
	Reconnects      prometheus.Counter

	registry *prometheus.Registry
}

// New registers the botwire collectors on a fresh registry. The registry is
// private to the returned Metrics so independent runtime instances never
// collide on collector names.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "botwire_events_published_total",
			Help: "Events accepted by the broadcaster.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "botwire_events_dropped_total",
			Help: "Events published while no subscriber was registered.",
		}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "botwire_actions_total",
			Help: "Actions dispatched to the handler, by response status.",
		}, []string{"status"}),
		Heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "botwire_heartbeats_total",
			Help: "Heartbeat meta events emitted.",
		}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "botwire_websocket_connections",
			Help: "Open websocket peer connections.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "botwire_reconnect_attempts_total",
			Help: "Connection attempts made by resilience loops.",
		}),
		registry: reg,
	}
	reg.MustRegister(m.EventsPublished, m.EventsDropped, m.Actions, m.Heartbeats, m.WSConnections, m.Reconnects)
	return m
}

// Registry returns the registry holding the collectors, for exposing a
// /metrics endpoint. Nil when m is nil.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) EventPublished() {
	if m != nil {
		m.EventsPublished.Inc()
	}
}

func (m *Metrics) EventDropped() {
	if m != nil {
		m.EventsDropped.Inc()
	}
}

func (m *Metrics) ActionHandled(status string) {
	if m != nil {
		m.Actions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) HeartbeatSent() {
	if m != nil {
		m.Heartbeats.Inc()
	}
}

func (m *Metrics) WSConnected() {
	if m != nil {
		m.WSConnections.Inc()
	}
}

func (m *Metrics) WSDisconnected() {
	if m != nil {
		m.WSConnections.Dec()
	}
}

func (m *Metrics) ReconnectAttempt() {
	if m != nil {
		m.Reconnects.Inc()
	}
}
