package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "insuredesk"

// HubMetrics holds Prometheus metrics for the real-time hub.
type HubMetrics struct {
	ActiveConnections prometheus.Gauge
	EventsBroadcast   *prometheus.CounterVec
	EventsDropped     prometheus.Counter
}

// NewHubMetrics creates and registers hub metrics on the given registry.
func NewHubMetrics(reg prometheus.Registerer) *HubMetrics {
	m := &HubMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_connections",
			Help:      "Number of active WebSocket connections.",
		}),
		EventsBroadcast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "events_broadcast_total",
			Help:      "Total number of events broadcast, by event type.",
		}, []string{"event"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "events_dropped_total",
			Help:      "Events dropped because a client send buffer was full.",
		}),
	}

	reg.MustRegister(m.ActiveConnections, m.EventsBroadcast, m.EventsDropped)
	return m
}

// PollerMetrics holds Prometheus metrics for the external-state pollers.
type PollerMetrics struct {
	Ticks     *prometheus.CounterVec
	TickFails *prometheus.CounterVec
}

// NewPollerMetrics creates and registers poller metrics on the given registry.
func NewPollerMetrics(reg prometheus.Registerer) *PollerMetrics {
	m := &PollerMetrics{
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "ticks_total",
			Help:      "Total number of poll ticks, by poller.",
		}, []string{"poller"}),
		TickFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "tick_failures_total",
			Help:      "Poll ticks that failed and were skipped, by poller.",
		}, []string{"poller"}),
	}

	reg.MustRegister(m.Ticks, m.TickFails)
	return m
}
