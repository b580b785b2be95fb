package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors on a private registry so
// the admin surface exposes only what the service itself records.
type Metrics struct {
	Registry *prometheus.Registry

	ConnectionsTotal  prometheus.Counter
	ActiveConnections prometheus.Gauge
	CommandsTotal     *prometheus.CounterVec
	CommandDuration   prometheus.Histogram
}

// New creates and registers the service collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhub_connections_total",
			Help: "Total number of accepted client connections",
		}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskhub_active_connections",
			Help: "Number of currently open client connections",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_commands_total",
			Help: "Total number of executed commands",
		}, []string{"command"}),
		CommandDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskhub_command_duration_seconds",
			Help:    "Command execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.ConnectionsTotal,
		m.ActiveConnections,
		m.CommandsTotal,
		m.CommandDuration,
	)

	return m
}
