package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the coedit server.
type Metrics struct {
	ConnectionsTotal  prometheus.Counter
	ActiveConnections prometheus.Gauge
	EditsTotal        prometheus.Counter
	BroadcastsTotal   *prometheus.CounterVec
	StoreErrorsTotal  prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ConnectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coedit_connections_total",
			Help: "Total websocket connections handled",
		}),
		ActiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "coedit_active_connections",
			Help: "Current active websocket connections",
		}),
		EditsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coedit_edits_total",
			Help: "Total document edits persisted",
		}),
		BroadcastsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coedit_broadcasts_total",
			Help: "Total room broadcasts by event",
		}, []string{"event"}),
		StoreErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coedit_store_errors_total",
			Help: "Total durable store failures",
		}),
	}
}
