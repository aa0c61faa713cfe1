package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSessionMetrics() {
	r.ResourceLevel = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netsim_resource_level",
			Help: "Current resource pool level (0-100)",
		},
		[]string{"resource"},
	)

	r.SystemIntegrity = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netsim_system_integrity",
			Help: "Weighted network integrity percentage",
		},
	)

	r.NodesByStatus = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netsim_nodes",
			Help: "Number of nodes per status",
		},
		[]string{"status"},
	)

	r.GameMode = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netsim_game_mode",
			Help: "Current game mode (1=current, 0=not)",
		},
		[]string{"mode"},
	)

	r.FactionSwitchesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "netsim_faction_switches_total",
			Help: "Total number of completed faction switches",
		},
	)

	r.TickDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netsim_tick_duration_seconds",
			Help:    "Periodic tick duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
		[]string{"tick"},
	)

	r.TickPanicsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netsim_tick_panics_total",
			Help: "Ticks that recovered from a panic",
		},
		[]string{"tick"},
	)
}
