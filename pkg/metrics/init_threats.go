package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initThreatMetrics() {
	r.ThreatsSpawnedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netsim_threats_spawned_total",
			Help: "Total number of threats created",
		},
		[]string{"severity", "origin"},
	)

	r.ThreatTransitionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netsim_threat_transitions_total",
			Help: "Threat status transitions by resulting status",
		},
		[]string{"status"},
	)

	r.ThreatsActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netsim_threats_active",
			Help: "Threats currently executing or detected",
		},
	)
}
