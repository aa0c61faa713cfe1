package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initObjectiveMetrics() {
	r.ObjectivesCompletedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netsim_objectives_completed_total",
			Help: "Total number of completed objectives",
		},
		[]string{"faction", "kind"},
	)

	r.ObjectivePointsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "netsim_objective_points_total",
			Help: "Points awarded by objective completions",
		},
	)

	r.Score = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netsim_score",
			Help: "Current session score",
		},
	)

	r.HighScore = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netsim_high_score",
			Help: "Best score observed",
		},
	)

	r.Combo = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netsim_combo_multiplier",
			Help: "Current action combo multiplier",
		},
	)
}
