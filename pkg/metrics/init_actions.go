package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initActionMetrics() {
	r.ActionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netsim_actions_total",
			Help: "Total number of dispatched actions by result",
		},
		[]string{"faction", "action", "result"},
	)

	r.ActionProbability = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netsim_action_success_probability",
			Help:    "Success probability of resolved actions",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
		[]string{"faction", "action"},
	)

	r.CascadeStepsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netsim_cascade_steps_total",
			Help: "Total number of applied cascade steps",
		},
		[]string{"action"},
	)

	r.StaleCascadesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "netsim_cascade_steps_dropped_total",
			Help: "Cascade steps dropped because the faction changed",
		},
	)
}
