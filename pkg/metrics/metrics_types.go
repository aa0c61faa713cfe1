package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the simulation
type Registry struct {
	// Action Metrics
	ActionsTotal       *prometheus.CounterVec
	ActionProbability  *prometheus.HistogramVec
	CascadeStepsTotal  *prometheus.CounterVec
	StaleCascadesTotal prometheus.Counter

	// Threat Metrics
	ThreatsSpawnedTotal    *prometheus.CounterVec
	ThreatTransitionsTotal *prometheus.CounterVec
	ThreatsActive          prometheus.Gauge

	// Objective & Score Metrics
	ObjectivesCompletedTotal *prometheus.CounterVec
	ObjectivePointsTotal     prometheus.Counter
	Score                    prometheus.Gauge
	HighScore                prometheus.Gauge
	Combo                    prometheus.Gauge

	// Session Metrics
	ResourceLevel        *prometheus.GaugeVec
	SystemIntegrity      prometheus.Gauge
	NodesByStatus        *prometheus.GaugeVec
	GameMode             *prometheus.GaugeVec
	FactionSwitchesTotal prometheus.Counter
	TickDuration         *prometheus.HistogramVec
	TickPanicsTotal      *prometheus.CounterVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
	modes    []string
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initActionMetrics()
	r.initThreatMetrics()
	r.initObjectiveMetrics()
	r.initSessionMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
