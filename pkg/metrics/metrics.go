package metrics

import (
	"runtime"
	"time"
)

// RecordAction records a dispatched action and, when it was rolled, its success probability
func (r *Registry) RecordAction(faction, action, result string, probability float64, rolled bool) {
	r.ActionsTotal.WithLabelValues(faction, action, result).Inc()
	if rolled {
		r.ActionProbability.WithLabelValues(faction, action).Observe(probability)
	}
}

// RecordCascadeStep records an applied or dropped cascade step
func (r *Registry) RecordCascadeStep(action string, applied bool) {
	if !applied {
		r.StaleCascadesTotal.Inc()
		return
	}
	r.CascadeStepsTotal.WithLabelValues(action).Inc()
}

// RecordThreatSpawned records a new threat
func (r *Registry) RecordThreatSpawned(severity, origin string) {
	r.ThreatsSpawnedTotal.WithLabelValues(severity, origin).Inc()
}

// RecordThreatTransition records a threat moving to status
func (r *Registry) RecordThreatTransition(status string) {
	r.ThreatTransitionsTotal.WithLabelValues(status).Inc()
}

// SetActiveThreats sets the active threat gauge
func (r *Registry) SetActiveThreats(n int) {
	r.ThreatsActive.Set(float64(n))
}

// RecordObjectiveCompleted records an objective payout
func (r *Registry) RecordObjectiveCompleted(faction string, primary bool, points int) {
	kind := "secondary"
	if primary {
		kind = "primary"
	}
	r.ObjectivesCompletedTotal.WithLabelValues(faction, kind).Inc()
	r.ObjectivePointsTotal.Add(float64(points))
}

// UpdateScore updates score gauges
func (r *Registry) UpdateScore(score, highScore int, combo float64) {
	r.Score.Set(float64(score))
	r.HighScore.Set(float64(highScore))
	r.Combo.Set(combo)
}

// UpdateResources updates the resource pool gauges
func (r *Registry) UpdateResources(energy, bandwidth, processing int) {
	r.ResourceLevel.WithLabelValues("energy").Set(float64(energy))
	r.ResourceLevel.WithLabelValues("bandwidth").Set(float64(bandwidth))
	r.ResourceLevel.WithLabelValues("processing").Set(float64(processing))
}

// UpdateNetwork updates integrity and the per-status node counts. Statuses
// missing from counts are reported as zero.
func (r *Registry) UpdateNetwork(integrity float64, statuses []string, counts map[string]int) {
	r.SystemIntegrity.Set(integrity)
	for _, s := range statuses {
		r.NodesByStatus.WithLabelValues(s).Set(float64(counts[s]))
	}
}

// SetGameMode sets the current game mode
func (r *Registry) SetGameMode(mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Reset all previously seen modes
	for _, m := range r.modes {
		r.GameMode.WithLabelValues(m).Set(0)
	}
	seen := false
	for _, m := range r.modes {
		if m == mode {
			seen = true
			break
		}
	}
	if !seen {
		r.modes = append(r.modes, mode)
	}

	// Set current mode
	r.GameMode.WithLabelValues(mode).Set(1)
}

// RecordFactionSwitch records a completed faction switch
func (r *Registry) RecordFactionSwitch() {
	r.FactionSwitchesTotal.Inc()
}

// RecordTick records a periodic tick with its duration
func (r *Registry) RecordTick(name string, duration time.Duration, panicked bool) {
	r.TickDuration.WithLabelValues(name).Observe(duration.Seconds())
	if panicked {
		r.TickPanicsTotal.WithLabelValues(name).Inc()
	}
}

// UpdateSystemMetrics refreshes uptime and runtime gauges
func (r *Registry) UpdateSystemMetrics(startedAt time.Time) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	r.UptimeSeconds.Set(time.Since(startedAt).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(ms.Alloc))
	r.MemorySysBytes.Set(float64(ms.Sys))
}
