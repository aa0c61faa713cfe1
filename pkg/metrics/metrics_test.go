package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.ActionsTotal == nil {
		t.Error("ActionsTotal not initialized")
	}
	if r.ThreatsSpawnedTotal == nil {
		t.Error("ThreatsSpawnedTotal not initialized")
	}
	if r.ObjectivesCompletedTotal == nil {
		t.Error("ObjectivesCompletedTotal not initialized")
	}
	if r.ResourceLevel == nil {
		t.Error("ResourceLevel not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	// Should return the same instance
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordAction(t *testing.T) {
	r := NewRegistry()

	r.RecordAction("WHITE_HAT", "MONITOR", "success", 1.0, true)
	r.RecordAction("WHITE_HAT", "MONITOR", "success", 1.0, true)
	r.RecordAction("WHITE_HAT", "MONITOR", "on_cooldown", 0, false)

	success, err := r.ActionsTotal.GetMetricWithLabelValues("WHITE_HAT", "MONITOR", "success")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, success); v != 2 {
		t.Errorf("success counter = %v, want 2", v)
	}

	cooldown, _ := r.ActionsTotal.GetMetricWithLabelValues("WHITE_HAT", "MONITOR", "on_cooldown")
	if v := counterValue(t, cooldown); v != 1 {
		t.Errorf("cooldown counter = %v, want 1", v)
	}

	// Rejected actions are not observed in the probability histogram
	obs, err := r.ActionProbability.GetMetricWithLabelValues("WHITE_HAT", "MONITOR")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	var metric dto.Metric
	if err := obs.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("probability samples = %d, want 2", metric.Histogram.GetSampleCount())
	}
}

func TestRecordCascadeStep(t *testing.T) {
	r := NewRegistry()

	r.RecordCascadeStep("EXPLOIT", true)
	r.RecordCascadeStep("EXPLOIT", true)
	r.RecordCascadeStep("EXPLOIT", false)

	c, _ := r.CascadeStepsTotal.GetMetricWithLabelValues("EXPLOIT")
	if v := counterValue(t, c); v != 2 {
		t.Errorf("applied steps = %v, want 2", v)
	}
	if v := counterValue(t, r.StaleCascadesTotal); v != 1 {
		t.Errorf("dropped steps = %v, want 1", v)
	}
}

func TestThreatMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordThreatSpawned("HIGH", "status")
	r.RecordThreatSpawned("LOW", "spawn")
	r.RecordThreatTransition("DETECTED")
	r.SetActiveThreats(2)

	c, _ := r.ThreatsSpawnedTotal.GetMetricWithLabelValues("HIGH", "status")
	if v := counterValue(t, c); v != 1 {
		t.Errorf("spawned = %v, want 1", v)
	}
	d, _ := r.ThreatTransitionsTotal.GetMetricWithLabelValues("DETECTED")
	if v := counterValue(t, d); v != 1 {
		t.Errorf("transitions = %v, want 1", v)
	}
	if v := gaugeValue(t, r.ThreatsActive); v != 2 {
		t.Errorf("active = %v, want 2", v)
	}
}

func TestObjectiveAndScoreMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordObjectiveCompleted("BLACK_HAT", true, 1500)
	r.RecordObjectiveCompleted("BLACK_HAT", false, 600)
	r.UpdateScore(2300, 4000, 1.3)

	primary, _ := r.ObjectivesCompletedTotal.GetMetricWithLabelValues("BLACK_HAT", "primary")
	if v := counterValue(t, primary); v != 1 {
		t.Errorf("primary = %v, want 1", v)
	}
	if v := counterValue(t, r.ObjectivePointsTotal); v != 2100 {
		t.Errorf("points = %v, want 2100", v)
	}
	if v := gaugeValue(t, r.Score); v != 2300 {
		t.Errorf("score = %v", v)
	}
	if v := gaugeValue(t, r.HighScore); v != 4000 {
		t.Errorf("high score = %v", v)
	}
	if v := gaugeValue(t, r.Combo); v != 1.3 {
		t.Errorf("combo = %v", v)
	}
}

func TestSessionGauges(t *testing.T) {
	r := NewRegistry()

	r.UpdateResources(80, 60, 40)
	g, _ := r.ResourceLevel.GetMetricWithLabelValues("bandwidth")
	if v := gaugeValue(t, g); v != 60 {
		t.Errorf("bandwidth = %v, want 60", v)
	}

	r.UpdateNetwork(87.5, []string{"active", "breached"}, map[string]int{"active": 5})
	if v := gaugeValue(t, r.SystemIntegrity); v != 87.5 {
		t.Errorf("integrity = %v", v)
	}
	breached, _ := r.NodesByStatus.GetMetricWithLabelValues("breached")
	if v := gaugeValue(t, breached); v != 0 {
		t.Errorf("breached = %v, want 0", v)
	}
}

func TestSetGameMode(t *testing.T) {
	r := NewRegistry()

	r.SetGameMode("MENU")
	r.SetGameMode("PLAYING")

	playing, _ := r.GameMode.GetMetricWithLabelValues("PLAYING")
	menu, _ := r.GameMode.GetMetricWithLabelValues("MENU")
	if gaugeValue(t, playing) != 1 || gaugeValue(t, menu) != 0 {
		t.Error("exactly one mode should be set")
	}

	r.SetGameMode("MENU")
	if gaugeValue(t, playing) != 0 || gaugeValue(t, menu) != 1 {
		t.Error("switching back should clear PLAYING")
	}
}

func TestRecordTick(t *testing.T) {
	r := NewRegistry()

	r.RecordTick("threat", 2*time.Millisecond, false)
	r.RecordTick("threat", 3*time.Millisecond, true)

	c, _ := r.TickPanicsTotal.GetMetricWithLabelValues("threat")
	if v := counterValue(t, c); v != 1 {
		t.Errorf("panics = %v, want 1", v)
	}
}

func TestUpdateSystemMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpdateSystemMetrics(time.Now().Add(-time.Minute))

	if v := gaugeValue(t, r.UptimeSeconds); v < 60 {
		t.Errorf("uptime = %v, want >= 60", v)
	}
	if v := gaugeValue(t, r.GoRoutines); v < 1 {
		t.Errorf("goroutines = %v", v)
	}
}

func TestGather(t *testing.T) {
	r := NewRegistry()
	r.RecordAction("BLACK_HAT", "EXPLOIT", "failed", 0.42, true)
	r.FactionSwitchesTotal.Inc()

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "netsim_") {
			t.Errorf("metric %s missing netsim_ prefix", mf.GetName())
		}
	}
	if len(families) == 0 {
		t.Error("expected gathered families")
	}
}
