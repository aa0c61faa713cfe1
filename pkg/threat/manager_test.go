package threat

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-netsim/pkg/balance"
	"github.com/dd0wney/cluso-netsim/pkg/logging"
	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/network"
)

type fixedRoll float64

func (f fixedRoll) Float64() float64 { return float64(f) }

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newManager(roll Roller, spawn float64) *Manager {
	seq := 0
	return NewManager(balance.Default(logging.NewNopLogger()), roll, Options{
		SpawnChance: spawn,
		NewID: func() string {
			seq++
			return fmt.Sprintf("t-%d", seq)
		},
		Logger: logging.NewNopLogger(),
	})
}

func node(id int, status model.NodeStatus, defense int) network.Node {
	return network.Node{ID: id, Name: fmt.Sprintf("N-%d", id), Status: status, Defense: defense, Interactable: true}
}

func TestOnNodeStatusChanged_Classification(t *testing.T) {
	tests := []struct {
		cur      model.NodeStatus
		faction  model.Faction
		severity model.Severity
		status   model.ThreatStatus
		ttc      time.Duration
	}{
		{model.StatusBreached, model.WhiteHat, model.SeverityHigh, model.ThreatDetected, 15 * time.Second},
		{model.StatusCompromised, model.BlackHat, model.SeverityHigh, model.ThreatSuccess, 12 * time.Second},
		{model.StatusVulnerable, model.WhiteHat, model.SeverityMedium, model.ThreatDetected, 8 * time.Second},
		{model.StatusPatching, model.BlackHat, model.SeverityMedium, model.ThreatDetected, 10 * time.Second},
		{model.StatusSecure, model.WhiteHat, model.SeverityLow, model.ThreatNeutralized, 5 * time.Second},
		{model.StatusSecure, model.BlackHat, model.SeverityHigh, model.ThreatDetected, 5 * time.Second},
		{model.StatusMonitoring, model.WhiteHat, model.SeverityLow, model.ThreatNeutralized, 7 * time.Second},
		{model.StatusScanning, model.BlackHat, model.SeverityLow, model.ThreatExecuting, 5 * time.Second},
		{model.StatusOverloaded, model.BlackHat, model.SeverityLow, model.ThreatExecuting, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.faction, tt.cur), func(t *testing.T) {
			m := newManager(fixedRoll(0.5), 0)
			th := m.OnNodeStatusChanged(node(3, tt.cur, 70), model.StatusActive, tt.cur, tt.faction, t0)

			require.NotNil(t, th)
			assert.Equal(t, tt.severity, th.Severity)
			assert.Equal(t, tt.status, th.Status)
			assert.Equal(t, tt.ttc, th.TimeToComplete)
			assert.True(t, th.Targets(3))
			assert.NotEmpty(t, th.Source)
		})
	}
}

func TestOnNodeStatusChanged_FactionFlavour(t *testing.T) {
	m := newManager(fixedRoll(0.5), 0)
	n := node(1, model.StatusCompromised, 50)
	n.Name = "WEB-01"

	white := m.OnNodeStatusChanged(n, model.StatusVulnerable, model.StatusCompromised, model.WhiteHat, t0)
	black := m.OnNodeStatusChanged(n, model.StatusVulnerable, model.StatusCompromised, model.BlackHat, t0)

	assert.Equal(t, "Security breach detected on WEB-01", white.Description)
	assert.Equal(t, "Successfully compromised WEB-01", black.Description)
}

func TestOnNodeStatusChanged_NoChange(t *testing.T) {
	m := newManager(fixedRoll(0.5), 0)
	notified := 0
	m.Subscribe(func([]Threat) { notified++ })

	assert.Nil(t, m.OnNodeStatusChanged(node(1, model.StatusActive, 0), model.StatusActive, model.StatusActive, model.BlackHat, t0))
	assert.Empty(t, m.Threats())
	assert.Zero(t, notified)
}

func TestTick_ProgressesAlongGraph(t *testing.T) {
	m := newManager(fixedRoll(0), 0)
	th := m.OnNodeStatusChanged(node(4, model.StatusScanning, 30), model.StatusActive, model.StatusScanning, model.BlackHat, t0)
	require.Equal(t, model.ThreatExecuting, th.Status)

	trs := m.Tick(t0.Add(time.Second), []network.Node{node(4, model.StatusActive, 30)})
	require.Len(t, trs, 1)
	assert.Equal(t, Transition{ThreatID: th.ID, NodeID: 4, From: model.StatusActive, To: model.StatusVulnerable}, trs[0])

	got, _ := m.Get(th.ID)
	assert.Equal(t, model.ThreatExecuting, got.Status)
	assert.InDelta(t, 0.2, got.Progress, 1e-9)

	trs = m.Tick(t0.Add(2*time.Second), []network.Node{node(4, model.StatusCompromised, 30)})
	require.Len(t, trs, 1)
	assert.Equal(t, model.StatusBreached, trs[0].To)

	got, _ = m.Get(th.ID)
	assert.Equal(t, model.ThreatSuccess, got.Status)
	assert.Equal(t, 1.0, got.Progress)

	// terminal threats no longer move
	assert.Empty(t, m.Tick(t0.Add(3*time.Second), []network.Node{node(4, model.StatusBreached, 30)}))
}

func TestTick_FailedRollKeepsExecuting(t *testing.T) {
	m := newManager(fixedRoll(0.99), 0)
	th := m.OnNodeStatusChanged(node(2, model.StatusDegraded, 80), model.StatusActive, model.StatusDegraded, model.BlackHat, t0)

	trs := m.Tick(t0.Add(time.Second), []network.Node{node(2, model.StatusActive, 80)})

	assert.Empty(t, trs)
	got, _ := m.Get(th.ID)
	assert.Equal(t, model.ThreatExecuting, got.Status)
}

func TestTick_OutsideGraphNeutralizes(t *testing.T) {
	m := newManager(fixedRoll(0), 0)
	th := m.OnNodeStatusChanged(node(2, model.StatusQuarantined, 80), model.StatusBreached, model.StatusQuarantined, model.WhiteHat, t0)
	require.Equal(t, model.ThreatExecuting, th.Status)

	assert.Empty(t, m.Tick(t0.Add(time.Second), []network.Node{node(2, model.StatusQuarantined, 80)}))
	got, _ := m.Get(th.ID)
	assert.Equal(t, model.ThreatNeutralized, got.Status)
}

func TestCleanup_Boundary(t *testing.T) {
	m := newManager(fixedRoll(0.5), 0)
	th := m.OnNodeStatusChanged(node(1, model.StatusSecure, 50), model.StatusVulnerable, model.StatusSecure, model.WhiteHat, t0)
	require.True(t, th.Status.Terminal())

	assert.Zero(t, m.Cleanup(t0.Add(29999*time.Millisecond)))
	_, ok := m.Get(th.ID)
	assert.True(t, ok, "threat at 29999ms must remain")

	assert.Zero(t, m.Cleanup(t0.Add(30000*time.Millisecond)))

	assert.Equal(t, 1, m.Cleanup(t0.Add(30001*time.Millisecond)))
	_, ok = m.Get(th.ID)
	assert.False(t, ok, "threat at 30001ms must be gone")
}

func TestCleanup_KeepsLiveThreats(t *testing.T) {
	m := newManager(fixedRoll(0.5), 0)
	m.OnNodeStatusChanged(node(1, model.StatusScanning, 50), model.StatusActive, model.StatusScanning, model.BlackHat, t0)

	assert.Zero(t, m.Cleanup(t0.Add(time.Hour)))
	assert.Len(t, m.Threats(), 1)
}

func TestBlockAll_OnlyListedThreats(t *testing.T) {
	m := newManager(fixedRoll(0.5), 0)
	a := m.OnNodeStatusChanged(node(1, model.StatusScanning, 50), model.StatusActive, model.StatusScanning, model.BlackHat, t0)
	b := m.OnNodeStatusChanged(node(2, model.StatusScanning, 50), model.StatusActive, model.StatusScanning, model.BlackHat, t0)

	live := m.LiveOn(1)
	assert.Equal(t, []string{a.ID}, live)

	// raised after the list was taken
	later := m.OnNodeStatusChanged(node(1, model.StatusCompromised, 50), model.StatusScanning, model.StatusCompromised, model.WhiteHat, t0)

	assert.Equal(t, []string{a.ID}, m.BlockAll(live))
	assert.Empty(t, m.BlockAll(live))
	assert.Equal(t, []string{later.ID}, m.LiveOn(1))
	assert.Empty(t, m.BlockAll([]string{"missing"}))
	assert.True(t, m.Block(b.ID))
	assert.False(t, m.Block(b.ID))
	assert.False(t, m.Block("missing"))
}

func TestMaybeSpawn(t *testing.T) {
	nodes := []network.Node{node(1, model.StatusActive, 50), node(2, model.StatusActive, 80)}

	none := newManager(fixedRoll(0.5), 0.15)
	assert.Nil(t, none.MaybeSpawn(t0, nodes, model.WhiteHat))

	some := newManager(fixedRoll(0.1), 0.15)
	th := some.MaybeSpawn(t0, nodes, model.WhiteHat)
	require.NotNil(t, th)
	assert.Equal(t, model.ThreatExecuting, th.Status)
	assert.True(t, th.Targets(1))
	assert.Contains(t, th.Description, "N-1")
}

func TestSubscribeAndReset(t *testing.T) {
	m := newManager(fixedRoll(0.5), 0)
	var last []Threat
	calls := 0
	unsubscribe := m.Subscribe(func(ts []Threat) { last = ts; calls++ })

	m.OnNodeStatusChanged(node(1, model.StatusVulnerable, 50), model.StatusActive, model.StatusVulnerable, model.WhiteHat, t0)
	require.Len(t, last, 1)

	m.Reset()
	assert.NotNil(t, last)
	assert.Empty(t, last)
	assert.Equal(t, 2, calls)

	unsubscribe()
	m.OnNodeStatusChanged(node(1, model.StatusSecure, 50), model.StatusVulnerable, model.StatusSecure, model.WhiteHat, t0)
	assert.Equal(t, 2, calls)
}

func TestDefaultIDsAreUUIDs(t *testing.T) {
	m := NewManager(balance.Default(logging.NewNopLogger()), fixedRoll(0.5), Options{Logger: logging.NewNopLogger()})
	th := m.OnNodeStatusChanged(node(1, model.StatusVulnerable, 50), model.StatusActive, model.StatusVulnerable, model.WhiteHat, t0)
	assert.Len(t, th.ID, 36)
}
