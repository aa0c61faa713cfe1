package threat

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-netsim/pkg/balance"
	"github.com/dd0wney/cluso-netsim/pkg/logging"
	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/network"
)

// Retention is how long a terminal threat stays in the feed.
const Retention = 30 * time.Second

// DefaultSpawnChance is the per-tick probability of a background threat.
const DefaultSpawnChance = 0.15

// Roller draws uniform floats in [0, 1).
type Roller interface {
	Float64() float64
}

// Subscriber receives a snapshot of every threat after each mutation.
type Subscriber func([]Threat)

// Transition is a node status change a threat earned on a tick. The caller
// applies it through the registry.
type Transition struct {
	ThreatID string
	NodeID   int
	From     model.NodeStatus
	To       model.NodeStatus
}

// Options configures a Manager.
type Options struct {
	SpawnChance float64
	// NewID generates threat ids; defaults to uuid.NewString.
	NewID  func() string
	Logger logging.Logger
}

// Manager owns the active threats. It is not safe for concurrent use.
type Manager struct {
	threats map[string]*Threat
	order   []string // creation order

	subs    map[int]Subscriber
	nextSub int

	balance     *balance.Table
	rng         Roller
	spawnChance float64
	newID       func() string
	logger      logging.Logger
}

// NewManager returns an empty threat manager.
func NewManager(table *balance.Table, rng Roller, opts Options) *Manager {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Manager{
		threats:     make(map[string]*Threat),
		subs:        make(map[int]Subscriber),
		balance:     table,
		rng:         rng,
		spawnChance: opts.SpawnChance,
		newID:       opts.NewID,
		logger:      logging.OrDefault(opts.Logger).With(logging.Component("threat")),
	}
}

// Subscribe registers fn and returns a function that removes it.
func (m *Manager) Subscribe(fn Subscriber) (unsubscribe func()) {
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() { delete(m.subs, id) }
}

func (m *Manager) notify() {
	if len(m.subs) == 0 {
		return
	}
	snapshot := m.Threats()
	for _, fn := range m.subs {
		fn(snapshot)
	}
}

// Threats returns copies of every threat in creation order.
func (m *Manager) Threats() []Threat {
	out := make([]Threat, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.threats[id].clone())
	}
	return out
}

// Get returns a copy of one threat.
func (m *Manager) Get(id string) (Threat, bool) {
	t, ok := m.threats[id]
	if !ok {
		return Threat{}, false
	}
	return t.clone(), true
}

func (m *Manager) add(t *Threat) {
	m.threats[t.ID] = t
	m.order = append(m.order, t.ID)
}

// OnNodeStatusChanged classifies a node transition into a threat. It returns
// nil when the status did not change.
func (m *Manager) OnNodeStatusChanged(node network.Node, prev, cur model.NodeStatus, faction model.Faction, now time.Time) *Threat {
	if prev == cur {
		return nil
	}
	target := node.ID
	t := &Threat{
		ID:             m.newID(),
		Description:    describe(node, cur, faction),
		Severity:       severityFor(cur, faction),
		Source:         m.randomIP(),
		CreatedAt:      now,
		Status:         statusFor(cur, faction),
		TargetNodeID:   &target,
		TimeToComplete: durationFor(cur),
	}
	m.add(t)
	m.logger.Debug("threat raised",
		logging.ThreatID(t.ID), logging.NodeID(node.ID), logging.Status(string(cur)),
		logging.String("threat_status", string(t.Status)))
	m.notify()

	c := t.clone()
	return &c
}

// Tick advances every executing threat that has a target. Threats whose
// node sits outside the compromise graph are neutralized. Returned
// transitions must be applied by the caller.
func (m *Manager) Tick(now time.Time, nodes []network.Node) []Transition {
	byID := make(map[int]network.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	var out []Transition
	changed := false
	for _, id := range m.order {
		t := m.threats[id]
		if t.Status != model.ThreatExecuting || t.TargetNodeID == nil {
			continue
		}
		changed = true

		if t.TimeToComplete > 0 {
			t.Progress = min(1, float64(now.Sub(t.CreatedAt))/float64(t.TimeToComplete))
		}

		node, ok := byID[*t.TargetNodeID]
		next, inGraph := progression[node.Status]
		if !ok || !inGraph {
			t.Status = model.ThreatNeutralized
			continue
		}
		if node.Status == model.StatusBreached {
			t.Status = model.ThreatSuccess
			t.Progress = 1
			continue
		}

		p := m.balance.SuccessProbability(model.ActionExploit, model.BlackHat, node.Status, node.Defense)
		if m.rng.Float64() >= p {
			continue
		}
		if next == model.StatusBreached {
			t.Status = model.ThreatSuccess
			t.Progress = 1
		}
		out = append(out, Transition{ThreatID: t.ID, NodeID: node.ID, From: node.Status, To: next})
	}

	if changed {
		m.notify()
	}
	return out
}

// MaybeSpawn rolls the spawn chance and, on success, raises a background
// threat against a random node.
func (m *Manager) MaybeSpawn(now time.Time, nodes []network.Node, faction model.Faction) *Threat {
	if len(nodes) == 0 || m.rng.Float64() >= m.spawnChance {
		return nil
	}
	node := nodes[m.pick(len(nodes))]
	lines := feed[faction]
	target := node.ID
	t := &Threat{
		ID:             m.newID(),
		Description:    fmt.Sprintf("%s: %s", lines[m.pick(len(lines))], node.Name),
		Severity:       []model.Severity{model.SeverityLow, model.SeverityMedium, model.SeverityHigh}[m.pick(3)],
		Source:         m.randomIP(),
		CreatedAt:      now,
		Status:         model.ThreatExecuting,
		TargetNodeID:   &target,
		TimeToComplete: durationFor(node.Status),
	}
	m.add(t)
	m.logger.Debug("background threat spawned", logging.ThreatID(t.ID), logging.NodeID(node.ID))
	m.notify()

	c := t.clone()
	return &c
}

// Block neutralizes a live threat. It reports whether anything changed.
func (m *Manager) Block(id string) bool {
	t, ok := m.threats[id]
	if !ok || t.Status.Terminal() {
		return false
	}
	t.Status = model.ThreatNeutralized
	m.notify()
	return true
}

// LiveOn returns the ids of live threats aimed at node id, in creation order.
func (m *Manager) LiveOn(nodeID int) []string {
	var ids []string
	for _, id := range m.order {
		if t := m.threats[id]; !t.Status.Terminal() && t.Targets(nodeID) {
			ids = append(ids, id)
		}
	}
	return ids
}

// BlockAll neutralizes the listed threats that are still live and returns
// the ids it changed. Callers take the list from LiveOn before mutating the
// node, so threats raised by that mutation are left alone.
func (m *Manager) BlockAll(ids []string) []string {
	var blocked []string
	for _, id := range ids {
		t, ok := m.threats[id]
		if !ok || t.Status.Terminal() {
			continue
		}
		t.Status = model.ThreatNeutralized
		blocked = append(blocked, id)
	}
	if len(blocked) > 0 {
		m.notify()
	}
	return blocked
}

// Cleanup removes terminal threats older than Retention and returns how many
// were removed.
func (m *Manager) Cleanup(now time.Time) int {
	kept := m.order[:0]
	removed := 0
	for _, id := range m.order {
		t := m.threats[id]
		if t.Status.Terminal() && now.Sub(t.CreatedAt) > Retention {
			delete(m.threats, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	if removed > 0 {
		m.notify()
	}
	return removed
}

// Reset drops every threat and notifies subscribers with an empty list.
func (m *Manager) Reset() {
	clear(m.threats)
	m.order = nil
	m.notify()
}

func (m *Manager) pick(n int) int {
	i := int(m.rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

func (m *Manager) randomIP() string {
	return fmt.Sprintf("%d.%d.%d.%d", m.pick(255), m.pick(255), m.pick(255), m.pick(255))
}
