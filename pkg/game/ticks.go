package game

import (
	"fmt"
	"slices"
	"time"

	"github.com/dd0wney/cluso-netsim/pkg/audit"
	"github.com/dd0wney/cluso-netsim/pkg/engine"
	"github.com/dd0wney/cluso-netsim/pkg/logging"
	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/network"
	"github.com/dd0wney/cluso-netsim/pkg/objective"
	"github.com/dd0wney/cluso-netsim/pkg/pubsub"
	"github.com/dd0wney/cluso-netsim/pkg/threat"
)

// ticker adapts a tick body to a scheduler callback.
func (s *Session) ticker(name string, fn func(now time.Time) bool) func() {
	return func() { s.locked(name, fn) }
}

// guard runs a deferred engine step under the session lock.
func (s *Session) guard(step func()) {
	s.locked("cascade", func(time.Time) bool {
		step()
		return true
	})
}

// locked runs fn to completion under the session lock. A panic is recovered
// into the action log so one bad tick never stalls the next.
func (s *Session) locked(name string, fn func(now time.Time) bool) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	panicked := s.recovering(name, fn)
	s.metrics.RecordTick(name, time.Since(start), panicked)
}

func (s *Session) recovering(name string, fn func(now time.Time) bool) (panicked bool) {
	now := s.sched.Now()
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			s.tickPanics++
			s.logger.Error("tick panicked", logging.Tick(name), logging.Any("panic", r))
			s.addLog(now, fmt.Sprintf("Internal error during %s tick: %v", name, r))
		}
	}()
	if fn(now) {
		s.settle(now)
	}
	return false
}

func (s *Session) threatTick(now time.Time) bool {
	if s.mode != ModePlaying {
		return false
	}
	for _, tr := range s.threats.Tick(now, s.registry.Nodes()) {
		if _, err := s.registry.SetStatus(tr.NodeID, tr.To); err != nil {
			s.logger.Warn("threat transition not applied", logging.ThreatID(tr.ThreatID), logging.Error(err))
			continue
		}
		if t, ok := s.threats.Get(tr.ThreatID); ok {
			s.metrics.RecordThreatTransition(string(t.Status))
		}
		s.addLog(now, fmt.Sprintf("Threat advanced on %s: %s -> %s", s.nodeName(tr.NodeID), tr.From, tr.To))
	}
	if t := s.threats.MaybeSpawn(now, s.registry.Nodes(), s.faction); t != nil {
		s.metrics.RecordThreatSpawned(string(t.Severity), "spawn")
		s.addLog(now, "New threat: "+t.Description)
	}
	return true
}

// durationTick reports, per node, how long it has continuously held one of
// the faction's tracked statuses.
func (s *Session) durationTick(now time.Time) bool {
	if s.mode != ModePlaying || len(s.timers) == 0 {
		return false
	}
	rt := objective.NodeMonitoredDuration
	if s.faction == model.BlackHat {
		rt = objective.NodeAccessMaintainedDuration
	}
	for _, id := range s.registry.IDs() {
		t, ok := s.timers[id]
		if !ok {
			continue
		}
		s.progress(rt, now.Sub(t.since).Seconds(), &id, now)
	}
	return true
}

func (s *Session) regenTick(now time.Time) bool {
	s.metrics.UpdateSystemMetrics(s.wallStart)
	if s.mode != ModePlaying {
		return false
	}
	s.pool.Regenerate()
	return true
}

func (s *Session) feedbackTick(now time.Time) bool {
	return s.registry.SweepFeedback(now) > 0
}

func (s *Session) cleanupTick(now time.Time) bool {
	removed := s.threats.Cleanup(now)
	if removed > 0 {
		s.logger.Debug("threats cleaned up", logging.Int("removed", removed))
	}
	return removed > 0
}

// rampTick advances ramp gen. A tick already queued on the lock when its
// ramp was cancelled must not advance a newer one.
func (s *Session) rampTick(gen uint64, now time.Time) bool {
	if !s.transitioning || gen != s.rampGen {
		return false
	}
	s.rampProgress = min(rampFull, s.rampProgress+rampStep)
	if s.rampProgress >= rampFull {
		s.completeToggle(now)
	}
	return true
}

func (s *Session) onCascadeStep(step engine.CascadeStep) {
	s.metrics.RecordCascadeStep(step.Action.String(), true)
	s.addLog(s.sched.Now(), fmt.Sprintf("%s spread to %s: %s -> %s", step.Action, s.nodeName(step.NodeID), step.Prev, step.Status))
}

func (s *Session) onCascadeDropped(action model.Action, _ uint64) {
	s.metrics.RecordCascadeStep(action.String(), false)
}

func (s *Session) onThreats(ts []threat.Threat) {
	live := 0
	for _, t := range ts {
		if !t.Status.Terminal() {
			live++
		}
	}
	s.metrics.SetActiveThreats(live)
	s.bus.Publish(pubsub.TopicThreats, ts)
}

// onStatusChanged is the registry hook. Every status mutation runs under
// the session lock, so this does too.
func (s *Session) onStatusChanged(node network.Node, prev, cur model.NodeStatus) {
	now := s.sched.Now()
	if t := s.threats.OnNodeStatusChanged(node, prev, cur, s.faction, now); t != nil {
		s.metrics.RecordThreatSpawned(string(t.Severity), "status")
	}
	s.trackTimer(node.ID, cur, now)

	id := node.ID
	switch s.faction {
	case model.WhiteHat:
		switch cur {
		case model.StatusSecure:
			s.progress(objective.NodesSecured, 1, &id, now)
			s.progress(objective.NodeSecured, 1, &id, now)
		case model.StatusBackedUp:
			s.progress(objective.SecurityUpgrades, 1, &id, now)
			s.progress(objective.NodeDefenseUpgraded, 1, &id, now)
			s.backedUp[id] = true
			s.progress(objective.EncryptionLevel, s.percentOfNodes(len(s.backedUp)), nil, now)
		case model.StatusQuarantined, model.StatusDetected:
			s.progress(objective.ThreatsBlocked, 1, &id, now)
		}
	case model.BlackHat:
		switch cur {
		case model.StatusCompromised:
			s.progress(objective.NodesCompromised, 1, &id, now)
			s.progress(objective.NodeCompromised, 1, &id, now)
		case model.StatusOverloaded, model.StatusDegraded:
			s.progress(objective.ServicesDisrupted, 1, &id, now)
		case model.StatusBreached:
			s.progress(objective.PrivilegeEscalation, 1, &id, now)
			s.progress(objective.NodePrivilegesEscalated, 1, &id, now)
		}
		held := s.registry.CountStatus(model.StatusCompromised, model.StatusBreached)
		s.progress(objective.AccessLevel, s.percentOfNodes(held), nil, now)
	}
	s.refreshIntegrity(now)
}

// trackTimer keeps a node's hold timer running while it moves between
// tracked statuses and drops it when it leaves them.
func (s *Session) trackTimer(id int, cur model.NodeStatus, now time.Time) {
	if !slices.Contains(heldStatuses[s.faction], cur) {
		delete(s.timers, id)
		return
	}
	if t, ok := s.timers[id]; ok {
		t.status = cur
		s.timers[id] = t
		return
	}
	s.timers[id] = stateTimer{status: cur, since: now}
}

func (s *Session) refreshIntegrity(now time.Time) {
	integrity := Integrity(s.registry.Nodes())
	s.progress(objective.SystemIntegrity, integrity, nil, now)
	s.progress(objective.SystemDisruption, 100-integrity, nil, now)
}

func (s *Session) percentOfNodes(n int) float64 {
	if s.registry.Len() == 0 {
		return 0
	}
	return float64(n) / float64(s.registry.Len()) * 100
}

// progress feeds the tracker and reports every completion it causes.
func (s *Session) progress(rt objective.RequirementType, value float64, nodeID *int, now time.Time) {
	for _, c := range s.tracker.UpdateProgress(rt, value, nodeID, now) {
		s.metrics.RecordObjectiveCompleted(s.faction.String(), c.Objective.Primary, c.Points)
		s.addLog(now, fmt.Sprintf("Objective complete: %s (+%d)", c.Objective.Title, c.Points))
		s.record(now, &audit.Event{Kind: audit.KindObjective, Message: c.Objective.Title})
		if c.FollowUp != nil {
			s.addLog(now, "New objective: "+c.FollowUp.Title)
		}
		s.bus.Publish(pubsub.TopicObjectives, c)
	}
}
