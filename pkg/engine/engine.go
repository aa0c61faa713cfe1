// Package engine resolves player actions against the node registry: it
// checks preconditions, spends resources, rolls for success, applies the
// status transition and schedules cascades onto connected nodes.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-netsim/pkg/balance"
	"github.com/dd0wney/cluso-netsim/pkg/clock"
	"github.com/dd0wney/cluso-netsim/pkg/logging"
	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/network"
	"github.com/dd0wney/cluso-netsim/pkg/resources"
)

// CascadeDelay separates consecutive neighbour cascade steps.
const CascadeDelay = 500 * time.Millisecond

// Result classifies an Outcome. The zero value means nothing was resolved.
type Result int

const (
	ResultNone Result = iota
	ResultSuccess
	ResultFailed
	ResultInvalidTarget
	ResultOnCooldown
	ResultInsufficientResources
	ResultNotFound
)

func (r Result) String() string {
	switch r {
	case ResultNone:
		return "NONE"
	case ResultSuccess:
		return "SUCCESS"
	case ResultFailed:
		return "FAILED"
	case ResultInvalidTarget:
		return "INVALID_TARGET"
	case ResultOnCooldown:
		return "ON_COOLDOWN"
	case ResultInsufficientResources:
		return "INSUFFICIENT_RESOURCES"
	case ResultNotFound:
		return "NOT_FOUND"
	default:
		return "UNKNOWN"
	}
}

// Roller draws uniform floats in [0, 1). *rand.Rand satisfies it.
type Roller interface {
	Float64() float64
}

// Outcome is the full record of one Resolve call.
type Outcome struct {
	Action        model.Action
	Faction       model.Faction
	TargetID      int
	Result        Result
	Err           error // *ActionError when Resolve rejects, the session error when nothing ran
	Probability   float64
	Draw          float64
	PrevStatus    model.NodeStatus
	NewStatus     model.NodeStatus
	Cost          model.Resources
	CooldownUntil time.Time
	Immediate     []int // nodes changed in the same resolution besides the target
	Cascade       []int // neighbours scheduled for a delayed cascade step
}

// Resolved reports whether the action got past its preconditions.
func (o Outcome) Resolved() bool {
	return o.Result == ResultSuccess || o.Result == ResultFailed
}

// Succeeded reports whether the roll succeeded.
func (o Outcome) Succeeded() bool { return o.Result == ResultSuccess }

// Affected counts the nodes a successful action touches, including scheduled cascades.
func (o Outcome) Affected() int {
	if !o.Succeeded() {
		return 0
	}
	return 1 + len(o.Immediate) + len(o.Cascade)
}

// Message is the user-facing log line for the outcome.
func (o Outcome) Message(nodeName string) string {
	switch o.Result {
	case ResultSuccess:
		return fmt.Sprintf("%s on %s succeeded: %s -> %s", o.Action, nodeName, o.PrevStatus, o.NewStatus)
	case ResultFailed:
		return fmt.Sprintf("%s on %s failed (%.0f%% chance)", o.Action, nodeName, o.Probability*100)
	case ResultInvalidTarget:
		return fmt.Sprintf("Invalid target for %s", o.Action)
	case ResultOnCooldown:
		return fmt.Sprintf("%s is on cooldown", o.Action)
	case ResultInsufficientResources:
		return fmt.Sprintf("Insufficient resources for %s", o.Action)
	case ResultNone:
		return fmt.Sprintf("%s was not attempted", o.Action)
	default:
		return fmt.Sprintf("%s: node %d not found", o.Action, o.TargetID)
	}
}

// CascadeStep is reported for every delayed neighbour transition that lands.
type CascadeStep struct {
	Action model.Action
	NodeID int
	Prev   model.NodeStatus
	Status model.NodeStatus
}

// Options configures an Engine.
type Options struct {
	Scope CooldownScope
	// Guard wraps every deferred cascade step, typically to take the
	// session lock. Nil runs steps directly.
	Guard func(fn func())
	// OnCascadeStep is called, inside Guard, after a delayed step is applied.
	OnCascadeStep func(CascadeStep)
	// OnCascadeDropped is called, inside Guard, for a step discarded
	// because the epoch moved on.
	OnCascadeDropped func(action model.Action, epoch uint64)
	Logger           logging.Logger
}

// Engine is not safe for concurrent use; deferred steps go through Options.Guard.
type Engine struct {
	balance  *balance.Table
	registry *network.Registry
	pool     *resources.Pool
	sched    clock.Scheduler
	rng      Roller
	opts     Options
	logger   logging.Logger

	cooldowns map[model.Faction]*Cooldowns
	epoch     uint64
}

// New wires an engine to its collaborators.
func New(table *balance.Table, registry *network.Registry, pool *resources.Pool, sched clock.Scheduler, rng Roller, opts Options) *Engine {
	if opts.Scope == "" {
		opts.Scope = ScopeFaction
	}
	if opts.Guard == nil {
		opts.Guard = func(fn func()) { fn() }
	}
	e := &Engine{
		balance:   table,
		registry:  registry,
		pool:      pool,
		sched:     sched,
		rng:       rng,
		opts:      opts,
		logger:    logging.OrDefault(opts.Logger).With(logging.Component("engine")),
		cooldowns: make(map[model.Faction]*Cooldowns, 2),
	}
	shared := NewCooldowns()
	for _, f := range []model.Faction{model.WhiteHat, model.BlackHat} {
		if opts.Scope == ScopeShared {
			e.cooldowns[f] = shared
		} else {
			e.cooldowns[f] = NewCooldowns()
		}
	}
	return e
}

// Cooldowns returns the cooldown map the faction resolves against.
func (e *Engine) Cooldowns(f model.Faction) *Cooldowns {
	return e.cooldowns[f]
}

// Epoch returns the current session epoch.
func (e *Engine) Epoch() uint64 { return e.epoch }

// AdvanceEpoch invalidates every cascade scheduled so far.
func (e *Engine) AdvanceEpoch() uint64 {
	e.epoch++
	return e.epoch
}

// OnFactionChanged clears cooldowns when they are kept per faction.
func (e *Engine) OnFactionChanged() {
	if e.opts.Scope == ScopeFaction {
		e.ClearCooldowns()
	}
}

// ClearCooldowns forgets every cooldown for both factions.
func (e *Engine) ClearCooldowns() {
	for _, c := range e.cooldowns {
		c.Clear()
	}
}

// Resolve attempts action against targetID. Preconditions are checked in
// order (target, source status, cooldown, resources) and the first failure
// returns without mutating anything.
func (e *Engine) Resolve(action model.Action, targetID int, faction model.Faction, now time.Time) Outcome {
	out := Outcome{Action: action, Faction: faction, TargetID: targetID}

	node, ok := e.registry.Get(targetID)
	if !ok {
		out.Result = ResultNotFound
		out.Err = reject(action, faction, targetID, ErrNodeNotFound, "")
		return out
	}
	out.PrevStatus = node.Status
	out.NewStatus = node.Status
	if !node.Interactable {
		out.Result = ResultInvalidTarget
		out.Err = reject(action, faction, targetID, ErrNotInteractable, "%s", node.Name)
		return out
	}

	rule, ok := RuleFor(action)
	if !ok || action.Faction() != faction {
		out.Result = ResultInvalidTarget
		out.Err = reject(action, faction, targetID, ErrInvalidTarget, "not a %s action", faction)
		return out
	}
	if !rule.ValidSource(node.Status) {
		out.Result = ResultInvalidTarget
		out.Err = reject(action, faction, targetID, ErrInvalidTarget, "status %s", node.Status)
		return out
	}

	cds := e.cooldowns[faction]
	if !cds.Ready(action, now) {
		out.Result = ResultOnCooldown
		out.CooldownUntil = cds.Until(action)
		out.Err = reject(action, faction, targetID, ErrOnCooldown, "%s remaining", cds.Remaining(action, now).Round(100*time.Millisecond))
		return out
	}

	entry, _ := e.balance.Lookup(action, faction)
	out.Cost = entry.Cost
	if err := e.pool.Spend(entry.Cost); err != nil {
		out.Result = ResultInsufficientResources
		out.Err = reject(action, faction, targetID, ErrInsufficientResources, "need %s, have %s", entry.Cost, e.pool.Snapshot())
		return out
	}

	out.Probability = e.balance.SuccessProbability(action, faction, node.Status, node.Defense)
	out.Draw = e.rng.Float64()

	if out.Draw < out.Probability {
		out.Result = ResultSuccess
		e.apply(&out, rule, now)
	} else {
		out.Result = ResultFailed
		_ = e.registry.SetFeedback(targetID, model.FeedbackFailure, now)
	}

	out.CooldownUntil = now.Add(entry.Cooldown)
	cds.Set(action, out.CooldownUntil)

	e.logger.Info("action resolved",
		logging.Action(action), logging.Faction(faction), logging.NodeID(targetID),
		logging.String("result", out.Result.String()),
		logging.Float64("probability", out.Probability), logging.Float64("draw", out.Draw))
	return out
}

func (e *Engine) apply(out *Outcome, rule Rule, now time.Time) {
	if _, err := e.registry.SetStatus(out.TargetID, rule.Result); err != nil {
		e.logger.Error("apply transition", logging.NodeID(out.TargetID), logging.Error(err))
		return
	}
	out.NewStatus = rule.Result
	_ = e.registry.SetFeedback(out.TargetID, model.FeedbackSuccess, now)

	c := rule.Cascade
	switch c.Scope {
	case CascadeNetwork:
		for _, n := range e.registry.Nodes() {
			if n.ID == out.TargetID || !c.Applies(n.Status) {
				continue
			}
			if _, err := e.registry.SetStatus(n.ID, c.To); err == nil {
				_ = e.registry.SetFeedback(n.ID, model.FeedbackSuccess, now)
				out.Immediate = append(out.Immediate, n.ID)
			}
		}
	case CascadeNeighbors:
		for _, id := range e.registry.NeighborsOf(out.TargetID) {
			if n, ok := e.registry.Get(id); ok && c.Applies(n.Status) {
				out.Cascade = append(out.Cascade, id)
			}
		}
		if len(out.Cascade) > 0 {
			e.scheduleStep(out.Action, c, out.Cascade, 0, e.epoch)
		}
	}
}

// scheduleStep chains cascade steps so each one runs after the previous has
// landed, CascadeDelay apart.
func (e *Engine) scheduleStep(action model.Action, c Cascade, ids []int, i int, epoch uint64) {
	e.sched.AfterFunc(CascadeDelay, func() {
		e.opts.Guard(func() {
			if e.epoch != epoch {
				e.logger.Debug("dropping stale cascade",
					logging.Action(action), logging.Epoch(epoch), logging.Any("current_epoch", e.epoch))
				if e.opts.OnCascadeDropped != nil {
					e.opts.OnCascadeDropped(action, epoch)
				}
				return
			}
			e.applyStep(action, c, ids[i])
			if i+1 < len(ids) {
				e.scheduleStep(action, c, ids, i+1, epoch)
			}
		})
	})
}

func (e *Engine) applyStep(action model.Action, c Cascade, id int) {
	n, ok := e.registry.Get(id)
	if !ok || !c.Applies(n.Status) {
		return
	}
	prev, err := e.registry.SetStatus(id, c.To)
	if err != nil {
		if !errors.Is(err, network.ErrNodeNotFound) {
			e.logger.Error("cascade step", logging.NodeID(id), logging.Error(err))
		}
		return
	}
	_ = e.registry.SetFeedback(id, model.FeedbackSuccess, e.sched.Now())
	if e.opts.OnCascadeStep != nil {
		e.opts.OnCascadeStep(CascadeStep{Action: action, NodeID: id, Prev: prev, Status: c.To})
	}
}
