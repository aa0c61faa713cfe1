// Package balance holds the per-(action, faction) tuning table: resource cost,
// cooldown, base success rate and base score, plus the effective success
// probability model shared by the action engine and the threat manager.
package balance

import (
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-netsim/pkg/logging"
	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/validation"
)

// ErrConfigMissing is returned when the table has no entry for an (action, faction) pair.
var ErrConfigMissing = errors.New("balance config missing")

// Entry is one row of the balance table.
type Entry struct {
	Cost            model.Resources
	Cooldown        time.Duration
	BaseSuccessRate float64
	BaseScore       int
}

type key struct {
	action  model.Action
	faction model.Faction
}

// Table is read-only after construction and safe for concurrent lookups.
type Table struct {
	entries map[key]Entry
	logger  logging.Logger
}

var defaults = map[model.Action]Entry{
	model.ActionPatchAll:        {Cost: model.Resources{Energy: 15, Bandwidth: 10, Processing: 20}, Cooldown: 7 * time.Second, BaseSuccessRate: 0.8, BaseScore: 100},
	model.ActionQuarantine:      {Cost: model.Resources{Energy: 20, Bandwidth: 25, Processing: 15}, Cooldown: 10 * time.Second, BaseSuccessRate: 0.7, BaseScore: 150},
	model.ActionMonitor:         {Cost: model.Resources{Energy: 5, Bandwidth: 5, Processing: 5}, Cooldown: 2 * time.Second, BaseSuccessRate: 1.0, BaseScore: 75},
	model.ActionBackup:          {Cost: model.Resources{Energy: 10, Bandwidth: 15, Processing: 10}, Cooldown: 8 * time.Second, BaseSuccessRate: 0.9, BaseScore: 200},
	model.ActionScanTargets:     {Cost: model.Resources{Energy: 10, Bandwidth: 15, Processing: 10}, Cooldown: 5 * time.Second, BaseSuccessRate: 0.9, BaseScore: 50},
	model.ActionExploit:         {Cost: model.Resources{Energy: 25, Bandwidth: 20, Processing: 30}, Cooldown: 12 * time.Second, BaseSuccessRate: 0.6, BaseScore: 200},
	model.ActionBackdoor:        {Cost: model.Resources{Energy: 30, Bandwidth: 25, Processing: 25}, Cooldown: 15 * time.Second, BaseSuccessRate: 0.5, BaseScore: 150},
	model.ActionDenialOfService: {Cost: model.Resources{Energy: 20, Bandwidth: 30, Processing: 20}, Cooldown: 10 * time.Second, BaseSuccessRate: 0.75, BaseScore: 125},
}

// Default returns the reference balance table.
func Default(logger logging.Logger) *Table {
	t := &Table{
		entries: make(map[key]Entry, len(defaults)),
		logger:  logging.OrDefault(logger).With(logging.Component("balance")),
	}
	for a, e := range defaults {
		t.entries[key{a, a.Faction()}] = e
	}
	return t
}

// Set overrides one row. Used by LoadFile and tests; not safe once the table is shared.
func (t *Table) Set(action model.Action, faction model.Faction, e Entry) {
	t.entries[key{action, faction}] = e
}

// Lookup returns the row for (action, faction). A miss logs a warning and
// returns the zero entry with an error wrapping ErrConfigMissing.
func (t *Table) Lookup(action model.Action, faction model.Faction) (Entry, error) {
	e, ok := t.entries[key{action, faction}]
	if !ok {
		t.logger.Warn("balance entry missing, using zero entry",
			logging.Action(action), logging.Faction(faction))
		return Entry{}, fmt.Errorf("%s/%s: %w", action, faction, ErrConfigMissing)
	}
	return e, nil
}

// CostOf returns the resource cost of an action.
func (t *Table) CostOf(action model.Action, faction model.Faction) (model.Resources, error) {
	e, err := t.Lookup(action, faction)
	return e.Cost, err
}

// CooldownOf returns how long an action stays unavailable after resolution.
func (t *Table) CooldownOf(action model.Action, faction model.Faction) (time.Duration, error) {
	e, err := t.Lookup(action, faction)
	return e.Cooldown, err
}

// BaseSuccessRate returns the unmodified success rate of an action.
func (t *Table) BaseSuccessRate(action model.Action, faction model.Faction) (float64, error) {
	e, err := t.Lookup(action, faction)
	return e.BaseSuccessRate, err
}

// BaseScore returns the points an action is worth per affected node before the combo.
func (t *Table) BaseScore(action model.Action, faction model.Faction) (int, error) {
	e, err := t.Lookup(action, faction)
	return e.BaseScore, err
}

// SuccessProbability adjusts the base rate for the target's status and defense.
// Defense weighs more heavily against Black Hat (defense/150) than White Hat (defense/200).
func (t *Table) SuccessProbability(action model.Action, faction model.Faction, status model.NodeStatus, defense int) float64 {
	p, _ := t.BaseSuccessRate(action, faction)

	switch faction {
	case model.WhiteHat:
		switch status {
		case model.StatusVulnerable:
			p += 0.2
		case model.StatusCompromised:
			p += 0.1
		}
		p -= float64(defense) / 200
	case model.BlackHat:
		if status == model.StatusSecure {
			p -= 0.3
		}
		p -= float64(defense) / 150
		if action == model.ActionExploit && status == model.StatusVulnerable {
			p += 0.3
		}
	}

	return validation.Clamp(p, 0, 1)
}
