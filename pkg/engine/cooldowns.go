package engine

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-netsim/pkg/model"
)

// CooldownScope selects whether the two factions share cooldown state.
type CooldownScope string

const (
	// ScopeFaction keeps one map per faction and clears them on a faction toggle.
	ScopeFaction CooldownScope = "faction"
	// ScopeShared keeps a single map that survives a faction toggle.
	ScopeShared CooldownScope = "shared"
)

// ParseCooldownScope accepts "faction" or "shared"; empty means ScopeFaction.
func ParseCooldownScope(s string) (CooldownScope, error) {
	switch CooldownScope(s) {
	case "", ScopeFaction:
		return ScopeFaction, nil
	case ScopeShared:
		return ScopeShared, nil
	}
	return "", fmt.Errorf("unknown cooldown scope %q", s)
}

// Cooldowns maps each action to the instant it becomes available again.
type Cooldowns struct {
	until map[model.Action]time.Time
}

// NewCooldowns returns an empty cooldown map.
func NewCooldowns() *Cooldowns {
	return &Cooldowns{until: make(map[model.Action]time.Time)}
}

// Ready reports whether the action may be used at now.
func (c *Cooldowns) Ready(a model.Action, now time.Time) bool {
	return !now.Before(c.until[a])
}

// Remaining returns how long until the action is ready, or 0.
func (c *Cooldowns) Remaining(a model.Action, now time.Time) time.Duration {
	if d := c.until[a].Sub(now); d > 0 {
		return d
	}
	return 0
}

// Set records when the action is next available.
func (c *Cooldowns) Set(a model.Action, until time.Time) {
	c.until[a] = until
}

// Until returns the stored availability instant (zero if never used).
func (c *Cooldowns) Until(a model.Action) time.Time {
	return c.until[a]
}

// Clear forgets every cooldown.
func (c *Cooldowns) Clear() {
	clear(c.until)
}

// Snapshot copies the map.
func (c *Cooldowns) Snapshot() map[model.Action]time.Time {
	out := make(map[model.Action]time.Time, len(c.until))
	for a, t := range c.until {
		out[a] = t
	}
	return out
}
