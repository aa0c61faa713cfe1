// Package resources implements the energy/bandwidth/processing pool that
// actions draw from. Every level stays within [0, Max].
package resources

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/validation"
)

const (
	// Max is the ceiling of every pool dimension.
	Max = 100

	// DefaultRegen is added to every dimension on each regeneration tick.
	DefaultRegen = 2
)

// ErrInsufficient is returned by Spend when any dimension would go negative.
var ErrInsufficient = errors.New("insufficient resources")

// Pool is the player's resource pool. It is not safe for concurrent use.
type Pool struct {
	level model.Resources
	regen int
}

// NewPool returns a full pool with the given per-tick regeneration.
func NewPool(regen int) *Pool {
	return &Pool{
		level: model.Resources{Energy: Max, Bandwidth: Max, Processing: Max},
		regen: validation.Clamp(regen, 0, Max),
	}
}

// Snapshot returns the current levels.
func (p *Pool) Snapshot() model.Resources { return p.level }

// CanAfford reports whether cost can be spent without going negative.
func (p *Pool) CanAfford(cost model.Resources) bool {
	return p.level.Covers(cost)
}

// Spend deducts cost from every dimension at once, or nothing at all.
func (p *Pool) Spend(cost model.Resources) error {
	if cost.Energy < 0 || cost.Bandwidth < 0 || cost.Processing < 0 {
		return fmt.Errorf("negative cost %s", cost)
	}
	if !p.CanAfford(cost) {
		return fmt.Errorf("need %s, have %s: %w", cost, p.level, ErrInsufficient)
	}
	p.level = p.level.Sub(cost)
	return nil
}

// Regenerate adds the regeneration amount to every dimension, capped at Max.
func (p *Pool) Regenerate() model.Resources {
	p.level = clampAll(model.Resources{
		Energy:     p.level.Energy + p.regen,
		Bandwidth:  p.level.Bandwidth + p.regen,
		Processing: p.level.Processing + p.regen,
	})
	return p.level
}

// Refill restores every dimension to Max.
func (p *Pool) Refill() {
	p.level = model.Resources{Energy: Max, Bandwidth: Max, Processing: Max}
}

func clampAll(r model.Resources) model.Resources {
	return model.Resources{
		Energy:     validation.Clamp(r.Energy, 0, Max),
		Bandwidth:  validation.Clamp(r.Bandwidth, 0, Max),
		Processing: validation.Clamp(r.Processing, 0, Max),
	}
}
