package resources

import (
	"errors"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-netsim/pkg/model"
)

func TestSpend(t *testing.T) {
	p := NewPool(DefaultRegen)

	if err := p.Spend(model.Resources{Energy: 25, Bandwidth: 20, Processing: 30}); err != nil {
		t.Fatalf("Spend: %v", err)
	}
	want := model.Resources{Energy: 75, Bandwidth: 80, Processing: 70}
	if got := p.Snapshot(); got != want {
		t.Errorf("after spend = %v, want %v", got, want)
	}
}

func TestSpend_RejectsRatherThanClamps(t *testing.T) {
	p := NewPool(0)
	_ = p.Spend(model.Resources{Energy: 90})
	before := p.Snapshot()

	err := p.Spend(model.Resources{Energy: 20, Bandwidth: 1, Processing: 1})
	if !errors.Is(err, ErrInsufficient) {
		t.Fatalf("err = %v, want ErrInsufficient", err)
	}
	if p.Snapshot() != before {
		t.Errorf("rejected spend mutated pool: %v -> %v", before, p.Snapshot())
	}
}

func TestSpend_NegativeCost(t *testing.T) {
	p := NewPool(0)
	if err := p.Spend(model.Resources{Energy: -5}); err == nil {
		t.Error("expected error for negative cost")
	}
}

func TestRegenerate(t *testing.T) {
	p := NewPool(DefaultRegen)
	_ = p.Spend(model.Resources{Energy: 1, Bandwidth: 50, Processing: 100})

	got := p.Regenerate()
	want := model.Resources{Energy: 100, Bandwidth: 52, Processing: 2}
	if got != want {
		t.Errorf("Regenerate = %v, want %v", got, want)
	}
}

func TestPoolProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	costGen := gen.Struct(
		reflect.TypeOf(model.Resources{}),
		map[string]gopter.Gen{
			"Energy":     gen.IntRange(0, 60),
			"Bandwidth":  gen.IntRange(0, 60),
			"Processing": gen.IntRange(0, 60),
		},
	)

	properties.Property("successful spend subtracts exactly the cost", prop.ForAll(
		func(costs []model.Resources) bool {
			p := NewPool(0)
			for _, c := range costs {
				before := p.Snapshot()
				err := p.Spend(c)
				after := p.Snapshot()
				if err == nil {
					if after != before.Sub(c) {
						return false
					}
				} else if after != before {
					return false
				}
				if after.Energy < 0 || after.Bandwidth < 0 || after.Processing < 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(costGen),
	))

	properties.Property("regeneration stays within bounds", prop.ForAll(
		func(regen int, costs []model.Resources, ticks int) bool {
			p := NewPool(regen)
			for _, c := range costs {
				_ = p.Spend(c)
				p.Regenerate()
			}
			for i := 0; i < ticks; i++ {
				r := p.Regenerate()
				if r.Energy > Max || r.Bandwidth > Max || r.Processing > Max {
					return false
				}
				if r.Energy < 0 || r.Bandwidth < 0 || r.Processing < 0 {
					return false
				}
			}
			return true
		},
		gen.IntRange(-10, 150),
		gen.SliceOf(costGen),
		gen.IntRange(0, 80),
	))

	properties.TestingRun(t)
}
