package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConfigValidator_RangeInt(t *testing.T) {
	tests := []struct {
		value   int
		wantErr bool
	}{
		{0, false},
		{100, false},
		{-1, true},
		{101, true},
	}
	for _, tt := range tests {
		cv := NewConfigValidator("Config")
		cv.RangeInt("Regen", tt.value, 0, 100)
		if cv.HasErrors() != tt.wantErr {
			t.Errorf("RangeInt(%d) errors=%v, want %v", tt.value, cv.HasErrors(), tt.wantErr)
		}
	}
}

func TestConfigValidator_CollectsAllErrors(t *testing.T) {
	err := NewConfigValidator("Config").
		Positive("Nodes", 0).
		RangeFloat("SpawnChance", 1.5, 0, 1).
		MinDuration("Tick", time.Millisecond, 10*time.Millisecond).
		OneOf("CooldownScope", "global", []string{"faction", "shared"}).
		Custom("Topology", func() error { return errors.New("dangling edge") }).
		Validate()

	if err == nil {
		t.Fatal("expected combined error")
	}
	for _, want := range []string{"Config.Nodes", "Config.SpawnChance", "Config.Tick", "Config.CooldownScope", "dangling edge"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("combined error missing %q: %v", want, err)
		}
	}
}

func TestConfigValidator_NoErrors(t *testing.T) {
	cv := NewConfigValidator("Config").Positive("Nodes", 6).OneOf("Scope", "faction", []string{"faction"})
	if err := cv.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(cv.Errors()) != 0 {
		t.Errorf("Errors() = %v", cv.Errors())
	}
}

func TestDefaultOr(t *testing.T) {
	if got := DefaultOr(0, 5); got != 5 {
		t.Errorf("DefaultOr(0, 5) = %d", got)
	}
	if got := DefaultOr("x", "y"); got != "x" {
		t.Errorf("DefaultOr(x, y) = %s", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(105, 0, 100); got != 100 {
		t.Errorf("Clamp(105) = %d", got)
	}
	if got := Clamp(-3, 0, 100); got != 0 {
		t.Errorf("Clamp(-3) = %d", got)
	}
	if got := Clamp(0.4, 0.0, 1.0); got != 0.4 {
		t.Errorf("Clamp(0.4) = %g", got)
	}
}
