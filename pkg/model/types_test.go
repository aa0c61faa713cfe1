package model

import (
	"encoding/json"
	"testing"
)

func TestParseAction(t *testing.T) {
	for _, a := range AllActions() {
		t.Run(a.String(), func(t *testing.T) {
			got, err := ParseAction(a.String())
			if err != nil {
				t.Fatalf("ParseAction(%q): %v", a, err)
			}
			if got != a {
				t.Errorf("ParseAction(%q) = %v, want %v", a, got, a)
			}
		})
	}

	if _, err := ParseAction("HACK_THE_PLANET"); err == nil {
		t.Error("expected error for unknown action")
	}
	if got, err := ParseAction(" exploit "); err != nil || got != ActionExploit {
		t.Errorf("ParseAction should be case and space insensitive, got %v, %v", got, err)
	}
}

func TestActionsFor(t *testing.T) {
	white := ActionsFor(WhiteHat)
	black := ActionsFor(BlackHat)
	if len(white) != 4 || len(black) != 4 {
		t.Fatalf("expected 4 actions per faction, got white=%d black=%d", len(white), len(black))
	}
	for _, a := range white {
		if a.Faction() != WhiteHat {
			t.Errorf("%v listed for white hat but belongs to %v", a, a.Faction())
		}
	}
	for _, a := range black {
		if a.Faction() != BlackHat {
			t.Errorf("%v listed for black hat but belongs to %v", a, a.Faction())
		}
	}
}

func TestFactionDefaults(t *testing.T) {
	if WhiteHat.DefaultStatus() != StatusSecure {
		t.Errorf("white hat default = %s", WhiteHat.DefaultStatus())
	}
	if BlackHat.DefaultStatus() != StatusActive {
		t.Errorf("black hat default = %s", BlackHat.DefaultStatus())
	}
	if WhiteHat.Opponent() != BlackHat || BlackHat.Opponent() != WhiteHat {
		t.Error("Opponent should flip the faction")
	}
	if f, err := ParseFaction("black"); err != nil || f != BlackHat {
		t.Errorf("ParseFaction(black) = %v, %v", f, err)
	}
}

func TestResourcesCovers(t *testing.T) {
	pool := Resources{Energy: 20, Bandwidth: 20, Processing: 20}
	tests := []struct {
		name string
		cost Resources
		want bool
	}{
		{"exact", Resources{20, 20, 20}, true},
		{"under", Resources{5, 5, 5}, true},
		{"energy short", Resources{21, 0, 0}, false},
		{"bandwidth short", Resources{0, 21, 0}, false},
		{"processing short", Resources{0, 0, 21}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pool.Covers(tt.cost); got != tt.want {
				t.Errorf("Covers(%v) = %v, want %v", tt.cost, got, tt.want)
			}
		})
	}
}

func TestThreatStatusTerminal(t *testing.T) {
	if !ThreatNeutralized.Terminal() || !ThreatSuccess.Terminal() {
		t.Error("NEUTRALIZED and SUCCESS must be terminal")
	}
	if ThreatExecuting.Terminal() || ThreatDetected.Terminal() {
		t.Error("EXECUTING and DETECTED must not be terminal")
	}
}

func TestTextEncoding(t *testing.T) {
	in := map[Action]Faction{ActionExploit: BlackHat, ActionMonitor: WhiteHat}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"EXPLOIT":"BLACK_HAT","MONITOR":"WHITE_HAT"}`; string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}

	var out map[Action]Faction
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 || out[ActionExploit] != BlackHat || out[ActionMonitor] != WhiteHat {
		t.Errorf("round trip = %v", out)
	}

	if _, err := Action(99).MarshalText(); err == nil {
		t.Error("invalid action marshalled")
	}
}
