package validation

import (
	"strings"
	"testing"
)

type sampleNode struct {
	Name    string `validate:"required,nodename"`
	Status  string `validate:"omitempty,nodestatus"`
	Defense int    `validate:"min=0,max=100"`
}

type sampleRule struct {
	Action  string `validate:"required,action"`
	Faction string `validate:"required,faction"`
}

func TestStruct_CustomTags(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		wantErr string
	}{
		{"valid node", &sampleNode{Name: "WEB-01", Status: "active", Defense: 50}, ""},
		{"bad name", &sampleNode{Name: "web 01", Defense: 50}, "Name"},
		{"bad status", &sampleNode{Name: "DB-01", Status: "on_fire"}, "not a node status"},
		{"defense too high", &sampleNode{Name: "FW-01", Defense: 101}, "must not exceed 100"},
		{"valid rule", &sampleRule{Action: "EXPLOIT", Faction: "BLACK_HAT"}, ""},
		{"bad action", &sampleRule{Action: "NUKE", Faction: "BLACK_HAT"}, "not an action"},
		{"bad faction", &sampleRule{Action: "MONITOR", Faction: "GREY_HAT"}, "not a faction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.value)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestStruct_Nil(t *testing.T) {
	if err := Struct(nil); err == nil {
		t.Error("expected error for nil")
	}
}
