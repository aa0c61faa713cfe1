package audit

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dd0wney/cluso-netsim/pkg/model"
)

var t0 = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func actionEvent(i int, faction model.Faction, action string, result string) *Event {
	return &Event{
		Timestamp: t0.Add(time.Duration(i) * time.Second),
		Kind:      KindAction,
		Faction:   faction,
		Action:    action,
		NodeID:    i%6 + 1,
		Result:    result,
		Score:     i * 10,
	}
}

func TestMemoryTrail_RecordFillsIDAndTimestamp(t *testing.T) {
	trail := NewMemoryTrail(4)
	e := &Event{Kind: KindMode, Message: "IDLE -> PLAYING"}
	if err := trail.Record(e); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Errorf("id %q timestamp %v not filled", e.ID, e.Timestamp)
	}

	kept := &Event{ID: "fixed", Timestamp: t0}
	_ = trail.Record(kept)
	if kept.ID != "fixed" || !kept.Timestamp.Equal(t0) {
		t.Error("caller-provided id or timestamp overwritten")
	}
}

func TestMemoryTrail_CircularBuffer(t *testing.T) {
	trail := NewMemoryTrail(3)
	for i := 0; i < 5; i++ {
		_ = trail.Record(actionEvent(i, model.WhiteHat, "MONITOR", "SUCCESS"))
	}
	if trail.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", trail.Count())
	}

	all := trail.Events(nil)
	for i, e := range all {
		if e.Score != (i+2)*10 {
			t.Errorf("event %d score = %d, want %d", i, e.Score, (i+2)*10)
		}
	}
	recent := trail.Recent(10)
	if len(recent) != 3 || recent[0].Score != 40 {
		t.Errorf("Recent = %v", recent)
	}

	trail.Clear()
	if trail.Count() != 0 || len(trail.Events(nil)) != 0 {
		t.Error("Clear left events behind")
	}
}

func TestFilter(t *testing.T) {
	black := model.BlackHat
	start := t0.Add(2 * time.Second)
	tests := []struct {
		name   string
		filter *Filter
		want   int
	}{
		{"nil", nil, 6},
		{"kind", &Filter{Kind: KindAction}, 5},
		{"faction", &Filter{Faction: &black}, 2},
		{"action", &Filter{Action: "MONITOR"}, 3},
		{"node", &Filter{NodeID: 1}, 1},
		{"result", &Filter{Result: "FAILED"}, 1},
		{"since", &Filter{StartTime: &start}, 3},
		{"until", &Filter{EndTime: &start}, 4},
	}

	trail := NewMemoryTrail(10)
	_ = trail.Record(actionEvent(0, model.WhiteHat, "MONITOR", "SUCCESS"))
	_ = trail.Record(actionEvent(1, model.WhiteHat, "MONITOR", "SUCCESS"))
	_ = trail.Record(actionEvent(2, model.WhiteHat, "MONITOR", "FAILED"))
	_ = trail.Record(actionEvent(3, model.BlackHat, "EXPLOIT", "SUCCESS"))
	_ = trail.Record(actionEvent(4, model.BlackHat, "BACKDOOR", "SUCCESS"))
	_ = trail.Record(&Event{Timestamp: t0.Add(time.Second), Kind: KindMode, Faction: model.WhiteHat})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(trail.Events(tt.filter)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestFileTrail_ChainAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trail.jsonl")

	trail, err := OpenFileTrail(path)
	if err != nil {
		t.Fatalf("OpenFileTrail: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := trail.Record(actionEvent(i, model.WhiteHat, "BACKUP", "SUCCESS")); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if trail.Count() != 3 {
		t.Errorf("Count() = %d, want 3", trail.Count())
	}
	if err := trail.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := trail.Record(&Event{}); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Record after close = %v, want os.ErrClosed", err)
	}

	trail, err = OpenFileTrail(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = trail.Record(&Event{Timestamp: t0, Kind: KindFaction, Faction: model.BlackHat, Message: "switched"})
	_ = trail.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	n, err := Verify(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if n != 4 {
		t.Errorf("verified %d events, want 4", n)
	}

	events, err := Read(bytes.NewReader(data), &Filter{Kind: KindFaction})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(events) != 1 || events[0].Faction != model.BlackHat || events[0].Message != "switched" {
		t.Errorf("Read = %+v", events)
	}
}

func TestVerify_DetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trail.jsonl")
	trail, err := OpenFileTrail(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		_ = trail.Record(actionEvent(i, model.BlackHat, "EXPLOIT", "FAILED"))
	}
	_ = trail.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	tests := []struct {
		name  string
		input string
		valid int
	}{
		{"edited result", strings.Join([]string{lines[0], strings.Replace(lines[1], `"FAILED"`, `"SUCCESS"`, 1), lines[2]}, "\n"), 1},
		{"dropped line", strings.Join([]string{lines[0], lines[2]}, "\n"), 1},
		{"reordered", strings.Join([]string{lines[1], lines[0], lines[2]}, "\n"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Verify(strings.NewReader(tt.input))
			if !errors.Is(err, ErrChainBroken) {
				t.Fatalf("err = %v, want ErrChainBroken", err)
			}
			if n != tt.valid {
				t.Errorf("verified %d before failure, want %d", n, tt.valid)
			}
		})
	}

	if _, err := Verify(strings.NewReader("{not json")); err == nil || errors.Is(err, ErrChainBroken) {
		t.Errorf("garbage input err = %v", err)
	}
}

func TestEventString(t *testing.T) {
	e := actionEvent(1, model.BlackHat, "EXPLOIT", "SUCCESS")
	s := e.String()
	for _, want := range []string{"2024-07-01T12:00:01Z", "action", "BLACK_HAT", "EXPLOIT node=2 result=SUCCESS", "(score 10)"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
