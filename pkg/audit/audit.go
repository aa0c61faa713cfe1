// Package audit keeps a tamper-evident trail of what happened in a game:
// every dispatched action, mode change, faction switch and completed
// objective.
package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-netsim/pkg/model"
)

// Kind classifies an event.
type Kind string

const (
	KindAction    Kind = "action"
	KindMode      Kind = "mode"
	KindFaction   Kind = "faction"
	KindObjective Kind = "objective"
)

// Event is a single trail entry.
type Event struct {
	ID          string           `json:"id"`
	Timestamp   time.Time        `json:"timestamp"`
	Kind        Kind             `json:"kind"`
	Faction     model.Faction    `json:"faction"`
	Action      string           `json:"action,omitempty"`
	NodeID      int              `json:"node_id,omitempty"`
	Result      string           `json:"result,omitempty"`
	Probability float64          `json:"probability,omitempty"`
	Draw        float64          `json:"draw,omitempty"`
	PrevStatus  model.NodeStatus `json:"prev_status,omitempty"`
	NewStatus   model.NodeStatus `json:"new_status,omitempty"`
	Score       int              `json:"score"`
	Message     string           `json:"message,omitempty"`
}

// String returns a human-readable representation of an event
func (e *Event) String() string {
	s := fmt.Sprintf("[%s] %-9s %s", e.Timestamp.Format(time.RFC3339), e.Kind, e.Faction)
	if e.Action != "" {
		s += fmt.Sprintf(" %s node=%d result=%s", e.Action, e.NodeID, e.Result)
	}
	if e.Message != "" {
		s += " " + e.Message
	}
	return s + fmt.Sprintf(" (score %d)", e.Score)
}

// Filter selects events. Zero fields match everything.
type Filter struct {
	Kind      Kind
	Faction   *model.Faction
	Action    string
	NodeID    int
	Result    string
	StartTime *time.Time
	EndTime   *time.Time
}

// Match reports whether e passes the filter. A nil filter matches all.
func (f *Filter) Match(e *Event) bool {
	if f == nil {
		return true
	}
	switch {
	case f.Kind != "" && e.Kind != f.Kind:
		return false
	case f.Faction != nil && e.Faction != *f.Faction:
		return false
	case f.Action != "" && e.Action != f.Action:
		return false
	case f.NodeID != 0 && e.NodeID != f.NodeID:
		return false
	case f.Result != "" && e.Result != f.Result:
		return false
	case f.StartTime != nil && e.Timestamp.Before(*f.StartTime):
		return false
	case f.EndTime != nil && e.Timestamp.After(*f.EndTime):
		return false
	}
	return true
}

// Recorder is implemented by every trail.
type Recorder interface {
	Record(event *Event) error
}

// fill sets the id and timestamp when the caller left them empty.
func fill(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
}

// MemoryTrail keeps the most recent events in a circular buffer.
type MemoryTrail struct {
	events     []*Event
	bufferSize int
	index      int
	count      int
	mu         sync.RWMutex
}

// NewMemoryTrail creates a trail holding at most bufferSize events.
func NewMemoryTrail(bufferSize int) *MemoryTrail {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &MemoryTrail{events: make([]*Event, bufferSize), bufferSize: bufferSize}
}

// Record stores event, evicting the oldest when full.
func (t *MemoryTrail) Record(event *Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fill(event)
	t.events[t.index] = event
	t.index = (t.index + 1) % t.bufferSize
	if t.count < t.bufferSize {
		t.count++
	}
	return nil
}

// Events returns stored events matching filter, oldest first.
func (t *MemoryTrail) Events(filter *Filter) []*Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*Event, 0, t.count)
	for i := 0; i < t.count; i++ {
		e := t.events[(t.index-t.count+i+t.bufferSize)%t.bufferSize]
		if e != nil && filter.Match(e) {
			result = append(result, e)
		}
	}
	return result
}

// Recent returns the n most recent events, newest first.
func (t *MemoryTrail) Recent(n int) []*Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n = min(n, t.count)
	result := make([]*Event, 0, n)
	for i := 0; i < n; i++ {
		result = append(result, t.events[(t.index-1-i+t.bufferSize)%t.bufferSize])
	}
	return result
}

// Count returns the number of stored events.
func (t *MemoryTrail) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Clear removes all events.
func (t *MemoryTrail) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = make([]*Event, t.bufferSize)
	t.index = 0
	t.count = 0
}
