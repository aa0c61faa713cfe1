// Package model holds the vocabulary shared by every simulation component:
// factions, actions, node statuses and the resource triple.
package model

import (
	"fmt"
	"strings"
)

// Faction is the side the player is currently controlling
type Faction int

const (
	WhiteHat Faction = iota
	BlackHat
)

func (f Faction) String() string {
	switch f {
	case WhiteHat:
		return "WHITE_HAT"
	case BlackHat:
		return "BLACK_HAT"
	default:
		return "UNKNOWN"
	}
}

// Opponent returns the other faction
func (f Faction) Opponent() Faction {
	if f == WhiteHat {
		return BlackHat
	}
	return WhiteHat
}

// DefaultStatus is the status every node is re-seeded to when the faction is selected
func (f Faction) DefaultStatus() NodeStatus {
	if f == WhiteHat {
		return StatusSecure
	}
	return StatusActive
}

// ParseFaction accepts WHITE_HAT/BLACK_HAT in any case, plus "white"/"black"
func ParseFaction(s string) (Faction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WHITE_HAT", "WHITE":
		return WhiteHat, nil
	case "BLACK_HAT", "BLACK":
		return BlackHat, nil
	}
	return WhiteHat, fmt.Errorf("unknown faction %q", s)
}

// MarshalText encodes the faction by name
func (f Faction) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText accepts anything ParseFaction does
func (f *Faction) UnmarshalText(b []byte) error {
	v, err := ParseFaction(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Action is the closed set of operations a player can dispatch
type Action int

const (
	ActionPatchAll Action = iota
	ActionQuarantine
	ActionMonitor
	ActionBackup
	ActionScanTargets
	ActionExploit
	ActionBackdoor
	ActionDenialOfService

	actionCount
)

var actionNames = [actionCount]string{
	ActionPatchAll:        "PATCH_ALL",
	ActionQuarantine:      "QUARANTINE",
	ActionMonitor:         "MONITOR",
	ActionBackup:          "BACKUP",
	ActionScanTargets:     "SCAN_TARGETS",
	ActionExploit:         "EXPLOIT",
	ActionBackdoor:        "BACKDOOR",
	ActionDenialOfService: "DENIAL_OF_SERVICE",
}

func (a Action) String() string {
	if a < 0 || a >= actionCount {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// Valid reports whether a is one of the declared actions
func (a Action) Valid() bool {
	return a >= 0 && a < actionCount
}

// Faction returns the faction whose action set contains a
func (a Action) Faction() Faction {
	switch a {
	case ActionPatchAll, ActionQuarantine, ActionMonitor, ActionBackup:
		return WhiteHat
	default:
		return BlackHat
	}
}

// ParseAction maps an action name to its enum value
func ParseAction(s string) (Action, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range actionNames {
		if n == name {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// MarshalText encodes the action by name, so actions work as JSON map keys
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid action %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText accepts anything ParseAction does
func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// AllActions returns every action in declaration order
func AllActions() []Action {
	out := make([]Action, 0, actionCount)
	for a := Action(0); a < actionCount; a++ {
		out = append(out, a)
	}
	return out
}

// ActionsFor returns the action set available to a faction
func ActionsFor(f Faction) []Action {
	out := make([]Action, 0, 4)
	for _, a := range AllActions() {
		if a.Faction() == f {
			out = append(out, a)
		}
	}
	return out
}

// NodeStatus is the single status enum shared across factions
type NodeStatus string

const (
	StatusActive      NodeStatus = "active"
	StatusSecure      NodeStatus = "secure"
	StatusVulnerable  NodeStatus = "vulnerable"
	StatusCompromised NodeStatus = "compromised"
	StatusBreached    NodeStatus = "breached"
	StatusScanning    NodeStatus = "scanning"
	StatusPatching    NodeStatus = "patching"
	StatusMonitoring  NodeStatus = "monitoring"
	StatusQuarantined NodeStatus = "quarantined"
	StatusBackedUp    NodeStatus = "backed_up"
	StatusDetected    NodeStatus = "detected"
	StatusOverloaded  NodeStatus = "overloaded"
	StatusDegraded    NodeStatus = "degraded"
)

var allStatuses = []NodeStatus{
	StatusActive, StatusSecure, StatusVulnerable, StatusCompromised, StatusBreached,
	StatusScanning, StatusPatching, StatusMonitoring, StatusQuarantined, StatusBackedUp,
	StatusDetected, StatusOverloaded, StatusDegraded,
}

// Valid reports whether s is a declared status
func (s NodeStatus) Valid() bool {
	for _, v := range allStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// AllStatuses returns every declared status
func AllStatuses() []NodeStatus {
	out := make([]NodeStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// NodeType classifies the role of a node in the topology
type NodeType string

const (
	TypeServer   NodeType = "server"
	TypeDatabase NodeType = "database"
	TypeFirewall NodeType = "firewall"
	TypeRouter   NodeType = "router"
	TypeEndpoint NodeType = "endpoint"
)

// Layer is the architectural tier a node belongs to
type Layer string

const (
	LayerFrontend Layer = "frontend"
	LayerSecurity Layer = "security"
	LayerNetwork  Layer = "network"
	LayerBackend  Layer = "backend"
)

// Feedback is the one-shot UI pulse attached to a node after an action
type Feedback string

const (
	FeedbackNone    Feedback = ""
	FeedbackSuccess Feedback = "success"
	FeedbackFailure Feedback = "failure"
)

// Severity grades a threat
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// ThreatStatus is the lifecycle state of a threat
type ThreatStatus string

const (
	ThreatExecuting   ThreatStatus = "EXECUTING"
	ThreatDetected    ThreatStatus = "DETECTED"
	ThreatNeutralized ThreatStatus = "NEUTRALIZED"
	ThreatSuccess     ThreatStatus = "SUCCESS"
)

// Terminal reports whether the threat will no longer progress
func (s ThreatStatus) Terminal() bool {
	return s == ThreatNeutralized || s == ThreatSuccess
}

// Resources is an energy/bandwidth/processing triple, used both for pool levels and costs
type Resources struct {
	Energy     int `json:"energy" yaml:"energy" validate:"min=0,max=100"`
	Bandwidth  int `json:"bandwidth" yaml:"bandwidth" validate:"min=0,max=100"`
	Processing int `json:"processing" yaml:"processing" validate:"min=0,max=100"`
}

// Covers reports whether r holds at least cost in every dimension
func (r Resources) Covers(cost Resources) bool {
	return r.Energy >= cost.Energy && r.Bandwidth >= cost.Bandwidth && r.Processing >= cost.Processing
}

// Sub returns r minus cost, component-wise
func (r Resources) Sub(cost Resources) Resources {
	return Resources{
		Energy:     r.Energy - cost.Energy,
		Bandwidth:  r.Bandwidth - cost.Bandwidth,
		Processing: r.Processing - cost.Processing,
	}
}

func (r Resources) String() string {
	return fmt.Sprintf("E%d/B%d/P%d", r.Energy, r.Bandwidth, r.Processing)
}
