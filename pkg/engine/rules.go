package engine

import "github.com/dd0wney/cluso-netsim/pkg/model"

// CascadeScope says which nodes a successful action spreads to.
type CascadeScope int

const (
	CascadeNone      CascadeScope = iota
	CascadeNeighbors              // connected nodes, one step every CascadeDelay
	CascadeNetwork                // every node, applied in the same resolution
)

// Cascade is the secondary transition applied after a successful action.
type Cascade struct {
	Scope CascadeScope
	From  []model.NodeStatus // statuses eligible to change; empty means any
	Skip  []model.NodeStatus // statuses never changed
	To    model.NodeStatus
}

// Rule is the transition row for one action.
type Rule struct {
	Sources []model.NodeStatus
	Result  model.NodeStatus
	Cascade Cascade
}

var rules = map[model.Action]Rule{
	model.ActionPatchAll: {
		Sources: []model.NodeStatus{model.StatusVulnerable},
		Result:  model.StatusSecure,
		Cascade: Cascade{Scope: CascadeNetwork, From: []model.NodeStatus{model.StatusVulnerable}, To: model.StatusSecure},
	},
	model.ActionQuarantine: {
		Sources: []model.NodeStatus{model.StatusCompromised, model.StatusBreached},
		Result:  model.StatusQuarantined,
		Cascade: Cascade{Scope: CascadeNeighbors, Skip: []model.NodeStatus{model.StatusQuarantined}, To: model.StatusMonitoring},
	},
	model.ActionMonitor: {
		Sources: []model.NodeStatus{model.StatusActive, model.StatusSecure},
		Result:  model.StatusMonitoring,
		Cascade: Cascade{Scope: CascadeNeighbors, From: []model.NodeStatus{model.StatusCompromised}, To: model.StatusDetected},
	},
	model.ActionBackup: {
		Sources: []model.NodeStatus{model.StatusActive, model.StatusSecure},
		Result:  model.StatusBackedUp,
	},
	model.ActionScanTargets: {
		Sources: []model.NodeStatus{model.StatusActive, model.StatusSecure},
		Result:  model.StatusVulnerable,
	},
	model.ActionExploit: {
		Sources: []model.NodeStatus{model.StatusVulnerable},
		Result:  model.StatusCompromised,
		Cascade: Cascade{Scope: CascadeNeighbors, From: []model.NodeStatus{model.StatusActive}, To: model.StatusVulnerable},
	},
	model.ActionBackdoor: {
		Sources: []model.NodeStatus{model.StatusCompromised},
		Result:  model.StatusBreached,
		Cascade: Cascade{Scope: CascadeNeighbors, From: []model.NodeStatus{model.StatusVulnerable}, To: model.StatusCompromised},
	},
	model.ActionDenialOfService: {
		Sources: []model.NodeStatus{model.StatusActive, model.StatusSecure},
		Result:  model.StatusOverloaded,
		Cascade: Cascade{Scope: CascadeNeighbors, Skip: []model.NodeStatus{model.StatusOverloaded, model.StatusDegraded}, To: model.StatusDegraded},
	},
}

// RuleFor returns the transition row for an action.
func RuleFor(a model.Action) (Rule, bool) {
	r, ok := rules[a]
	return r, ok
}

// ValidSource reports whether status may be targeted by the action.
func (r Rule) ValidSource(status model.NodeStatus) bool {
	return hasStatus(r.Sources, status)
}

// Applies reports whether the cascade would change a node in status.
func (c Cascade) Applies(status model.NodeStatus) bool {
	if c.Scope == CascadeNone || status == c.To || hasStatus(c.Skip, status) {
		return false
	}
	return len(c.From) == 0 || hasStatus(c.From, status)
}

func hasStatus(set []model.NodeStatus, s model.NodeStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
