package game

import "github.com/dd0wney/cluso-netsim/pkg/model"

// StepKind is the kind of player event a tutorial step waits for.
type StepKind string

const (
	StepSelectNode    StepKind = "SELECT_NODE"
	StepSelectAction  StepKind = "SELECT_ACTION"
	StepPerformAction StepKind = "PERFORM_ACTION"
	StepEnd           StepKind = "END"
)

// Step is one gate in the tutorial. NodeID 0 and an empty RequiredStatus
// match anything; Action is only compared for action steps.
type Step struct {
	Kind           StepKind         `json:"kind"`
	Text           string           `json:"text"`
	NodeID         int              `json:"nodeId,omitempty"`
	Action         model.Action     `json:"action"`
	RequiredStatus model.NodeStatus `json:"requiredStatus,omitempty"`
}

// Event describes something the player just did. Status is the node's
// status when the event happened, before any resulting transition.
type Event struct {
	Kind   StepKind
	NodeID int
	Action model.Action
	Status model.NodeStatus
}

// Matches reports whether ev satisfies the step.
func (s Step) Matches(ev Event) bool {
	if s.Kind == StepEnd || ev.Kind != s.Kind {
		return false
	}
	if s.Kind != StepSelectAction {
		if s.NodeID != 0 && ev.NodeID != s.NodeID {
			return false
		}
		if s.RequiredStatus != "" && ev.Status != s.RequiredStatus {
			return false
		}
	}
	if s.Kind != StepSelectNode && ev.Action != s.Action {
		return false
	}
	return true
}

var tutorials = map[model.Faction][]Step{
	model.WhiteHat: {
		{Kind: StepSelectNode, NodeID: 1, Text: "As a defender your goal is to protect the network. Select WEB-01."},
		{Kind: StepSelectAction, Action: model.ActionMonitor, Text: "MONITOR watches a node and flags compromised neighbours. Pick it."},
		{Kind: StepPerformAction, NodeID: 1, Action: model.ActionMonitor, RequiredStatus: model.StatusSecure, Text: "Run MONITOR on WEB-01."},
		{Kind: StepSelectNode, NodeID: 4, Text: "Now select USER-PC."},
		{Kind: StepSelectAction, Action: model.ActionBackup, Text: "BACKUP upgrades a node's defenses. Pick it."},
		{Kind: StepPerformAction, NodeID: 4, Action: model.ActionBackup, RequiredStatus: model.StatusSecure, Text: "Run BACKUP on USER-PC."},
		{Kind: StepEnd, Text: "Tutorial complete. Keep system integrity above 80% and finish your objectives."},
	},
	model.BlackHat: {
		{Kind: StepSelectNode, NodeID: 1, Text: "As an attacker your goal is to compromise the network. Select WEB-01."},
		{Kind: StepSelectAction, Action: model.ActionScanTargets, Text: "SCAN_TARGETS exposes vulnerabilities. Pick it."},
		{Kind: StepPerformAction, NodeID: 1, Action: model.ActionScanTargets, RequiredStatus: model.StatusActive, Text: "Scan WEB-01."},
		{Kind: StepSelectNode, NodeID: 1, RequiredStatus: model.StatusVulnerable, Text: "WEB-01 is vulnerable now. Select it again."},
		{Kind: StepSelectAction, Action: model.ActionExploit, Text: "EXPLOIT compromises a vulnerable node. Pick it."},
		{Kind: StepPerformAction, NodeID: 1, Action: model.ActionExploit, RequiredStatus: model.StatusVulnerable, Text: "Exploit WEB-01."},
		{Kind: StepEnd, Text: "Tutorial complete. Break the network and finish your objectives."},
	},
}

// Tutorial walks a fixed step list, advancing one step per matching event.
type Tutorial struct {
	faction model.Faction
	steps   []Step
	index   int
}

// NewTutorial returns the faction's tutorial at its first step.
func NewTutorial(f model.Faction) *Tutorial {
	return &Tutorial{faction: f, steps: tutorials[f]}
}

// Current returns the step being waited on.
func (t *Tutorial) Current() Step { return t.steps[t.index] }

// Index returns the zero-based position of the current step.
func (t *Tutorial) Index() int { return t.index }

// Len returns the number of steps, the final END step included.
func (t *Tutorial) Len() int { return len(t.steps) }

// Done reports whether the END step has been reached.
func (t *Tutorial) Done() bool { return t.Current().Kind == StepEnd }

// Advance moves to the next step if ev matches the current one.
func (t *Tutorial) Advance(ev Event) bool {
	if !t.Current().Matches(ev) {
		return false
	}
	t.index++
	return true
}

// TutorialState is the outbound view of a tutorial.
type TutorialState struct {
	Faction model.Faction `json:"faction"`
	Index   int           `json:"index"`
	Total   int           `json:"total"`
	Step    Step          `json:"step"`
	Done    bool          `json:"done"`
}

func (t *Tutorial) state() *TutorialState {
	return &TutorialState{Faction: t.faction, Index: t.index, Total: len(t.steps), Step: t.Current(), Done: t.Done()}
}
