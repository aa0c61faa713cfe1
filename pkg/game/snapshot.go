package game

import (
	"time"

	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/network"
	"github.com/dd0wney/cluso-netsim/pkg/objective"
	"github.com/dd0wney/cluso-netsim/pkg/threat"
)

// Snapshot is a read-only copy of everything a presentation layer renders.
type Snapshot struct {
	At                 time.Time                      `json:"at"`
	Mode               Mode                           `json:"mode"`
	Faction            model.Faction                  `json:"faction"`
	Transitioning      bool                           `json:"transitioning"`
	TransitionProgress int                            `json:"transitionProgress"`
	Epoch              uint64                         `json:"epoch"`
	Nodes              []network.Node                 `json:"nodes"`
	Resources          model.Resources                `json:"resources"`
	Cooldowns          map[model.Action]time.Duration `json:"cooldowns"`
	Objectives         []objective.Objective          `json:"objectives"`
	Threats            []threat.Threat                `json:"threats"`
	Score              int                            `json:"score"`
	HighScore          int                            `json:"highScore"`
	Combo              float64                        `json:"combo"`
	Integrity          float64                        `json:"integrity"`
	SelectedNode       int                            `json:"selectedNode,omitempty"`
	SelectedAction     *model.Action                  `json:"selectedAction,omitempty"`
	Tutorial           *TutorialState                 `json:"tutorial,omitempty"`
	Log                []string                       `json:"log"`
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(s.sched.Now())
}

func (s *Session) snapshot(now time.Time) Snapshot {
	nodes := s.registry.Nodes()
	snap := Snapshot{
		At:                 now,
		Mode:               s.mode,
		Faction:            s.faction,
		Transitioning:      s.transitioning,
		TransitionProgress: s.rampProgress,
		Epoch:              s.engine.Epoch(),
		Nodes:              nodes,
		Resources:          s.pool.Snapshot(),
		Cooldowns:          make(map[model.Action]time.Duration),
		Objectives:         s.tracker.Objectives(),
		Threats:            s.threats.Threats(),
		Score:              s.scorer.Score(),
		HighScore:          s.scorer.HighScore(),
		Combo:              s.scorer.Combo(),
		Integrity:          Integrity(nodes),
		SelectedNode:       s.selectedNode,
		Log:                s.log.Lines(),
	}
	cds := s.engine.Cooldowns(s.faction)
	for _, a := range model.ActionsFor(s.faction) {
		if left := cds.Remaining(a, now); left > 0 {
			snap.Cooldowns[a] = left
		}
	}
	if s.actionSelected {
		a := s.selectedAction
		snap.SelectedAction = &a
	}
	if s.tutorial != nil {
		snap.Tutorial = s.tutorial.state()
	}
	return snap
}
