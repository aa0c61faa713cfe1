package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-netsim/pkg/model"
)

func TestStepMatches(t *testing.T) {
	selectNode := Step{Kind: StepSelectNode, NodeID: 1, RequiredStatus: model.StatusVulnerable}
	selectAction := Step{Kind: StepSelectAction, Action: model.ActionExploit}
	perform := Step{Kind: StepPerformAction, NodeID: 1, Action: model.ActionExploit, RequiredStatus: model.StatusVulnerable}

	tests := []struct {
		name string
		step Step
		ev   Event
		want bool
	}{
		{"node match", selectNode, Event{Kind: StepSelectNode, NodeID: 1, Status: model.StatusVulnerable}, true},
		{"node ignores action", selectNode, Event{Kind: StepSelectNode, NodeID: 1, Status: model.StatusVulnerable, Action: model.ActionBackdoor}, true},
		{"wrong node", selectNode, Event{Kind: StepSelectNode, NodeID: 2, Status: model.StatusVulnerable}, false},
		{"wrong status", selectNode, Event{Kind: StepSelectNode, NodeID: 1, Status: model.StatusActive}, false},
		{"wrong kind", selectNode, Event{Kind: StepSelectAction, NodeID: 1, Status: model.StatusVulnerable}, false},
		{"action match ignores node", selectAction, Event{Kind: StepSelectAction, Action: model.ActionExploit, NodeID: 9}, true},
		{"wrong action", selectAction, Event{Kind: StepSelectAction, Action: model.ActionScanTargets}, false},
		{"perform match", perform, Event{Kind: StepPerformAction, NodeID: 1, Action: model.ActionExploit, Status: model.StatusVulnerable}, true},
		{"perform wrong action", perform, Event{Kind: StepPerformAction, NodeID: 1, Action: model.ActionBackdoor, Status: model.StatusVulnerable}, false},
		{"end never matches", Step{Kind: StepEnd}, Event{Kind: StepEnd}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.step.Matches(tt.ev))
		})
	}
}

func TestTutorial_WalkThrough(t *testing.T) {
	tut := NewTutorial(model.BlackHat)
	require.Equal(t, 7, tut.Len())

	events := []Event{
		{Kind: StepSelectNode, NodeID: 1, Status: model.StatusActive},
		{Kind: StepSelectAction, Action: model.ActionScanTargets},
		{Kind: StepPerformAction, NodeID: 1, Action: model.ActionScanTargets, Status: model.StatusActive},
		{Kind: StepSelectNode, NodeID: 1, Status: model.StatusVulnerable},
		{Kind: StepSelectAction, Action: model.ActionExploit},
		{Kind: StepPerformAction, NodeID: 1, Action: model.ActionExploit, Status: model.StatusVulnerable},
	}
	for i, ev := range events {
		require.False(t, tut.Done())
		if i+1 < len(events) {
			assert.False(t, tut.Advance(events[i+1]), "step %d skipped ahead", i)
		}
		require.True(t, tut.Advance(ev), "step %d", i)
		assert.Equal(t, i+1, tut.Index())
	}
	assert.True(t, tut.Done())
	assert.Equal(t, StepEnd, tut.Current().Kind)
	assert.False(t, tut.Advance(events[0]))
}
