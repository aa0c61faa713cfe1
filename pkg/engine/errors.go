package engine

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/network"
)

var (
	// ErrInvalidTarget means the node's status is not a valid source for the action,
	// or the action does not belong to the acting faction.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrOnCooldown means the action is not yet available again.
	ErrOnCooldown = errors.New("action on cooldown")

	// ErrInsufficientResources means the pool cannot cover the action's cost.
	ErrInsufficientResources = errors.New("insufficient resources")

	// ErrNodeNotFound means the target id does not resolve.
	ErrNodeNotFound = network.ErrNodeNotFound

	// ErrNotInteractable means the node exists but cannot be targeted.
	ErrNotInteractable = errors.New("node not interactable")
)

// ActionError describes a rejected dispatch. Nothing was mutated.
type ActionError struct {
	Action  model.Action
	Faction model.Faction
	NodeID  int
	Cause   error  // one of the sentinels above
	Context string // e.g. current status, remaining cooldown
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s on node %d (%s): %v", e.Action, e.NodeID, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s on node %d: %v", e.Action, e.NodeID, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ActionError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *ActionError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func reject(action model.Action, faction model.Faction, nodeID int, cause error, format string, args ...any) *ActionError {
	e := &ActionError{Action: action, Faction: faction, NodeID: nodeID, Cause: cause}
	if format != "" {
		e.Context = fmt.Sprintf(format, args...)
	}
	return e
}
