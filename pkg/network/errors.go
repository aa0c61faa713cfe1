package network

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound is returned when an id does not resolve to a node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidStatus is returned by SetStatus for a status outside the enum.
	ErrInvalidStatus = errors.New("invalid node status")
)

// DataIntegrityError reports a malformed topology. It is fatal: cascades
// assume every connection resolves and is symmetric.
type DataIntegrityError struct {
	NodeID int    // node whose definition is broken
	Ref    int    // offending connection reference, 0 if not applicable
	Reason string // e.g. "dangling connection"
}

// Error implements the error interface.
func (e *DataIntegrityError) Error() string {
	if e.Ref != 0 {
		return fmt.Sprintf("topology: node %d -> %d: %s", e.NodeID, e.Ref, e.Reason)
	}
	return fmt.Sprintf("topology: node %d: %s", e.NodeID, e.Reason)
}
