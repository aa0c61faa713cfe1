// Package network holds the node registry: the topology, each node's status
// and its UI flags. All status changes go through SetStatus so observers see
// every transition.
package network

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-netsim/pkg/logging"
	"github.com/dd0wney/cluso-netsim/pkg/model"
)

// FeedbackWindow is how long a success/failure pulse stays on a node.
const FeedbackWindow = time.Second

// Node is a single host in the simulated network.
type Node struct {
	ID            int              `json:"id"`
	Name          string           `json:"name"`
	Type          model.NodeType   `json:"type"`
	Layer         model.Layer      `json:"layer"`
	Status        model.NodeStatus `json:"status"`
	Defense       int              `json:"defense"`
	Interactable  bool             `json:"interactable"`
	Connections   []int            `json:"connections"`
	Feedback      model.Feedback   `json:"feedback,omitempty"`
	FeedbackUntil time.Time        `json:"feedbackUntil,omitempty"`
	Highlighted   bool             `json:"highlighted"`
	Selected      bool             `json:"selected"`
}

func (n *Node) clone() Node {
	c := *n
	c.Connections = append([]int(nil), n.Connections...)
	return c
}

// StatusObserver is called after every status change with the node as it is now.
type StatusObserver func(node Node, prev, cur model.NodeStatus)

// Registry owns the nodes. It is not safe for concurrent use; the game
// session serializes all access.
type Registry struct {
	nodes     []*Node // registry order
	index     map[int]*Node
	observers []StatusObserver
	logger    logging.Logger
}

// New builds a registry from a topology. A malformed graph returns a
// *DataIntegrityError.
func New(topology Topology, logger logging.Logger) (*Registry, error) {
	if err := topology.Check(); err != nil {
		return nil, err
	}

	r := &Registry{
		nodes:  make([]*Node, 0, len(topology.Nodes)),
		index:  make(map[int]*Node, len(topology.Nodes)),
		logger: logging.OrDefault(logger).With(logging.Component("network")),
	}
	for _, spec := range topology.Nodes {
		interactable := true
		if spec.Interactable != nil {
			interactable = *spec.Interactable
		}
		n := &Node{
			ID:           spec.ID,
			Name:         spec.Name,
			Type:         spec.Type,
			Layer:        spec.Layer,
			Status:       model.StatusActive,
			Defense:      spec.Defense,
			Interactable: interactable,
			Connections:  append([]int(nil), spec.Connections...),
		}
		r.nodes = append(r.nodes, n)
		r.index[n.ID] = n
	}
	return r, nil
}

// Observe registers fn for status changes. Observers run synchronously in
// registration order.
func (r *Registry) Observe(fn StatusObserver) {
	r.observers = append(r.observers, fn)
}

// Len returns the number of nodes.
func (r *Registry) Len() int { return len(r.nodes) }

// Get returns a copy of the node.
func (r *Registry) Get(id int) (Node, bool) {
	n, ok := r.index[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Nodes returns copies of every node in registry order.
func (r *Registry) Nodes() []Node {
	out := make([]Node, len(r.nodes))
	for i, n := range r.nodes {
		out[i] = n.clone()
	}
	return out
}

// IDs returns node ids in registry order.
func (r *Registry) IDs() []int {
	out := make([]int, len(r.nodes))
	for i, n := range r.nodes {
		out[i] = n.ID
	}
	return out
}

// NeighborsOf returns the ids connected to id, in registry order.
func (r *Registry) NeighborsOf(id int) []int {
	n, ok := r.index[id]
	if !ok {
		return nil
	}
	var out []int
	for _, other := range r.nodes {
		if contains(n.Connections, other.ID) {
			out = append(out, other.ID)
		}
	}
	return out
}

// SetStatus moves a node to status and returns the previous one. Setting the
// current status again is a no-op and does not notify observers.
func (r *Registry) SetStatus(id int, status model.NodeStatus) (model.NodeStatus, error) {
	n, ok := r.index[id]
	if !ok {
		return "", fmt.Errorf("set status on %d: %w", id, ErrNodeNotFound)
	}
	if !status.Valid() {
		return n.Status, fmt.Errorf("set status %q on %d: %w", status, id, ErrInvalidStatus)
	}

	prev := n.Status
	if prev == status {
		return prev, nil
	}
	n.Status = status

	r.logger.Debug("node status changed",
		logging.NodeID(id), logging.String("from", string(prev)), logging.Status(string(status)))

	snapshot := n.clone()
	for _, fn := range r.observers {
		fn(snapshot, prev, status)
	}
	return prev, nil
}

// ResetAll re-seeds every node to the faction default and clears UI flags.
// It is a bulk re-seed, not a transition, so observers are not notified.
func (r *Registry) ResetAll(faction model.Faction) {
	status := faction.DefaultStatus()
	for _, n := range r.nodes {
		n.Status = status
		n.Feedback = model.FeedbackNone
		n.FeedbackUntil = time.Time{}
		n.Highlighted = false
		n.Selected = false
	}
	r.logger.Info("registry reset", logging.Faction(faction), logging.Status(string(status)))
}

// SetFeedback attaches a pulse to a node that expires FeedbackWindow after now.
func (r *Registry) SetFeedback(id int, fb model.Feedback, now time.Time) error {
	n, ok := r.index[id]
	if !ok {
		return fmt.Errorf("set feedback on %d: %w", id, ErrNodeNotFound)
	}
	n.Feedback = fb
	n.FeedbackUntil = now.Add(FeedbackWindow)
	return nil
}

// SweepFeedback clears every expired pulse and returns how many were cleared.
func (r *Registry) SweepFeedback(now time.Time) int {
	cleared := 0
	for _, n := range r.nodes {
		if n.Feedback != model.FeedbackNone && !now.Before(n.FeedbackUntil) {
			n.Feedback = model.FeedbackNone
			n.FeedbackUntil = time.Time{}
			cleared++
		}
	}
	return cleared
}

// Select marks id as the selected node, clearing any previous selection.
// An id of 0 clears the selection.
func (r *Registry) Select(id int) error {
	if id != 0 {
		if _, ok := r.index[id]; !ok {
			return fmt.Errorf("select %d: %w", id, ErrNodeNotFound)
		}
	}
	for _, n := range r.nodes {
		n.Selected = n.ID == id
	}
	return nil
}

// Highlight marks exactly the given nodes as highlighted.
func (r *Registry) Highlight(ids ...int) {
	for _, n := range r.nodes {
		n.Highlighted = contains(ids, n.ID)
	}
}

// CountStatus returns how many nodes are in any of the given statuses.
func (r *Registry) CountStatus(statuses ...model.NodeStatus) int {
	count := 0
	for _, n := range r.nodes {
		for _, s := range statuses {
			if n.Status == s {
				count++
				break
			}
		}
	}
	return count
}
