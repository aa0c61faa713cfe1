package network

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/validation"
)

// Topology is the static description of the network a registry is built from.
type Topology struct {
	Nodes []NodeSpec `yaml:"nodes" validate:"required,min=1,dive"`
}

// NodeSpec describes one node and its connections.
type NodeSpec struct {
	ID           int            `yaml:"id" validate:"min=1"`
	Name         string         `yaml:"name" validate:"required,nodename"`
	Type         model.NodeType `yaml:"type" validate:"required,oneof=server database firewall router endpoint"`
	Layer        model.Layer    `yaml:"layer" validate:"required,oneof=frontend security network backend"`
	Defense      int            `yaml:"defense" validate:"min=0,max=100"`
	Interactable *bool          `yaml:"interactable,omitempty"`
	Connections  []int          `yaml:"connections" validate:"unique"`
}

// DefaultTopology returns the six-node reference network.
func DefaultTopology() Topology {
	return Topology{Nodes: []NodeSpec{
		{ID: 1, Name: "WEB-01", Type: model.TypeServer, Layer: model.LayerFrontend, Defense: 50, Connections: []int{2, 4, 5}},
		{ID: 2, Name: "FW-01", Type: model.TypeFirewall, Layer: model.LayerSecurity, Defense: 80, Connections: []int{1, 3, 5}},
		{ID: 3, Name: "DB-01", Type: model.TypeDatabase, Layer: model.LayerBackend, Defense: 70, Connections: []int{2, 5, 6}},
		{ID: 4, Name: "USER-PC", Type: model.TypeEndpoint, Layer: model.LayerFrontend, Defense: 30, Connections: []int{1, 5}},
		{ID: 5, Name: "RTR-01", Type: model.TypeRouter, Layer: model.LayerNetwork, Defense: 60, Connections: []int{1, 2, 3, 4, 6}},
		{ID: 6, Name: "APP-01", Type: model.TypeServer, Layer: model.LayerBackend, Defense: 65, Connections: []int{3, 5}},
	}}
}

// LoadTopology reads and validates a YAML topology file. Graph integrity
// (dangling or one-way connections) is checked by New.
func LoadTopology(path string) (Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Topology{}, fmt.Errorf("read topology: %w", err)
	}
	return ParseTopology(data)
}

// ParseTopology decodes and validates topology YAML.
func ParseTopology(data []byte) (Topology, error) {
	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Topology{}, fmt.Errorf("decode topology: %w", err)
	}
	if err := validation.Struct(&t); err != nil {
		return Topology{}, fmt.Errorf("invalid topology: %w", err)
	}
	return t, nil
}

// Check verifies the graph: unique ids, no self loops, every connection
// resolves and is reciprocated.
func (t Topology) Check() error {
	byID := make(map[int]NodeSpec, len(t.Nodes))
	for _, n := range t.Nodes {
		if _, dup := byID[n.ID]; dup {
			return &DataIntegrityError{NodeID: n.ID, Reason: "duplicate node id"}
		}
		byID[n.ID] = n
	}

	for _, n := range t.Nodes {
		for _, ref := range n.Connections {
			if ref == n.ID {
				return &DataIntegrityError{NodeID: n.ID, Ref: ref, Reason: "self connection"}
			}
			peer, ok := byID[ref]
			if !ok {
				return &DataIntegrityError{NodeID: n.ID, Ref: ref, Reason: "dangling connection"}
			}
			if !contains(peer.Connections, n.ID) {
				return &DataIntegrityError{NodeID: n.ID, Ref: ref, Reason: "connection not reciprocated"}
			}
		}
	}
	return nil
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
