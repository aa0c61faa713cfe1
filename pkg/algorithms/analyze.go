package algorithms

import (
	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/network"
)

// AttackPath is the route from an entry node to a backend node.
type AttackPath struct {
	From       int   `json:"from" yaml:"from"`
	To         int   `json:"to" yaml:"to"`
	Shortest   []int `json:"shortest" yaml:"shortest"`
	Weakest    []int `json:"weakest" yaml:"weakest"`
	Resistance int   `json:"resistance" yaml:"resistance"`
}

// BlastRadius counts what an attacker holding a node reaches per hop.
type BlastRadius struct {
	From  int         `json:"from" yaml:"from"`
	ByHop map[int]int `json:"byHop" yaml:"byHop"`
	Total int         `json:"total" yaml:"total"`
}

// Report summarises a topology's exposure.
type Report struct {
	Nodes       int           `json:"nodes" yaml:"nodes"`
	Edges       int           `json:"edges" yaml:"edges"`
	Components  [][]int       `json:"components" yaml:"components"`
	Chokepoints []Ranked      `json:"chokepoints" yaml:"chokepoints"`
	Paths       []AttackPath  `json:"paths" yaml:"paths"`
	Blast       []BlastRadius `json:"blast" yaml:"blast"`
}

// Analyze treats frontend nodes as entry points and backend nodes as
// targets. Chokepoints keeps the top n nodes with non-zero betweenness;
// blast radius looks hops levels out.
func Analyze(topology network.Topology, chokepoints, hops int) (*Report, error) {
	g := FromTopology(topology)
	rep := &Report{Nodes: len(g.ids), Edges: g.EdgeCount()}

	for _, c := range ConnectedComponents(g).Components {
		rep.Components = append(rep.Components, c.Nodes)
	}
	for _, r := range TopN(BetweennessCentrality(g), chokepoints) {
		if r.Score > 0 {
			rep.Chokepoints = append(rep.Chokepoints, r)
		}
	}

	var entries, targets []int
	for _, n := range topology.Nodes {
		switch n.Layer {
		case model.LayerFrontend:
			entries = append(entries, n.ID)
		case model.LayerBackend:
			targets = append(targets, n.ID)
		}
	}

	for _, from := range entries {
		for _, to := range targets {
			weakest, resistance := WeakestPath(g, from, to)
			if weakest == nil {
				continue
			}
			rep.Paths = append(rep.Paths, AttackPath{
				From:       from,
				To:         to,
				Shortest:   ShortestPath(g, from, to),
				Weakest:    weakest,
				Resistance: resistance,
			})
		}
		kh, err := KHopNeighbours(g, from, hops)
		if err != nil {
			return nil, err
		}
		br := BlastRadius{From: from, ByHop: make(map[int]int, len(kh.ByHop)), Total: kh.Reachable()}
		for hop, ids := range kh.ByHop {
			br.ByHop[hop] = len(ids)
		}
		rep.Blast = append(rep.Blast, br)
	}
	return rep, nil
}
