// Package algorithms provides graph analysis over a network topology:
// reachability, attack paths, blast radius and chokepoint ranking.
package algorithms

import (
	"slices"

	"github.com/dd0wney/cluso-netsim/pkg/network"
)

// Graph is an undirected adjacency view of a topology.
type Graph struct {
	ids     []int
	adj     map[int][]int
	defense map[int]int
}

// FromTopology builds a graph from topology. Connections to unknown ids are
// ignored; run topology.Check first when that matters.
func FromTopology(topology network.Topology) *Graph {
	g := &Graph{
		adj:     make(map[int][]int, len(topology.Nodes)),
		defense: make(map[int]int, len(topology.Nodes)),
	}
	for _, n := range topology.Nodes {
		g.ids = append(g.ids, n.ID)
		g.adj[n.ID] = nil
		g.defense[n.ID] = n.Defense
	}
	for _, n := range topology.Nodes {
		for _, ref := range n.Connections {
			if _, ok := g.adj[ref]; ok && ref != n.ID {
				g.link(n.ID, ref)
			}
		}
	}
	slices.Sort(g.ids)
	for id := range g.adj {
		slices.Sort(g.adj[id])
	}
	return g
}

func (g *Graph) link(a, b int) {
	if !slices.Contains(g.adj[a], b) {
		g.adj[a] = append(g.adj[a], b)
	}
	if !slices.Contains(g.adj[b], a) {
		g.adj[b] = append(g.adj[b], a)
	}
}

// Nodes returns every node id in ascending order.
func (g *Graph) Nodes() []int { return slices.Clone(g.ids) }

// Neighbors returns the ids adjacent to id in ascending order.
func (g *Graph) Neighbors(id int) []int { return slices.Clone(g.adj[id]) }

// Has reports whether id is a node of g.
func (g *Graph) Has(id int) bool {
	_, ok := g.adj[id]
	return ok
}

// Defense returns the defense rating of id.
func (g *Graph) Defense(id int) int { return g.defense[id] }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, peers := range g.adj {
		n += len(peers)
	}
	return n / 2
}
