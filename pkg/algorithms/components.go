package algorithms

// Component is a maximal set of mutually reachable nodes.
type Component struct {
	ID    int
	Nodes []int
}

// ComponentsResult holds the connected components of a graph.
type ComponentsResult struct {
	Components    []Component
	NodeComponent map[int]int // node id -> component id
}

// Connected reports whether every node is reachable from every other.
func (r *ComponentsResult) Connected() bool { return len(r.Components) <= 1 }

// ConnectedComponents finds the connected components by BFS, visiting start
// nodes in ascending id order so ids are stable.
func ConnectedComponents(g *Graph) *ComponentsResult {
	res := &ComponentsResult{NodeComponent: make(map[int]int, len(g.ids))}
	visited := make(map[int]bool, len(g.ids))

	for _, start := range g.ids {
		if visited[start] {
			continue
		}
		comp := Component{ID: len(res.Components)}
		queue := []int{start}
		visited[start] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			comp.Nodes = append(comp.Nodes, id)
			res.NodeComponent[id] = comp.ID
			for _, peer := range g.adj[id] {
				if !visited[peer] {
					visited[peer] = true
					queue = append(queue, peer)
				}
			}
		}
		res.Components = append(res.Components, comp)
	}
	return res
}
