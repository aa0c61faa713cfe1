package algorithms

import (
	"container/heap"
	"fmt"
)

// ShortestPath returns the hop-minimal path from start to end, inclusive,
// or nil when end is unreachable. Ties resolve toward lower ids.
func ShortestPath(g *Graph, start, end int) []int {
	if !g.Has(start) || !g.Has(end) {
		return nil
	}
	if start == end {
		return []int{start}
	}

	parent := map[int]int{start: start}
	queue := []int{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, peer := range g.adj[id] {
			if _, seen := parent[peer]; seen {
				continue
			}
			parent[peer] = id
			if peer == end {
				return reconstructPath(parent, start, end)
			}
			queue = append(queue, peer)
		}
	}
	return nil
}

func reconstructPath(parent map[int]int, start, end int) []int {
	var path []int
	for id := end; id != start; id = parent[id] {
		path = append(path, id)
	}
	path = append(path, start)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// KHopResult holds the BFS neighbourhood of a source node.
type KHopResult struct {
	Source    int
	ByHop     map[int][]int // hop distance -> node ids at that distance
	Distances map[int]int   // node id -> shortest hop count
}

// Reachable returns the number of nodes found, excluding the source.
func (r *KHopResult) Reachable() int { return len(r.Distances) }

// KHopNeighbours walks at most maxHops levels out from source. The source is
// never included in the result.
func KHopNeighbours(g *Graph, source, maxHops int) (*KHopResult, error) {
	if maxHops < 1 {
		return nil, fmt.Errorf("maxHops must be >= 1, got %d", maxHops)
	}
	if !g.Has(source) {
		return nil, fmt.Errorf("node %d not in graph", source)
	}

	res := &KHopResult{Source: source, ByHop: make(map[int][]int), Distances: make(map[int]int)}
	seen := map[int]bool{source: true}
	frontier := []int{source}
	for hop := 1; hop <= maxHops && len(frontier) > 0; hop++ {
		var next []int
		for _, id := range frontier {
			for _, peer := range g.adj[id] {
				if seen[peer] {
					continue
				}
				seen[peer] = true
				res.Distances[peer] = hop
				res.ByHop[hop] = append(res.ByHop[hop], peer)
				next = append(next, peer)
			}
		}
		frontier = next
	}
	return res, nil
}

type pathItem struct {
	nodeID int
	cost   int
}

type pathQueue []pathItem

func (q pathQueue) Len() int { return len(q) }
func (q pathQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].nodeID < q[j].nodeID
}
func (q pathQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *pathQueue) Push(x any)   { *q = append(*q, x.(pathItem)) }
func (q *pathQueue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// WeakestPath finds the path from start to end whose nodes have the lowest
// total defense, start excluded: the route an attacker already holding start
// would take. It returns nil and -1 when end is unreachable.
func WeakestPath(g *Graph, start, end int) ([]int, int) {
	if !g.Has(start) || !g.Has(end) {
		return nil, -1
	}
	cost := map[int]int{start: 0}
	parent := map[int]int{start: start}
	done := make(map[int]bool, len(g.ids))

	pq := &pathQueue{{nodeID: start}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pathItem)
		if done[cur.nodeID] {
			continue
		}
		done[cur.nodeID] = true
		if cur.nodeID == end {
			return reconstructPath(parent, start, end), cur.cost
		}
		for _, peer := range g.adj[cur.nodeID] {
			next := cur.cost + g.defense[peer]
			if old, seen := cost[peer]; !seen || next < old {
				cost[peer] = next
				parent[peer] = cur.nodeID
				heap.Push(pq, pathItem{nodeID: peer, cost: next})
			}
		}
	}
	return nil, -1
}
