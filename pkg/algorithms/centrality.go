package algorithms

import "sort"

// Ranked pairs a node with a score.
type Ranked struct {
	NodeID int
	Score  float64
}

// BetweennessCentrality computes normalised betweenness with Brandes'
// algorithm. A high score marks a chokepoint most shortest paths cross.
func BetweennessCentrality(g *Graph) map[int]float64 {
	cb := make(map[int]float64, len(g.ids))
	for _, id := range g.ids {
		cb[id] = 0
	}

	for _, s := range g.ids {
		stack := make([]int, 0, len(g.ids))
		preds := make(map[int][]int, len(g.ids))
		sigma := map[int]float64{s: 1}
		dist := map[int]int{s: 0}

		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range g.adj[v] {
				if _, ok := dist[w]; !ok {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		delta := make(map[int]float64, len(stack))
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				cb[w] += delta[w]
			}
		}
	}

	// Each undirected pair was counted from both ends.
	n := float64(len(g.ids))
	if n > 2 {
		norm := (n - 1) * (n - 2)
		for id := range cb {
			cb[id] /= norm
		}
	}
	return cb
}

// DegreeCentrality returns each node's degree divided by n-1.
func DegreeCentrality(g *Graph) map[int]float64 {
	dc := make(map[int]float64, len(g.ids))
	n := float64(len(g.ids))
	for _, id := range g.ids {
		if n > 1 {
			dc[id] = float64(len(g.adj[id])) / (n - 1)
		} else {
			dc[id] = 0
		}
	}
	return dc
}

// TopN ranks scores descending, ties by ascending id, and keeps at most n.
// n <= 0 keeps everything.
func TopN(scores map[int]float64, n int) []Ranked {
	out := make([]Ranked, 0, len(scores))
	for id, s := range scores {
		out = append(out, Ranked{NodeID: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].NodeID < out[j].NodeID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
