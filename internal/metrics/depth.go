package metrics

import "untangle/internal/depgraph"

// MaxDepth returns the longest path in the condensation DAG obtained by
// collapsing every SCC (trivial or not) into a single node.
func MaxDepth(g *depgraph.Graph) int {
	maxD, _ := depthMetrics(g)
	return maxD
}

// AvgDepth returns the mean, over every source node (in-degree zero) of
// the condensation DAG, of the longest path starting at that node.
func AvgDepth(g *depgraph.Graph) float64 {
	_, avg := depthMetrics(g)
	return avg
}

func depthMetrics(g *depgraph.Graph) (int, float64) {
	compOf, compCount := componentAssignment(g)
	if compCount <= 1 {
		return 0, 0
	}

	outEdges := make([][]int, compCount)
	seen := make(map[[2]int]bool)
	for _, e := range g.Edges() {
		u, v := compOf[e.From], compOf[e.To]
		if u == v {
			continue
		}
		key := [2]int{u, v}
		if !seen[key] {
			seen[key] = true
			outEdges[u] = append(outEdges[u], v)
		}
	}

	inEdges := make([][]int, compCount)
	for u, targets := range outEdges {
		for _, v := range targets {
			inEdges[v] = append(inEdges[v], u)
		}
	}

	order := reverseTopoOrder(outEdges, compCount)

	distFrom := make([]int, compCount)
	for _, u := range order {
		for _, v := range outEdges[u] {
			candidate := distFrom[v] + 1
			if candidate > distFrom[u] {
				distFrom[u] = candidate
			}
		}
	}

	maxDepth := 0
	for _, d := range distFrom {
		if d > maxDepth {
			maxDepth = d
		}
	}

	var sources []int
	for c := 0; c < compCount; c++ {
		if len(inEdges[c]) == 0 {
			sources = append(sources, c)
		}
	}

	avgDepth := 0.0
	if len(sources) > 0 {
		total := 0
		for _, s := range sources {
			total += distFrom[s]
		}
		avg := float64(total) / float64(len(sources))
		avgDepth = roundTo2(avg)
	}

	return maxDepth, avgDepth
}

// componentAssignment maps every node path to a dense 0-based component
// index using Tarjan's SCC decomposition (all components, trivial or not).
func componentAssignment(g *depgraph.Graph) (map[string]int, int) {
	components := tarjanSCC(g)
	compOf := make(map[string]int)
	for i, members := range components {
		for _, m := range members {
			compOf[m] = i
		}
	}
	return compOf, len(components)
}

// reverseTopoOrder returns component indices such that for every edge
// u->v, v is emitted before u (Kahn's algorithm keyed on out-degree).
func reverseTopoOrder(outEdges [][]int, n int) []int {
	outDegree := make([]int, n)
	for u := range outEdges {
		outDegree[u] = len(outEdges[u])
	}
	inEdges := make([][]int, n)
	for u, targets := range outEdges {
		for _, v := range targets {
			inEdges[v] = append(inEdges[v], u)
		}
	}

	var queue []int
	for u := 0; u < n; u++ {
		if outDegree[u] == 0 {
			queue = append(queue, u)
		}
	}

	order := make([]int, 0, n)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		order = append(order, u)
		for _, v := range inEdges[u] {
			outDegree[v]--
			if outDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	return order
}

func roundTo2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
