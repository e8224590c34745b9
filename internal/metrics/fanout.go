package metrics

import "untangle/internal/depgraph"

// FanOut returns the number of distinct outgoing edges from path.
func FanOut(g *depgraph.Graph, path string) int {
	return len(g.OutEdges(path))
}

// FanIn returns the number of distinct incoming edges to path.
func FanIn(g *depgraph.Graph, path string) int {
	return len(g.InEdges(path))
}
