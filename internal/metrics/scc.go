// Package metrics computes structural complexity measures over a
// dependency graph: fan-out/fan-in, strongly connected components,
// condensation-DAG depth, and entropy.
package metrics

import "untangle/internal/depgraph"

// SCCInfo describes one non-trivial strongly connected component.
type SCCInfo struct {
	ID            int
	Size          int
	Members       []string
	InternalEdges int
}

// FindNonTrivialSCCs returns every SCC of size greater than one, via
// Tarjan's algorithm. A single-node self-loop is never treated as a
// non-trivial SCC. IDs are assigned in ascending order of each SCC's
// smallest member path, giving stable ids independent of Tarjan's
// discovery order.
func FindNonTrivialSCCs(g *depgraph.Graph) []SCCInfo {
	components := tarjanSCC(g)

	var infos []SCCInfo
	for _, members := range components {
		if len(members) <= 1 {
			continue
		}
		infos = append(infos, buildSCCInfo(g, members))
	}

	sortSCCsByCanonicalPath(infos)
	for i := range infos {
		infos[i].ID = i
	}
	return infos
}

// NodeSCCMap returns, for every node in a non-trivial SCC, the SCC's id.
// Nodes not present are not part of any non-trivial SCC.
func NodeSCCMap(g *depgraph.Graph) map[string]int {
	sccs := FindNonTrivialSCCs(g)
	out := make(map[string]int)
	for _, scc := range sccs {
		for _, m := range scc.Members {
			out[m] = scc.ID
		}
	}
	return out
}

// NodeSCCSize returns the size of the non-trivial SCC containing path, or
// 1 if the node is not part of one.
func NodeSCCSize(g *depgraph.Graph) map[string]int {
	sccs := FindNonTrivialSCCs(g)
	sizes := make(map[string]int)
	for _, n := range g.Nodes() {
		sizes[n.Path] = 1
	}
	for _, scc := range sccs {
		for _, m := range scc.Members {
			sizes[m] = scc.Size
		}
	}
	return sizes
}

func buildSCCInfo(g *depgraph.Graph, members []string) SCCInfo {
	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}
	internal := 0
	for _, m := range members {
		for _, e := range g.OutEdges(m) {
			if memberSet[e.To] {
				internal++
			}
		}
	}
	sortStrings(members)
	return SCCInfo{Size: len(members), Members: members, InternalEdges: internal}
}

func sortSCCsByCanonicalPath(infos []SCCInfo) {
	for i := 1; i < len(infos); i++ {
		for j := i; j > 0 && infos[j].Members[0] < infos[j-1].Members[0]; j-- {
			infos[j], infos[j-1] = infos[j-1], infos[j]
		}
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// tarjanSCC computes strongly connected components of g, including
// self-loop singletons, in Tarjan's natural discovery order.
func tarjanSCC(g *depgraph.Graph) [][]string {
	nodes := g.Nodes()
	index := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	counter := 0
	var components [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, e := range g.OutEdges(v) {
			w := e.To
			if _, seen := index[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var component []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			components = append(components, component)
		}
	}

	for _, n := range nodes {
		if _, seen := index[n.Path]; !seen {
			strongconnect(n.Path)
		}
	}
	return components
}
