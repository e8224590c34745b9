// Package depgraph defines the dependency graph intermediate
// representation and a builder that accumulates resolved imports into
// nodes and weighted edges.
package depgraph

import (
	"sort"

	"untangle/internal/langfrontend"
	"untangle/internal/parsecommon"
)

// NodeKind discriminates the kind of graph node. Only Module is produced
// today; the others are reserved for future function/service granularity.
type NodeKind string

const (
	NodeModule   NodeKind = "module"
	NodeFunction NodeKind = "function"
	NodeService  NodeKind = "service"
	NodeEndpoint NodeKind = "endpoint"
)

// EdgeKind discriminates the kind of dependency relationship an edge
// represents. Only Import is produced today.
type EdgeKind string

const (
	EdgeImport EdgeKind = "import"
)

// Node is one module in the dependency graph.
type Node struct {
	Kind     NodeKind
	Path     string // canonical path relative to project root
	Name     string // human-readable dotted/slashed name
	Language langfrontend.Language
}

// Edge is a directed dependency between two nodes, keyed by (From, To).
type Edge struct {
	Kind            EdgeKind
	From, To        string
	SourceLocations []parsecommon.SourceLocation
	Weight          int
}

// Graph is the dependency graph: nodes keyed by canonical path, edges
// keyed by "from\x00to" for O(1) accumulation during construction.
type Graph struct {
	nodes map[string]Node
	edges map[string]*Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		edges: make(map[string]*Edge),
	}
}

func edgeKey(from, to string) string {
	return from + "\x00" + to
}

// AddNode inserts a node if not already present. Re-adding an existing
// path is a no-op; the first insertion wins.
func (g *Graph) AddNode(n Node) {
	if _, ok := g.nodes[n.Path]; !ok {
		g.nodes[n.Path] = n
	}
}

// AddEdge accumulates a source location onto the edge from->to, creating
// it if absent. An endpoint with no node yet is added as a module node
// whose path and name are the endpoint; an existing node is kept as is.
// Weight is recomputed as the source-location count.
// Duplicate source locations are never deduplicated: an import statement
// repeated verbatim still contributes another location and another unit
// of weight.
func (g *Graph) AddEdge(from, to string, loc parsecommon.SourceLocation) {
	key := edgeKey(from, to)
	for _, p := range []string{from, to} {
		if _, ok := g.nodes[p]; !ok {
			g.nodes[p] = Node{Kind: NodeModule, Path: p, Name: p}
		}
	}
	e, ok := g.edges[key]
	if !ok {
		e = &Edge{Kind: EdgeImport, From: from, To: to}
		g.edges[key] = e
	}
	e.SourceLocations = append(e.SourceLocations, loc)
	e.Weight = len(e.SourceLocations)
}

// Nodes returns every node, sorted by path for deterministic iteration.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Edges returns every edge, sorted by (From, To) for deterministic iteration.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Node looks up a node by canonical path.
func (g *Graph) Node(path string) (Node, bool) {
	n, ok := g.nodes[path]
	return n, ok
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// OutEdges returns the edges leaving path, sorted by To.
func (g *Graph) OutEdges(path string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.From == path {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].To < out[j].To })
	return out
}

// InEdges returns the edges arriving at path, sorted by From.
func (g *Graph) InEdges(path string) []Edge {
	var in []Edge
	for _, e := range g.edges {
		if e.To == path {
			in = append(in, *e)
		}
	}
	sort.Slice(in, func(i, j int) bool { return in[i].From < in[j].From })
	return in
}

// Builder assembles a Graph from per-file resolved imports across a whole
// project discovery pass.
type Builder struct {
	graph *Graph
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{graph: New()}
}

// AddFile registers a discovered file as a node before any of its
// resolved imports are added, so isolated files still appear in the graph.
func (b *Builder) AddFile(canonicalPath, name string, lang langfrontend.Language) {
	b.graph.AddNode(Node{Kind: NodeModule, Path: canonicalPath, Name: name, Language: lang})
}

// AddResolvedImport records a graph edge for a resolved, linked import.
// Non-edge imports (external, dynamic, unresolvable, or resolved-but-
// unlinked) are silently ignored; callers report those separately.
func (b *Builder) AddResolvedImport(fromPath string, resolved parsecommon.ResolvedImport) {
	if !resolved.IsEdge() {
		return
	}
	b.graph.AddEdge(fromPath, resolved.CanonicalPath, resolved.Raw.Location())
}

// Build returns the assembled graph.
func (b *Builder) Build() *Graph {
	return b.graph
}
