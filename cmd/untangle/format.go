package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"untangle/internal/depgraph"
	"untangle/internal/diffengine"
	"untangle/internal/langfrontend"
	"untangle/internal/metrics"
)

// OutputFormat selects how a report envelope is rendered to stdout.
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatText  OutputFormat = "text"
	FormatDOT   OutputFormat = "dot"
	FormatSARIF OutputFormat = "sarif"
)

func parseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatJSON, FormatText, FormatDOT, FormatSARIF:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// AnalyzeReport is the `analyze` command's result envelope.
type AnalyzeReport struct {
	Path              string                `json:"path"`
	Language          langfrontend.Language `json:"language"`
	Summary           metrics.Summary       `json:"summary"`
	FilesSkipped      int                   `json:"filesSkipped"`
	UnresolvedImports int                   `json:"unresolvedImports"`
	TopFanOut         []NodeMetric          `json:"topFanOut"`
}

// NodeMetric is one ranked entry in an AnalyzeReport's top-N list.
type NodeMetric struct {
	Path    string  `json:"path"`
	FanOut  int     `json:"fanOut"`
	FanIn   int     `json:"fanIn"`
	Entropy float64 `json:"entropy"`
}

// GraphReport is the `graph` command's result envelope.
type GraphReport struct {
	Path     string                `json:"path"`
	Language langfrontend.Language `json:"language"`
	Nodes    []depgraph.Node       `json:"nodes"`
	Edges    []depgraph.Edge       `json:"edges"`
}

func rankedFanOut(g *depgraph.Graph, top int) []NodeMetric {
	sccSizes := metrics.NodeSCCSize(g)
	nodes := g.Nodes()
	ranked := make([]NodeMetric, 0, len(nodes))
	for _, n := range nodes {
		out := g.OutEdges(n.Path)
		weights := make([]int, len(out))
		for i, e := range out {
			weights[i] = e.Weight
		}
		entropy := metrics.SCCAdjustedEntropy(metrics.ShannonEntropy(weights), sccSizes[n.Path])
		ranked = append(ranked, NodeMetric{
			Path:    n.Path,
			FanOut:  len(out),
			FanIn:   len(g.InEdges(n.Path)),
			Entropy: entropy,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].FanOut != ranked[j].FanOut {
			return ranked[i].FanOut > ranked[j].FanOut
		}
		return ranked[i].Path < ranked[j].Path
	})
	if top > 0 && top < len(ranked) {
		ranked = ranked[:top]
	}
	return ranked
}

func renderJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json: %w", err)
	}
	return string(data), nil
}

func renderReport(v interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return renderJSON(v)
	case FormatText:
		return renderText(v)
	case FormatDOT:
		gr, ok := v.(*GraphReport)
		if !ok {
			return "", fmt.Errorf("dot format is only supported for the graph command")
		}
		return renderDOT(gr), nil
	case FormatSARIF:
		dr, ok := v.(*diffengine.DiffResult)
		if !ok {
			return "", fmt.Errorf("sarif format is only supported for the diff command")
		}
		return renderJSON(toSARIF(dr))
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func renderText(v interface{}) (string, error) {
	var b strings.Builder
	switch r := v.(type) {
	case *AnalyzeReport:
		fmt.Fprintf(&b, "untangle analyze  %s (%s)\n", r.Path, r.Language)
		fmt.Fprintf(&b, "  nodes=%d edges=%d sccs=%d largest_scc=%d scc_nodes=%d max_depth=%d avg_depth=%.2f complexity=%d\n",
			r.Summary.NodeCount, r.Summary.EdgeCount, r.Summary.SCCCount, r.Summary.LargestSCCSize, r.Summary.TotalSCCNodes,
			r.Summary.MaxDepth, r.Summary.AvgDepth, r.Summary.TotalComplexity)
		fmt.Fprintf(&b, "  fan-out mean=%.2f p90=%d max=%d   fan-in mean=%.2f p90=%d max=%d\n",
			r.Summary.MeanFanOut, r.Summary.P90FanOut, r.Summary.MaxFanOut,
			r.Summary.MeanFanIn, r.Summary.P90FanIn, r.Summary.MaxFanIn)
		if r.FilesSkipped > 0 || r.UnresolvedImports > 0 {
			fmt.Fprintf(&b, "  files_skipped=%d unresolved_imports=%d\n", r.FilesSkipped, r.UnresolvedImports)
		}
		if len(r.TopFanOut) > 0 {
			fmt.Fprintln(&b, "\ntop fan-out:")
			for _, n := range r.TopFanOut {
				fmt.Fprintf(&b, "  %-6d %s\n", n.FanOut, n.Path)
			}
		}
	case *GraphReport:
		fmt.Fprintf(&b, "untangle graph  %s (%s)\n", r.Path, r.Language)
		fmt.Fprintf(&b, "  %d nodes, %d edges\n", len(r.Nodes), len(r.Edges))
	case *diffengine.DiffResult:
		fmt.Fprintf(&b, "untangle diff  %s..%s  verdict=%s\n", r.BaseRef, r.HeadRef, r.Verdict)
		fmt.Fprintf(&b, "  nodes +%d -%d   edges +%d -%d (net %+d)\n",
			r.SummaryDelta.NodesAdded, r.SummaryDelta.NodesRemoved,
			r.SummaryDelta.EdgesAdded, r.SummaryDelta.EdgesRemoved, r.SummaryDelta.NetEdgeChange)
		if len(r.Reasons) > 0 {
			fmt.Fprintf(&b, "  reasons: %s\n", strings.Join(r.Reasons, ", "))
		}
		if len(r.FanoutChanges) > 0 {
			fmt.Fprintln(&b, "\nfan-out changes:")
			for _, fc := range r.FanoutChanges {
				fmt.Fprintf(&b, "  %-40s %d -> %d (%+d)\n", fc.Node, fc.FanoutBefore, fc.FanoutAfter, fc.Delta)
			}
		}
		if len(r.SCCChanges.NewSCCs) > 0 {
			fmt.Fprintln(&b, "\nnew SCCs:")
			for _, s := range r.SCCChanges.NewSCCs {
				fmt.Fprintf(&b, "  %v\n", s.Members)
			}
		}
	default:
		return renderJSON(v)
	}
	return b.String(), nil
}

func renderDOT(r *GraphReport) string {
	var b strings.Builder
	fmt.Fprintln(&b, "digraph untangle {")
	for _, n := range r.Nodes {
		fmt.Fprintf(&b, "  %q;\n", n.Path)
	}
	for _, e := range r.Edges {
		fmt.Fprintf(&b, "  %q -> %q [weight=%d];\n", e.From, e.To, e.Weight)
	}
	fmt.Fprintln(&b, "}")
	return b.String()
}

// sarifReport is a minimal SARIF 2.1.0 log wrapping a diff verdict's
// triggered fail-on conditions as CI-gating results.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Rules   []string `json:"rules,omitempty"`
}

type sarifResult struct {
	RuleID  string       `json:"ruleId"`
	Level   string       `json:"level"`
	Message sarifMessage `json:"message"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

func toSARIF(r *diffengine.DiffResult) sarifReport {
	results := make([]sarifResult, 0, len(r.Reasons))
	for _, reason := range r.Reasons {
		results = append(results, sarifResult{
			RuleID: reason,
			Level:  "error",
			Message: sarifMessage{
				Text: fmt.Sprintf("dependency-structure regression between %s and %s: %s", r.BaseRef, r.HeadRef, reason),
			},
		})
	}
	return sarifReport{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{Name: "untangle", Version: "0.1.0"}},
			Results: results,
		}},
	}
}
