package diffengine

import (
	"testing"

	"untangle/internal/depgraph"
	"untangle/internal/parsecommon"
)

func addEdge(g *depgraph.Graph, from, to string) {
	g.AddEdge(from, to, parsecommon.SourceLocation{File: from, Line: 1})
}

func buildGraph(nodes []string, edges [][2]string) *depgraph.Graph {
	g := depgraph.New()
	for _, n := range nodes {
		g.AddNode(depgraph.Node{Kind: depgraph.NodeModule, Path: n})
	}
	for _, e := range edges {
		addEdge(g, e[0], e[1])
	}
	return g
}

func TestComputeFanoutIncrease(t *testing.T) {
	base := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}})
	head := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"a", "c"}})

	result := Compute(base, head, "base", "head")

	if len(result.NewEdges) != 1 || result.NewEdges[0].From != "a" || result.NewEdges[0].To != "c" {
		t.Fatalf("expected new edge a->c, got %+v", result.NewEdges)
	}
	if len(result.FanoutChanges) != 1 {
		t.Fatalf("expected exactly one fanout change, got %+v", result.FanoutChanges)
	}
	fc := result.FanoutChanges[0]
	if fc.Node != "a" || fc.FanoutBefore != 1 || fc.FanoutAfter != 2 || fc.Delta != 1 {
		t.Errorf("unexpected fanout change: %+v", fc)
	}

	result = EvaluatePolicy(result, []string{"fanout-increase"}, head)
	if result.Verdict != Fail {
		t.Errorf("expected verdict fail, got %s", result.Verdict)
	}
	if len(result.Reasons) != 1 || result.Reasons[0] != "fanout-increase" {
		t.Errorf("expected reason fanout-increase, got %v", result.Reasons)
	}
}

func TestComputeNewSCCEmerges(t *testing.T) {
	base := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	head := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})

	result := Compute(base, head, "base", "head")
	if len(result.SCCChanges.NewSCCs) != 1 {
		t.Fatalf("expected 1 new SCC, got %+v", result.SCCChanges.NewSCCs)
	}
	want := []string{"a", "b", "c"}
	for i, m := range result.SCCChanges.NewSCCs[0].Members {
		if m != want[i] {
			t.Errorf("member[%d] = %s, want %s", i, m, want[i])
		}
	}

	result = EvaluatePolicy(result, []string{"new-scc"}, head)
	if result.Verdict != Fail {
		t.Errorf("expected verdict fail, got %s", result.Verdict)
	}
}

func TestComputeResolvedSCC(t *testing.T) {
	base := buildGraph([]string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
	head := buildGraph([]string{"a", "b"}, [][2]string{{"a", "b"}})

	result := Compute(base, head, "base", "head")
	if len(result.SCCChanges.ResolvedSCCs) != 1 {
		t.Fatalf("expected 1 resolved SCC, got %+v", result.SCCChanges.ResolvedSCCs)
	}
	if len(result.SCCChanges.NewSCCs) != 0 {
		t.Errorf("expected no new SCCs, got %+v", result.SCCChanges.NewSCCs)
	}
}

func TestComputeEnlargedSCC(t *testing.T) {
	base := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "a"}})
	head := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})

	result := Compute(base, head, "base", "head")
	if len(result.SCCChanges.EnlargedSCCs) != 1 {
		t.Fatalf("expected 1 enlarged SCC, got %+v", result.SCCChanges)
	}
	if result.SCCChanges.EnlargedSCCs[0].Size != 3 {
		t.Errorf("expected enlarged SCC size 3, got %d", result.SCCChanges.EnlargedSCCs[0].Size)
	}

	result = EvaluatePolicy(result, []string{"scc-growth"}, head)
	if result.Verdict != Fail {
		t.Errorf("expected verdict fail for scc-growth, got %s", result.Verdict)
	}
}

func TestEvaluatePolicyEvaluatesEveryCondition(t *testing.T) {
	base := buildGraph([]string{"a", "b"}, nil)
	head := buildGraph([]string{"a", "b"}, [][2]string{{"a", "b"}})

	result := Compute(base, head, "base", "head")
	result = EvaluatePolicy(result, []string{"new-scc", "new-edge", "fanout-increase"}, head)

	if result.Verdict != Fail {
		t.Fatalf("expected fail, got %s", result.Verdict)
	}
	// new-scc should not trigger (no cycle exists); new-edge and
	// fanout-increase both should (a gains its first outgoing edge).
	// All three conditions are evaluated regardless of short-circuiting,
	// and only genuinely triggered reasons appear, sorted.
	want := []string{"fanout-increase", "new-edge"}
	if len(result.Reasons) != len(want) {
		t.Fatalf("reasons = %v, want %v", result.Reasons, want)
	}
	for i, r := range result.Reasons {
		if r != want[i] {
			t.Errorf("reasons[%d] = %s, want %s", i, r, want[i])
		}
	}
}

func TestEvaluatePolicyFanoutThreshold(t *testing.T) {
	base := buildGraph([]string{"a", "b", "c", "d"}, nil)
	head := buildGraph([]string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"a", "c"}, {"a", "d"}})

	result := Compute(base, head, "base", "head")
	result = EvaluatePolicy(result, []string{"fanout-threshold=2"}, head)
	if result.Verdict != Fail {
		t.Errorf("expected fail, node a has fanout 3 > threshold 2")
	}

	result2 := Compute(base, head, "base", "head")
	result2 = EvaluatePolicy(result2, []string{"fanout-threshold=5"}, head)
	if result2.Verdict != Pass {
		t.Errorf("expected pass, node a has fanout 3 < threshold 5")
	}
}

func TestEvaluatePolicyNoConditionsAlwaysPasses(t *testing.T) {
	base := buildGraph([]string{"a"}, nil)
	head := buildGraph([]string{"a", "b"}, [][2]string{{"a", "b"}})

	result := Compute(base, head, "base", "head")
	result = EvaluatePolicy(result, nil, head)
	if result.Verdict != Pass {
		t.Errorf("expected pass with no fail-on conditions, got %s", result.Verdict)
	}
}

func TestComputeSummaryDeltaTotalSCCNodes(t *testing.T) {
	base := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	head := buildGraph([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})

	result := Compute(base, head, "base", "head")
	if result.SummaryDelta.TotalSCCNodesDelta != 3 {
		t.Errorf("TotalSCCNodesDelta = %d, want 3 (head gains a 3-member SCC, base has none)",
			result.SummaryDelta.TotalSCCNodesDelta)
	}
}

func TestComputeStampsAnalysisID(t *testing.T) {
	base := buildGraph([]string{"a"}, nil)
	head := buildGraph([]string{"a"}, nil)

	r1 := Compute(base, head, "base", "head")
	r2 := Compute(base, head, "base", "head")
	if r1.AnalysisID == "" {
		t.Fatal("expected a non-empty AnalysisID")
	}
	if r1.AnalysisID == r2.AnalysisID {
		t.Errorf("expected distinct AnalysisIDs across runs, got the same: %s", r1.AnalysisID)
	}
}
