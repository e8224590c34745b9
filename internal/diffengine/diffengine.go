// Package diffengine computes structural deltas between two dependency
// graph snapshots and evaluates fail-on conditions against them to
// produce a pass/fail verdict for CI gating.
package diffengine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"untangle/internal/depgraph"
	"untangle/internal/metrics"
	"untangle/internal/parsecommon"
)

// Verdict is the outcome of policy evaluation.
type Verdict string

const (
	Pass Verdict = "pass"
	Fail Verdict = "fail"
)

// EdgeChange is a single added or removed edge, sorted by (From, To).
type EdgeChange struct {
	From, To        string
	SourceLocations []parsecommon.SourceLocation
}

// FanoutChange describes a node whose fan-out differs between revisions.
type FanoutChange struct {
	Node                        string
	FanoutBefore, FanoutAfter   int
	Delta                       int
	EntropyBefore, EntropyAfter float64
	NewTargets                  []EdgeChange
}

// SCCChange describes one SCC's member set at a point in time.
type SCCChange struct {
	Members []string
	Size    int
}

// SCCChanges buckets SCC evolution between revisions.
type SCCChanges struct {
	NewSCCs      []SCCChange
	EnlargedSCCs []SCCChange
	ResolvedSCCs []SCCChange
}

// SummaryDelta captures aggregate deltas between the two summaries.
type SummaryDelta struct {
	NodesAdded, NodesRemoved   int
	EdgesAdded, EdgesRemoved   int
	NetEdgeChange              int
	SCCCountDelta              int
	LargestSCCSizeDelta        int
	TotalSCCNodesDelta         int
	MeanFanoutDelta            float64
	MeanEntropyDelta           float64
}

// DiffResult is the full diff envelope.
type DiffResult struct {
	AnalysisID       string
	BaseRef, HeadRef string
	Verdict          Verdict
	Reasons          []string
	ElapsedMS        int64
	ModulesPerSecond float64
	SummaryDelta     SummaryDelta
	NewEdges         []EdgeChange
	RemovedEdges     []EdgeChange
	FanoutChanges    []FanoutChange
	SCCChanges       SCCChanges
}

// Compute computes structural deltas between base and head, without
// evaluating any failure policy. Each run is stamped with a fresh
// AnalysisID so CI logs can correlate a diff back to a single invocation.
func Compute(base, head *depgraph.Graph, baseRef, headRef string) DiffResult {
	baseSummary := metrics.FromGraph(base)
	headSummary := metrics.FromGraph(head)

	baseNodes := nodePathSet(base)
	headNodes := nodePathSet(head)

	nodesAdded := setDiffCount(headNodes, baseNodes)
	nodesRemoved := setDiffCount(baseNodes, headNodes)

	baseEdges := edgeSet(base)
	headEdges := edgeSet(head)

	newEdges := edgeSetDiff(head, headEdges, baseEdges)
	removedEdges := edgeSetDiff(base, baseEdges, headEdges)

	fanoutChanges := computeFanoutChanges(base, head, baseNodes, headNodes)

	baseSCCs := metrics.FindNonTrivialSCCs(base)
	headSCCs := metrics.FindNonTrivialSCCs(head)
	sccChanges := matchSCCs(baseSCCs, headSCCs)

	delta := SummaryDelta{
		NodesAdded:          nodesAdded,
		NodesRemoved:        nodesRemoved,
		EdgesAdded:          len(newEdges),
		EdgesRemoved:        len(removedEdges),
		NetEdgeChange:       len(newEdges) - len(removedEdges),
		SCCCountDelta:       headSummary.SCCCount - baseSummary.SCCCount,
		LargestSCCSizeDelta: headSummary.LargestSCCSize - baseSummary.LargestSCCSize,
		TotalSCCNodesDelta:  headSummary.TotalSCCNodes - baseSummary.TotalSCCNodes,
		MeanFanoutDelta:     round2(headSummary.MeanFanOut - baseSummary.MeanFanOut),
		MeanEntropyDelta:    round2(headSummary.MeanEntropy - baseSummary.MeanEntropy),
	}

	return DiffResult{
		AnalysisID:    uuid.NewString(),
		BaseRef:       baseRef,
		HeadRef:       headRef,
		Verdict:       Pass,
		SummaryDelta:  delta,
		NewEdges:      newEdges,
		RemovedEdges:  removedEdges,
		FanoutChanges: fanoutChanges,
		SCCChanges:    sccChanges,
	}
}

// EvaluatePolicy checks every condition name against result, always
// evaluating all of them so every triggering reason is reported. It
// returns a copy of result with Verdict and Reasons populated; the
// caller's value is left unchanged.
func EvaluatePolicy(result DiffResult, conditions []string, head *depgraph.Graph) DiffResult {
	var reasons []string
	for _, cond := range conditions {
		if triggered(cond, result, head) {
			reasons = append(reasons, cond)
		}
	}
	sort.Strings(reasons)
	result.Reasons = reasons
	if len(reasons) > 0 {
		result.Verdict = Fail
	} else {
		result.Verdict = Pass
	}
	return result
}

func triggered(cond string, result DiffResult, head *depgraph.Graph) bool {
	if name, thresholdStr, ok := strings.Cut(cond, "="); ok && name == "fanout-threshold" {
		threshold, err := strconv.Atoi(thresholdStr)
		if err != nil {
			return false
		}
		for _, n := range head.Nodes() {
			if metrics.FanOut(head, n.Path) > threshold {
				return true
			}
		}
		return false
	}

	switch cond {
	case "fanout-increase":
		for _, fc := range result.FanoutChanges {
			if fc.Delta > 0 {
				return true
			}
		}
		return false
	case "new-scc":
		return len(result.SCCChanges.NewSCCs) > 0
	case "scc-growth":
		return len(result.SCCChanges.EnlargedSCCs) > 0
	case "entropy-increase":
		return result.SummaryDelta.MeanEntropyDelta > 0
	case "new-edge":
		return len(result.NewEdges) > 0
	default:
		return false
	}
}

func nodePathSet(g *depgraph.Graph) map[string]bool {
	set := make(map[string]bool)
	for _, n := range g.Nodes() {
		set[n.Path] = true
	}
	return set
}

func setDiffCount(a, b map[string]bool) int {
	count := 0
	for k := range a {
		if !b[k] {
			count++
		}
	}
	return count
}

type edgeKey struct{ From, To string }

func edgeSet(g *depgraph.Graph) map[edgeKey]depgraph.Edge {
	set := make(map[edgeKey]depgraph.Edge)
	for _, e := range g.Edges() {
		set[edgeKey{e.From, e.To}] = e
	}
	return set
}

func edgeSetDiff(g *depgraph.Graph, present, absent map[edgeKey]depgraph.Edge) []EdgeChange {
	var out []EdgeChange
	for k, e := range present {
		if _, ok := absent[k]; !ok {
			out = append(out, EdgeChange{From: e.From, To: e.To, SourceLocations: e.SourceLocations})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

func computeFanoutChanges(base, head *depgraph.Graph, baseNodes, headNodes map[string]bool) []FanoutChange {
	baseSCCSizes := metrics.NodeSCCSize(base)
	headSCCSizes := metrics.NodeSCCSize(head)

	var changes []FanoutChange
	for path := range headNodes {
		if !baseNodes[path] {
			continue
		}
		beforeOut := base.OutEdges(path)
		afterOut := head.OutEdges(path)
		if len(beforeOut) == len(afterOut) {
			continue
		}

		beforeSet := edgesToSet(beforeOut)
		afterSet := edgesToSet(afterOut)
		newTargets := edgeSetDiff(head, afterSet, beforeSet)

		changes = append(changes, FanoutChange{
			Node:          path,
			FanoutBefore:  len(beforeOut),
			FanoutAfter:   len(afterOut),
			Delta:         len(afterOut) - len(beforeOut),
			EntropyBefore: round2(metrics.SCCAdjustedEntropy(metrics.ShannonEntropy(weightsOf(beforeOut)), baseSCCSizes[path])),
			EntropyAfter:  round2(metrics.SCCAdjustedEntropy(metrics.ShannonEntropy(weightsOf(afterOut)), headSCCSizes[path])),
			NewTargets:    newTargets,
		})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Node < changes[j].Node })
	return changes
}

func sameTargets(a, b []depgraph.Edge) bool {
	setA := edgesToSet(a)
	setB := edgesToSet(b)
	if len(setA) != len(setB) {
		return false
	}
	for k := range setA {
		if _, ok := setB[k]; !ok {
			return false
		}
	}
	return true
}

func edgesToSet(edges []depgraph.Edge) map[edgeKey]depgraph.Edge {
	set := make(map[edgeKey]depgraph.Edge, len(edges))
	for _, e := range edges {
		set[edgeKey{e.From, e.To}] = e
	}
	return set
}

func weightsOf(edges []depgraph.Edge) []int {
	w := make([]int, len(edges))
	for i, e := range edges {
		w[i] = e.Weight
	}
	return w
}

// matchSCCs pairs base and head SCCs by descending Jaccard similarity,
// greedily, matching each base SCC to at most one head SCC (and vice
// versa) when similarity exceeds 0.5.
func matchSCCs(base, head []metrics.SCCInfo) SCCChanges {
	type pair struct {
		baseIdx, headIdx int
		similarity       float64
	}
	var pairs []pair
	for bi, b := range base {
		bSet := toSet(b.Members)
		for hi, h := range head {
			sim := jaccard(bSet, toSet(h.Members))
			if sim > 0.5 {
				pairs = append(pairs, pair{bi, hi, sim})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].similarity > pairs[j].similarity })

	baseMatched := make([]bool, len(base))
	headMatched := make([]bool, len(head))
	matchedTo := make(map[int]int) // baseIdx -> headIdx

	for _, p := range pairs {
		if baseMatched[p.baseIdx] || headMatched[p.headIdx] {
			continue
		}
		baseMatched[p.baseIdx] = true
		headMatched[p.headIdx] = true
		matchedTo[p.baseIdx] = p.headIdx
	}

	var result SCCChanges
	for hi, h := range head {
		if !headMatched[hi] {
			result.NewSCCs = append(result.NewSCCs, toSCCChange(h))
		}
	}
	for bi, b := range base {
		if !baseMatched[bi] {
			result.ResolvedSCCs = append(result.ResolvedSCCs, toSCCChange(b))
		}
	}
	for bi, hi := range matchedTo {
		if head[hi].Size > base[bi].Size {
			result.EnlargedSCCs = append(result.EnlargedSCCs, toSCCChange(head[hi]))
		}
	}

	sort.Slice(result.NewSCCs, func(i, j int) bool { return result.NewSCCs[i].Members[0] < result.NewSCCs[j].Members[0] })
	sort.Slice(result.ResolvedSCCs, func(i, j int) bool { return result.ResolvedSCCs[i].Members[0] < result.ResolvedSCCs[j].Members[0] })
	sort.Slice(result.EnlargedSCCs, func(i, j int) bool { return result.EnlargedSCCs[i].Members[0] < result.EnlargedSCCs[j].Members[0] })

	return result
}

func toSCCChange(s metrics.SCCInfo) SCCChange {
	members := append([]string{}, s.Members...)
	sort.Strings(members)
	return SCCChange{Members: members, Size: s.Size}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func round2(v float64) float64 {
	return float64(int(v*100+sign(v)*0.5)) / 100
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
