package metrics

import (
	"math"
	"sort"

	"untangle/internal/depgraph"
)

// Summary aggregates every structural complexity measure computed over a
// single dependency graph snapshot.
type Summary struct {
	NodeCount       int
	EdgeCount       int
	MeanFanOut      float64
	P90FanOut       int
	MaxFanOut       int
	MeanFanIn       float64
	P90FanIn        int
	MaxFanIn        int
	SCCCount        int
	LargestSCCSize  int
	TotalSCCNodes   int
	MaxDepth        int
	AvgDepth        float64
	TotalComplexity int
	MeanEntropy     float64
	MaxEntropy      float64
}

// FromGraph computes the full summary for g.
func FromGraph(g *depgraph.Graph) Summary {
	nodes := g.Nodes()

	fanOuts := make([]int, 0, len(nodes))
	fanIns := make([]int, 0, len(nodes))
	sccSizes := NodeSCCSize(g)

	var entropies []float64
	for _, n := range nodes {
		out := g.OutEdges(n.Path)
		fanOuts = append(fanOuts, len(out))
		fanIns = append(fanIns, len(g.InEdges(n.Path)))

		weights := make([]int, len(out))
		for i, e := range out {
			weights[i] = e.Weight
		}
		base := ShannonEntropy(weights)
		entropies = append(entropies, SCCAdjustedEntropy(base, sccSizes[n.Path]))
	}

	sccs := FindNonTrivialSCCs(g)
	largest := 0
	totalSCCNodes := 0
	for _, s := range sccs {
		if s.Size > largest {
			largest = s.Size
		}
		totalSCCNodes += s.Size
	}

	maxDepth := MaxDepth(g)
	avgDepth := AvgDepth(g)

	meanEntropy, maxEntropy := 0.0, 0.0
	if len(entropies) > 0 {
		total := 0.0
		for _, e := range entropies {
			total += e
			if e > maxEntropy {
				maxEntropy = e
			}
		}
		meanEntropy = total / float64(len(entropies))
	}

	return Summary{
		NodeCount:       g.NodeCount(),
		EdgeCount:       g.EdgeCount(),
		MeanFanOut:      mean(fanOuts),
		P90FanOut:       p90(fanOuts),
		MaxFanOut:       max(fanOuts),
		MeanFanIn:       mean(fanIns),
		P90FanIn:        p90(fanIns),
		MaxFanIn:        max(fanIns),
		SCCCount:        len(sccs),
		LargestSCCSize:  largest,
		TotalSCCNodes:   totalSCCNodes,
		MaxDepth:        maxDepth,
		AvgDepth:        avgDepth,
		TotalComplexity: g.NodeCount() + g.EdgeCount() + maxDepth,
		MeanEntropy:     roundTo2(meanEntropy),
		MaxEntropy:      roundTo2(maxEntropy),
	}
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0
	for _, v := range values {
		total += v
	}
	return roundTo2(float64(total) / float64(len(values)))
}

func max(values []int) int {
	m := 0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

// p90 returns the 90th-percentile value using nearest-rank on a sorted
// ascending copy of values: rank = ceil(n * 0.9), clamped into range.
func p90(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int{}, values...)
	sort.Ints(sorted)
	rank := int(math.Ceil(float64(len(sorted)) * 0.9))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
