package service

import (
	"context"
	"fmt"
	"sort"

	"everystreet/internal/algorithms"
	"everystreet/internal/graph"
	"everystreet/pkg/apperror"
	"everystreet/pkg/cache"
	"everystreet/pkg/domain"
)

// =============================================================================
// Parity Repair (undirected mode)
// =============================================================================
//
// An undirected multigraph has a closed Eulerian circuit exactly when every
// degree is even, and an open trail between s and t when s and t are the only
// odd nodes. Parity repair gets the work graph there: it pairs up the
// odd-degree nodes by minimum-weight matching over shortest-path costs on the
// routing graph and duplicates the matched paths into the work graph.
//
// For an open route the requested endpoints are toggled in the odd set before
// matching. An endpoint that is already odd must stay odd, so toggling
// removes it; an even endpoint must become odd, so toggling adds it and the
// matching will route a duplicate chain through it.
// =============================================================================

// RepairOptions tunes the parity and imbalance repair stages.
type RepairOptions struct {
	// Workers is the cost-matrix pool size. Zero selects NumCPU.
	Workers int

	// PathCache, when set, reuses shortest paths across runs on the same
	// routing graph.
	PathCache *cache.PathCache

	// ExactMatchingLimit is the largest odd set matched exactly.
	ExactMatchingLimit int

	// ImprovementSweeps is the refinement pass count of the greedy matcher.
	ImprovementSweeps int
}

// ParityStats describes what parity repair did to the work graph.
type ParityStats struct {
	OddNodes    int
	Pairs       int
	AddedLength float64
	Matrix      algorithms.MatrixStats
}

// RepairParity extends the undirected work graph with duplicate edges until
// the only odd-degree nodes left are the requested open-route endpoints
// (none, for a closed route where start == end).
func RepairParity(ctx context.Context, work, drive *graph.RoutingGraph, start, end int64, opts RepairOptions) (*ParityStats, error) {
	if work == nil || drive == nil {
		return nil, apperror.New(apperror.CodeNilInput, "parity repair: nil graph")
	}
	if work.Directed() {
		return nil, apperror.New(apperror.CodeInvalidArgument, "parity repair: work graph must be undirected")
	}

	odd := algorithms.OddVertices(work)
	if start != end {
		odd = toggleNode(odd, start)
		odd = toggleNode(odd, end)
	}

	stats := &ParityStats{OddNodes: len(odd)}
	if len(odd) == 0 {
		return stats, nil
	}
	if len(odd)%2 != 0 {
		return nil, apperror.New(apperror.CodeUnmatchableEndpoint,
			fmt.Sprintf("parity repair: %d nodes left to pair after endpoint adjustment", len(odd))).
			WithDetails("odd_nodes", componentSample(odd)).
			WithDetails("start", start).
			WithDetails("end", end)
	}

	matrix, err := algorithms.BuildCostMatrix(ctx, drive, oddPairs(odd, drive.Directed()), algorithms.MatrixOptions{
		Workers: opts.Workers,
		Cache:   opts.PathCache,
	})
	if err != nil {
		return nil, err
	}
	stats.Matrix = matrix.Stats

	matching, total, err := algorithms.MinWeightMatching(odd, matrix, algorithms.MatchingOptions{
		ExactLimit:        opts.ExactMatchingLimit,
		ImprovementSweeps: opts.ImprovementSweeps,
	})
	if err != nil {
		if apperror.Is(err, apperror.CodeNoPath) {
			return nil, apperror.Wrap(err, apperror.CodeUnmatchableEndpoint,
				"parity repair: odd nodes cannot all be paired on the routing graph")
		}
		return nil, err
	}

	for _, pair := range matching {
		p, ok := matrix.Path(pair[0], pair[1])
		if !ok {
			p, ok = matrix.Path(pair[1], pair[0])
		}
		if !ok {
			return nil, apperror.New(apperror.CodeAlgorithmError,
				fmt.Sprintf("parity repair: matched pair (%d, %d) has no stored path", pair[0], pair[1]))
		}
		if err := insertPath(work, drive, p, domain.KindDuplicate); err != nil {
			return nil, err
		}
	}

	stats.Pairs = len(matching)
	stats.AddedLength = total
	return stats, nil
}

// oddPairs enumerates the pair set for the cost matrix: every unordered pair
// once, plus the reverse orientation on a directed substrate so the matcher
// can fall back when one direction is blocked by one-ways.
func oddPairs(odd []int64, directedDrive bool) [][2]int64 {
	var pairs [][2]int64
	for i := 0; i < len(odd); i++ {
		for j := i + 1; j < len(odd); j++ {
			pairs = append(pairs, [2]int64{odd[i], odd[j]})
			if directedDrive {
				pairs = append(pairs, [2]int64{odd[j], odd[i]})
			}
		}
	}
	return pairs
}

// toggleNode flips membership of id in the sorted set: present nodes are
// removed, absent ones inserted in order.
func toggleNode(sorted []int64, id int64) []int64 {
	idx := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= id })
	if idx < len(sorted) && sorted[idx] == id {
		return append(sorted[:idx], sorted[idx+1:]...)
	}
	sorted = append(sorted, 0)
	copy(sorted[idx+1:], sorted[idx:])
	sorted[idx] = id
	return sorted
}
