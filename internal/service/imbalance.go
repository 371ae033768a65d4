package service

import (
	"context"
	"fmt"
	"sort"

	"everystreet/internal/algorithms"
	"everystreet/internal/graph"
	"everystreet/pkg/apperror"
	"everystreet/pkg/domain"
)

// =============================================================================
// Imbalance Repair (directed mode)
// =============================================================================
//
// A directed multigraph has a closed Eulerian circuit exactly when every node
// has out-degree equal to in-degree. The work graph rarely does: one-way
// streets and the connector arcs leave nodes with surplus arriving arcs
// (delta < 0) or surplus leaving arcs (delta > 0). Each unit of deficit must
// be paid for by duplicating a directed path from a surplus-in node to a
// surplus-out node.
//
// Picking which deficit feeds which surplus is a transportation problem: a
// min-cost flow from a super source over the deficit nodes to a super sink
// behind the surplus nodes, with arc costs set to shortest directed path
// lengths. Every unit of the resulting flow becomes one duplicated path.
//
// An open route shifts the target profile: the start node must end up with
// one extra leaving arc and the end node with one extra arriving arc, which
// is expressed by adjusting their deltas before the flow is built.
// =============================================================================

// ImbalanceStats describes what imbalance repair did to the work graph.
type ImbalanceStats struct {
	DeficitNodes int
	SurplusNodes int
	FlowUnits    int
	AddedLength  float64
	Iterations   int
	Matrix       algorithms.MatrixStats
}

// RepairImbalance extends the directed work graph with duplicate arcs until
// out-degree minus in-degree is zero everywhere, or +1 at start and -1 at end
// for an open route.
func RepairImbalance(ctx context.Context, work, drive *graph.RoutingGraph, start, end int64, opts RepairOptions) (*ImbalanceStats, error) {
	if work == nil || drive == nil {
		return nil, apperror.New(apperror.CodeNilInput, "imbalance repair: nil graph")
	}
	if !work.Directed() || !drive.Directed() {
		return nil, apperror.New(apperror.CodeInvalidArgument, "imbalance repair: both graphs must be directed")
	}

	deltas := algorithms.DegreeImbalances(work)
	if start != end {
		// The open trail leaves start once more than it enters and enters
		// end once more than it leaves, so those two nodes aim at +1/-1
		// instead of zero.
		deltas[start]--
		deltas[end]++
		for _, id := range []int64{start, end} {
			if deltas[id] == 0 {
				delete(deltas, id)
			}
		}
	}

	deficit, surplus := splitDeltas(deltas)
	stats := &ImbalanceStats{DeficitNodes: len(deficit), SurplusNodes: len(surplus)}
	if len(deficit) == 0 && len(surplus) == 0 {
		return stats, nil
	}

	supply := 0
	for _, id := range deficit {
		supply += -deltas[id]
	}
	demand := 0
	for _, id := range surplus {
		demand += deltas[id]
	}
	if supply != demand {
		// Degree deltas always sum to zero over a directed graph, so a
		// mismatch means the endpoint adjustment hit a node outside the
		// work graph.
		return nil, apperror.New(apperror.CodeImbalanceRepair,
			fmt.Sprintf("imbalance repair: deficit %d and surplus %d do not balance", supply, demand)).
			WithDetails("start", start).
			WithDetails("end", end)
	}

	pairs := make([][2]int64, 0, len(deficit)*len(surplus))
	for _, from := range deficit {
		for _, to := range surplus {
			pairs = append(pairs, [2]int64{from, to})
		}
	}
	matrix, err := algorithms.BuildCostMatrix(ctx, drive, pairs, algorithms.MatrixOptions{
		Workers: opts.Workers,
		Cache:   opts.PathCache,
	})
	if err != nil {
		return nil, err
	}
	stats.Matrix = matrix.Stats

	net := algorithms.NewFlowNetwork()
	for _, id := range deficit {
		net.AddArc(domain.SuperSourceID, id, float64(-deltas[id]), 0)
	}
	for _, id := range surplus {
		net.AddArc(id, domain.SuperSinkID, float64(deltas[id]), 0)
	}
	for _, pair := range pairs {
		if cost, ok := matrix.Cost(pair[0], pair[1]); ok {
			net.AddArc(pair[0], pair[1], float64(supply), cost)
		}
	}

	result, err := algorithms.MinCostFlow(ctx, net, domain.SuperSourceID, domain.SuperSinkID, float64(supply))
	if err != nil {
		return nil, err
	}
	if result.Flow < float64(supply)-domain.Epsilon {
		return nil, apperror.New(apperror.CodeImbalanceRepair,
			fmt.Sprintf("imbalance repair: routed %.0f of %d units, deficit nodes cannot reach surplus nodes", result.Flow, supply)).
			WithDetails("deficit_nodes", componentSample(deficit)).
			WithDetails("surplus_nodes", componentSample(surplus)).
			WithDetails("flow", result.Flow).
			WithDetails("required", supply)
	}

	for _, a := range result.Assignments {
		p, ok := matrix.Path(a.From, a.To)
		if !ok {
			return nil, apperror.New(apperror.CodeAlgorithmError,
				fmt.Sprintf("imbalance repair: assignment %d->%d has no stored path", a.From, a.To))
		}
		for unit := 0; unit < a.Units; unit++ {
			if err := insertPath(work, drive, p, domain.KindDuplicate); err != nil {
				return nil, err
			}
			stats.AddedLength += p.Cost
		}
		stats.FlowUnits += a.Units
	}
	stats.Iterations = result.Iterations
	return stats, nil
}

// splitDeltas separates nodes by sign of their degree delta, ascending ids.
// Map iteration order does not leak: deltas came from sorted traversal but
// the split re-sorts anyway.
func splitDeltas(deltas map[int64]int) (deficit, surplus []int64) {
	for id, d := range deltas {
		if d < 0 {
			deficit = append(deficit, id)
		} else if d > 0 {
			surplus = append(surplus, id)
		}
	}
	sortInt64s(deficit)
	sortInt64s(surplus)
	return deficit, surplus
}

func sortInt64s(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
