// Package algorithms implements the route-construction algorithms of the
// solver: shortest paths (Dijkstra), concurrent pairwise cost matrices,
// minimum-weight matching over odd nodes, min-cost flow for degree
// balancing, and the Eulerian traversal engine.
//
// # Determinism
//
// Every algorithm produces identical output for identical input. Node
// iteration is sorted, edge expansion follows insertion order, and all
// tie-breaks prefer the lower node id. The traversal a solve emits is
// therefore reproducible across runs and across machines.
//
// # Thread Safety
//
// Algorithm functions never mutate the RoutingGraph they read, so a single
// graph can back any number of concurrent computations. Stateful types
// (EulerEngine, FlowNetwork) are single-goroutine.
//
// # Context Support
//
// Long-running searches take a context.Context and poll it periodically;
// a canceled context aborts the computation with the context's error.
package algorithms

import (
	"container/heap"
	"context"

	"everystreet/internal/graph"
	"everystreet/pkg/apperror"
	"everystreet/pkg/domain"
)

// =============================================================================
// Dijkstra's Algorithm
// =============================================================================
//
// Shortest paths over the routing graph with edge lengths as weights.
// Lengths are validated non-negative before any solve, so no negative-weight
// fallback is needed here; the flow solver handles its negative reduced
// costs with potentials instead.
//
// Time Complexity: O((V + E) log V) with a binary heap
// Space Complexity: O(V)
// =============================================================================

// DijkstraResult contains single-source shortest path distances and the
// parent tree for path reconstruction.
type DijkstraResult struct {
	// Distances maps each settled node to its shortest distance from the
	// source. Nodes absent from the map were not reached.
	Distances map[int64]float64

	// Parent maps each settled node to its predecessor on the shortest
	// path. The source itself has no entry.
	Parent map[int64]int64

	// Canceled reports whether the search was aborted via context.
	Canceled bool
}

// priorityQueueItem is an element of the Dijkstra heap.
type priorityQueueItem struct {
	node     int64
	distance float64
	index    int
}

// priorityQueue is a min-heap over distance with node-id tie-breaking for
// deterministic extraction order.
type priorityQueue []*priorityQueueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].distance != pq[j].distance {
		return pq[i].distance < pq[j].distance
	}
	return pq[i].node < pq[j].node
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	n := len(*pq)
	item := x.(*priorityQueueItem)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// checkInterval controls how often search loops poll the context.
const checkInterval = 100

// Dijkstra computes shortest distances from source to every reachable node.
func Dijkstra(g *graph.RoutingGraph, source int64) *DijkstraResult {
	return DijkstraWithContext(context.Background(), g, source, -1)
}

// DijkstraWithContext runs Dijkstra with cancellation support. When target
// is a valid node id the search stops as soon as the target settles; pass a
// negative target to compute the full distance tree.
func DijkstraWithContext(ctx context.Context, g *graph.RoutingGraph, source, target int64) *DijkstraResult {
	dist := make(map[int64]float64, g.NodeCount())
	parent := make(map[int64]int64, g.NodeCount())
	dist[source] = 0

	pq := make(priorityQueue, 0, g.NodeCount())
	heap.Init(&pq)
	heap.Push(&pq, &priorityQueueItem{node: source})

	iterations := 0
	for pq.Len() > 0 {
		if iterations%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return &DijkstraResult{Distances: dist, Parent: parent, Canceled: true}
			default:
			}
		}
		iterations++

		current := heap.Pop(&pq).(*priorityQueueItem)
		u := current.node

		// Stale heap entry: u already settled with a better distance.
		if current.distance > dist[u]+domain.Epsilon {
			continue
		}

		if target >= 0 && u == target {
			return &DijkstraResult{Distances: dist, Parent: parent}
		}

		for _, e := range g.OutEdges(u) {
			// Directed out-arcs always leave u, so Other resolves the head
			// in both modes.
			v := e.Other(u)

			newDist := dist[u] + e.Attrs.Length
			old, seen := dist[v]
			if !seen || newDist < old-domain.Epsilon {
				dist[v] = newDist
				parent[v] = u
				heap.Push(&pq, &priorityQueueItem{node: v, distance: newDist})
			}
		}
	}

	return &DijkstraResult{Distances: dist, Parent: parent}
}

// ShortestPath computes the cheapest path between two nodes.
//
// Returns apperror.CodeUnknownNode when either endpoint is missing,
// apperror.CodeNoPath when the target is unreachable, and the context error
// wrapped as apperror.CodeTimeout on cancellation.
func ShortestPath(ctx context.Context, g *graph.RoutingGraph, source, target int64) (*domain.Path, error) {
	if !g.HasNode(source) {
		return nil, apperror.New(apperror.CodeUnknownNode, "path source not in graph").
			WithDetails("node_id", source)
	}
	if !g.HasNode(target) {
		return nil, apperror.New(apperror.CodeUnknownNode, "path target not in graph").
			WithDetails("node_id", target)
	}

	if source == target {
		return &domain.Path{Nodes: []int64{source}, Cost: 0}, nil
	}

	result := DijkstraWithContext(ctx, g, source, target)
	if result.Canceled {
		return nil, apperror.Wrap(ctx.Err(), apperror.CodeTimeout, "shortest path search canceled").
			WithDetails("source", source).
			WithDetails("target", target)
	}

	cost, reached := result.Distances[target]
	if !reached {
		return nil, apperror.New(apperror.CodeNoPath, "no path between the requested nodes").
			WithDetails("source", source).
			WithDetails("target", target)
	}

	nodes := domain.ReconstructPath(result.Parent, source, target)
	if len(nodes) < 2 {
		return nil, apperror.New(apperror.CodeNoPath, "path reconstruction failed").
			WithDetails("source", source).
			WithDetails("target", target)
	}

	return &domain.Path{Nodes: nodes, Cost: cost}, nil
}
