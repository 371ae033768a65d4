package service

import (
	"context"
	"fmt"

	"everystreet/internal/algorithms"
	"everystreet/internal/graph"
	"everystreet/pkg/apperror"
	"everystreet/pkg/domain"
)

// =============================================================================
// Component Connection
// =============================================================================
//
// Required edges rarely form a connected graph on their own: a district's
// residential streets are split by the arterials between them. Before any
// parity work the fragments are stitched together with connector paths
// computed on the full routing graph, one path per consecutive component
// pair. Components are taken in ascending order of their smallest node id
// and each is represented by that node, so the same inputs always produce
// the same connectors.
//
// Joining consecutive pairs is greedy: it guarantees connectivity, not the
// cheapest possible stitching. An optimal version would solve a Steiner-like
// problem over component representatives; the overhead of the greedy chain
// has been acceptable in practice.
// =============================================================================

// ConnectRequired returns the connector paths that join the components of the
// required graph, computed over the routing graph. A connected required graph
// yields no connectors. In directed mode a pair is first attempted forward;
// if the representative is unreachable the opposite direction is tried and
// the found path reversed, since either orientation restores weak
// connectivity for the repair stage that follows.
func ConnectRequired(ctx context.Context, drive, required *graph.RoutingGraph) ([]*domain.Path, error) {
	if drive == nil || required == nil {
		return nil, apperror.New(apperror.CodeNilInput, "connect: nil graph")
	}

	components := requiredComponents(required)
	if len(components) <= 1 {
		return nil, nil
	}

	connectors := make([]*domain.Path, 0, len(components)-1)
	for i := 0; i+1 < len(components); i++ {
		// Representative is the smallest node id of the component.
		a, b := components[i][0], components[i+1][0]

		path, err := algorithms.ShortestPath(ctx, drive, a, b)
		if err != nil && drive.Directed() && apperror.Is(err, apperror.CodeNoPath) {
			var rev *domain.Path
			rev, err = algorithms.ShortestPath(ctx, drive, b, a)
			if err == nil {
				path = rev.Reversed()
			}
		}
		if err != nil {
			if apperror.Is(err, apperror.CodeNoPath) {
				return nil, apperror.Wrap(err, apperror.CodeDisconnectedRequired,
					fmt.Sprintf("connect: no route between required components %d and %d", i, i+1)).
					WithDetails("component_a", componentSample(components[i])).
					WithDetails("component_b", componentSample(components[i+1])).
					WithDetails("representative_a", a).
					WithDetails("representative_b", b)
			}
			return nil, err
		}
		connectors = append(connectors, path)
	}
	return connectors, nil
}

// requiredComponents partitions the required graph: weakly connected
// components in undirected mode, strongly connected ones in directed mode.
// Both partitions list members ascending and order components by smallest
// member.
func requiredComponents(required *graph.RoutingGraph) [][]int64 {
	if required.Directed() {
		return graph.StronglyConnectedComponents(required).Components
	}
	return graph.ConnectedComponents(required)
}

// componentSample returns up to five member ids for error details.
func componentSample(members []int64) []int64 {
	if len(members) <= 5 {
		return members
	}
	return members[:5]
}

// =============================================================================
// Work Graph Assembly
// =============================================================================

// BuildWorkGraph assembles the work multigraph E: every required edge plus
// one edge per connector hop. Repair stages later extend E with duplicates;
// the traversal consumes it edge by edge.
//
// Edge attributes are resolved against the routing graph so that connector
// and duplicate hops carry real geometry, not bare lengths. Parallel
// candidates resolve to the one with geometry, then to the shortest.
func BuildWorkGraph(drive, required *graph.RoutingGraph, connectors []*domain.Path) (*graph.RoutingGraph, error) {
	if drive == nil || required == nil {
		return nil, apperror.New(apperror.CodeNilInput, "work graph: nil input graph")
	}

	work := graph.NewRoutingGraph(required.Directed())

	for _, e := range required.AllEdges() {
		attrs := e.Attrs
		if resolved, ok := bestEdge(drive, e.From, e.To, !work.Directed()); ok {
			attrs = resolved.Attrs
		}
		copyNode(work, drive, required, e.From)
		copyNode(work, drive, required, e.To)
		work.AddEdge(e.From, e.To, domain.KindRequired, attrs.Clone())
	}

	for _, p := range connectors {
		if err := insertPath(work, drive, p, domain.KindConnector); err != nil {
			return nil, err
		}
	}
	return work, nil
}

// insertPath appends one work edge per hop of the path.
func insertPath(work, drive *graph.RoutingGraph, p *domain.Path, kind domain.EdgeKind) error {
	if p.IsEmpty() {
		return nil
	}
	for i := 0; i+1 < len(p.Nodes); i++ {
		from, to := p.Nodes[i], p.Nodes[i+1]
		e, ok := bestEdge(drive, from, to, !work.Directed())
		if !ok {
			return apperror.New(apperror.CodeNoPath,
				fmt.Sprintf("work graph: path hop %d->%d has no routing edge", from, to)).
				WithDetails("from", from).
				WithDetails("to", to)
		}
		copyNode(work, drive, nil, from)
		copyNode(work, drive, nil, to)
		work.AddEdge(from, to, kind, e.Attrs.Clone())
	}
	return nil
}

// bestEdge picks the preferred routing edge between two endpoints: geometry
// beats no geometry, then the shorter wins, then the earlier inserted. With
// eitherWay set a directed routing graph is probed in both orientations,
// forward first, which is what an undirected work graph needs from a
// one-way-aware substrate.
func bestEdge(g *graph.RoutingGraph, from, to int64, eitherWay bool) (*graph.Edge, bool) {
	best := bestDirectional(g, from, to)
	if eitherWay && g.Directed() && from != to {
		if rev := bestDirectional(g, to, from); betterEdge(rev, best) {
			best = rev
		}
	}
	return best, best != nil
}

// bestDirectional scans the adjacency of from for edges reaching to.
func bestDirectional(g *graph.RoutingGraph, from, to int64) *graph.Edge {
	var best *graph.Edge
	for _, e := range g.OutEdges(from) {
		if g.Directed() {
			if e.To != to {
				continue
			}
		} else if e.Other(from) != to {
			continue
		}
		if betterEdge(e, best) {
			best = e
		}
	}
	return best
}

// betterEdge reports whether a should replace b as the resolved candidate.
func betterEdge(a, b *graph.Edge) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	aGeom, bGeom := len(a.Attrs.Geometry) > 0, len(b.Attrs.Geometry) > 0
	if aGeom != bGeom {
		return aGeom
	}
	return domain.FloatLess(a.Attrs.Length, b.Attrs.Length)
}

// copyNode registers id in work, preferring drive coordinates and falling
// back to the required graph for nodes the substrate does not know.
func copyNode(work, drive, required *graph.RoutingGraph, id int64) {
	if work.HasNode(id) {
		return
	}
	if n, ok := drive.Node(id); ok {
		work.AddNode(n)
		return
	}
	if required != nil {
		if n, ok := required.Node(id); ok {
			work.AddNode(n)
			return
		}
	}
	work.AddNode(domain.Node{ID: id})
}
