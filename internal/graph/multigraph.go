// Package graph provides the road-network representations used by the route
// builder.
//
// This package contains:
//   - RoutingGraph: a multigraph with stable parallel-edge keys, usable in
//     directed and undirected modes
//   - Connectivity partitioning: connected components and strongly connected
//     components with deterministic ordering
//   - Structural validation producing aggregated error reports
//
// # Determinism
//
// All enumeration methods return nodes in ascending id order and edges in
// insertion order. Given the same sequence of AddNode/AddEdge calls, every
// query produces identical results regardless of Go's map iteration
// randomization. Algorithms built on top of this package rely on that
// guarantee for reproducible routes.
//
// # Thread Safety
//
// RoutingGraph is safe for concurrent readers once construction is finished.
// Mutating methods (AddNode, AddEdge) must not run concurrently with anything
// else. The solve pipeline builds graphs up front and shares them read-only
// across cost-matrix workers.
package graph

import (
	"sort"
	"sync"

	"everystreet/pkg/domain"
)

// =============================================================================
// Edge
// =============================================================================

// Edge is a single arc (directed mode) or segment (undirected mode) of the
// multigraph. Parallel edges between the same endpoints are told apart by Key;
// ID is the global insertion index and stays stable for the lifetime of the
// graph, which lets traversal code keep per-edge bookkeeping in a flat slice.
type Edge struct {
	From int64
	To   int64

	// Key discriminates parallel edges sharing the same endpoints.
	// Undirected graphs allocate keys per unordered endpoint pair, so the
	// edge is addressable from both orientations under the same key.
	Key int

	// ID is the position of the edge in the global insertion order.
	ID int

	// Kind records why the edge is present: required coverage, a connector
	// stitched between components, or a duplicate inserted by repair.
	Kind domain.EdgeKind

	Attrs domain.EdgeAttrs
}

// EdgeKey returns the addressable key of the edge as stored.
func (e *Edge) EdgeKey() domain.EdgeKey {
	return domain.EdgeKey{From: e.From, To: e.To, Key: e.Key}
}

// Other returns the endpoint opposite to node. For a self-loop it returns
// node itself.
func (e *Edge) Other(node int64) int64 {
	if e.From == node {
		return e.To
	}
	return e.From
}

// pairKey identifies an endpoint pair for parallel-edge key allocation.
type pairKey struct {
	a, b int64
}

// =============================================================================
// RoutingGraph
// =============================================================================

// RoutingGraph is the multigraph the solver operates on. The same type backs
// three roles: the full routing graph (shortest-path substrate), the required
// subgraph (what must be covered), and the work multigraph E that repair
// stages extend with connectors and duplicates.
//
// A directed graph stores arcs; an undirected graph stores each segment once
// and lists it in the adjacency of both endpoints.
type RoutingGraph struct {
	directed bool

	// Nodes holds coordinates keyed by node id.
	Nodes map[int64]domain.Node

	// adjacency lists edges in insertion order. In undirected graphs an edge
	// appears in the list of both endpoints (once for a self-loop).
	adjacency map[int64][]*Edge

	// incoming lists arcs by head node. Maintained for directed graphs only.
	incoming map[int64][]*Edge

	// edges is the global insertion order; Edge.ID indexes into it.
	edges []*Edge

	// byKey resolves (from, to, key) lookups. Undirected edges are
	// registered under both orientations.
	byKey map[domain.EdgeKey]*Edge

	// nextKey allocates parallel-edge keys per endpoint pair.
	nextKey map[pairKey]int

	degree    map[int64]int
	outDegree map[int64]int
	inDegree  map[int64]int

	// sortedNodes caches the ascending node id slice.
	sortedNodes []int64
	nodesDirty  bool
	sortedMu    sync.Mutex
}

// NewRoutingGraph creates an empty multigraph in the requested mode.
func NewRoutingGraph(directed bool) *RoutingGraph {
	return &RoutingGraph{
		directed:  directed,
		Nodes:     make(map[int64]domain.Node),
		adjacency: make(map[int64][]*Edge),
		incoming:  make(map[int64][]*Edge),
		byKey:     make(map[domain.EdgeKey]*Edge),
		nextKey:   make(map[pairKey]int),
		degree:    make(map[int64]int),
		outDegree: make(map[int64]int),
		inDegree:  make(map[int64]int),
	}
}

// Directed reports whether the graph stores arcs rather than segments.
func (g *RoutingGraph) Directed() bool {
	return g.directed
}

// =============================================================================
// Construction
// =============================================================================

// AddNode registers a node. Re-adding an existing id overwrites its
// coordinates and keeps all incident edges.
func (g *RoutingGraph) AddNode(n domain.Node) {
	if _, exists := g.Nodes[n.ID]; !exists {
		g.markNodesDirty()
	}
	g.Nodes[n.ID] = n
}

// HasNode reports whether the node id is registered.
func (g *RoutingGraph) HasNode(id int64) bool {
	_, ok := g.Nodes[id]
	return ok
}

// Node returns the node record for id.
func (g *RoutingGraph) Node(id int64) (domain.Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// AddEdge inserts a new edge and returns it. A fresh parallel key is
// allocated per endpoint pair (unordered pair in undirected mode), so adding
// the same endpoints twice yields two distinct edges.
//
// AddEdge does not create missing endpoint nodes; Validate reports edges
// whose endpoints were never registered.
func (g *RoutingGraph) AddEdge(from, to int64, kind domain.EdgeKind, attrs domain.EdgeAttrs) *Edge {
	pair := g.pair(from, to)
	key := g.nextKey[pair]
	g.nextKey[pair] = key + 1

	e := &Edge{
		From:  from,
		To:    to,
		Key:   key,
		ID:    len(g.edges),
		Kind:  kind,
		Attrs: attrs,
	}
	g.insert(e)
	return e
}

// insert wires an already-built edge into every index. Edge.ID must equal
// len(g.edges) at call time.
func (g *RoutingGraph) insert(e *Edge) {
	g.edges = append(g.edges, e)
	g.adjacency[e.From] = append(g.adjacency[e.From], e)
	g.byKey[domain.EdgeKey{From: e.From, To: e.To, Key: e.Key}] = e

	if g.directed {
		g.incoming[e.To] = append(g.incoming[e.To], e)
		g.outDegree[e.From]++
		g.inDegree[e.To]++
		return
	}

	if e.From != e.To {
		g.adjacency[e.To] = append(g.adjacency[e.To], e)
		g.byKey[domain.EdgeKey{From: e.To, To: e.From, Key: e.Key}] = e
		g.degree[e.From]++
		g.degree[e.To]++
	} else {
		// A loop contributes two ends to its single endpoint.
		g.degree[e.From] += 2
	}
}

// pair returns the key-allocation pair: ordered for directed graphs,
// canonical (low, high) for undirected ones.
func (g *RoutingGraph) pair(from, to int64) pairKey {
	if g.directed || from <= to {
		return pairKey{from, to}
	}
	return pairKey{to, from}
}

// =============================================================================
// Queries
// =============================================================================

// NodeCount returns the number of registered nodes.
func (g *RoutingGraph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of distinct edges. An undirected segment
// counts once even though it is listed in two adjacencies.
func (g *RoutingGraph) EdgeCount() int {
	return len(g.edges)
}

// Edge resolves an edge by endpoints and parallel key. Undirected edges are
// found from either orientation.
func (g *RoutingGraph) Edge(from, to int64, key int) (*Edge, bool) {
	e, ok := g.byKey[domain.EdgeKey{From: from, To: to, Key: key}]
	return e, ok
}

// OutEdges returns the adjacency list of node in insertion order. For a
// directed graph these are the outgoing arcs; for an undirected graph, every
// incident segment. Callers must not modify the returned slice.
func (g *RoutingGraph) OutEdges(node int64) []*Edge {
	return g.adjacency[node]
}

// InEdges returns the incoming arcs of node in insertion order. For an
// undirected graph it is identical to OutEdges.
func (g *RoutingGraph) InEdges(node int64) []*Edge {
	if !g.directed {
		return g.adjacency[node]
	}
	return g.incoming[node]
}

// IncidentEdges returns every edge touching node: for a directed graph the
// outgoing arcs followed by the incoming ones, for an undirected graph the
// adjacency list. Used by weak-connectivity traversals that ignore arc
// direction.
func (g *RoutingGraph) IncidentEdges(node int64) []*Edge {
	if !g.directed {
		return g.adjacency[node]
	}
	out := g.adjacency[node]
	in := g.incoming[node]
	if len(in) == 0 {
		return out
	}
	combined := make([]*Edge, 0, len(out)+len(in))
	combined = append(combined, out...)
	combined = append(combined, in...)
	return combined
}

// Degree returns the number of edge ends at node in an undirected graph
// (a loop counts twice). For a directed graph it returns OutDegree+InDegree.
func (g *RoutingGraph) Degree(node int64) int {
	if g.directed {
		return g.outDegree[node] + g.inDegree[node]
	}
	return g.degree[node]
}

// OutDegree returns the number of arcs leaving node.
func (g *RoutingGraph) OutDegree(node int64) int {
	if !g.directed {
		return g.degree[node]
	}
	return g.outDegree[node]
}

// InDegree returns the number of arcs entering node.
func (g *RoutingGraph) InDegree(node int64) int {
	if !g.directed {
		return g.degree[node]
	}
	return g.inDegree[node]
}

// AllEdges returns every edge in insertion order. Callers must not modify
// the returned slice.
func (g *RoutingGraph) AllEdges() []*Edge {
	return g.edges
}

// TotalLength sums the length attribute over all edges.
func (g *RoutingGraph) TotalLength() float64 {
	var total float64
	for _, e := range g.edges {
		total += e.Attrs.Length
	}
	return total
}

// GetSortedNodes returns all node ids in ascending order. The slice is cached
// and rebuilt only after node mutations; callers must not modify it.
func (g *RoutingGraph) GetSortedNodes() []int64 {
	g.sortedMu.Lock()
	defer g.sortedMu.Unlock()

	if !g.nodesDirty && g.sortedNodes != nil {
		return g.sortedNodes
	}

	nodes := make([]int64, 0, len(g.Nodes))
	for id := range g.Nodes {
		nodes = append(nodes, id)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	g.sortedNodes = nodes
	g.nodesDirty = false
	return nodes
}

func (g *RoutingGraph) markNodesDirty() {
	g.sortedMu.Lock()
	g.nodesDirty = true
	g.sortedMu.Unlock()
}

// =============================================================================
// Derived graphs
// =============================================================================

// Clone returns a deep copy preserving edge keys, ids and insertion order.
// Repair stages clone the required graph into the work multigraph before
// extending it.
func (g *RoutingGraph) Clone() *RoutingGraph {
	clone := NewRoutingGraph(g.directed)

	for id, n := range g.Nodes {
		clone.Nodes[id] = n
	}
	clone.nodesDirty = true

	for pair, next := range g.nextKey {
		clone.nextKey[pair] = next
	}

	for _, e := range g.edges {
		copied := &Edge{
			From:  e.From,
			To:    e.To,
			Key:   e.Key,
			ID:    e.ID,
			Kind:  e.Kind,
			Attrs: e.Attrs.Clone(),
		}
		clone.insert(copied)
	}

	return clone
}

// FilterEdges builds a new graph containing only edges accepted by keep,
// plus the nodes incident to them. Edge keys and ids are reallocated, so the
// result is a fresh graph, not a view. Nodes left without any edge are
// dropped.
func (g *RoutingGraph) FilterEdges(keep func(*Edge) bool) *RoutingGraph {
	filtered := NewRoutingGraph(g.directed)

	for _, e := range g.edges {
		if !keep(e) {
			continue
		}
		if n, ok := g.Nodes[e.From]; ok && !filtered.HasNode(e.From) {
			filtered.AddNode(n)
		}
		if n, ok := g.Nodes[e.To]; ok && !filtered.HasNode(e.To) {
			filtered.AddNode(n)
		}
		filtered.AddEdge(e.From, e.To, e.Kind, e.Attrs.Clone())
	}

	return filtered
}
