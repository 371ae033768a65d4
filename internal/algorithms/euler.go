package algorithms

import (
	"fmt"
	"sort"

	"everystreet/internal/graph"
	"everystreet/pkg/apperror"
	"everystreet/pkg/domain"
)

// =============================================================================
// Eulerian Traversal Engine
// =============================================================================
//
// The engine turns the fully repaired work multigraph into the final ordered
// traversal. It is a small state machine:
//
//	Unverified -> Feasible:   the degree conditions for the requested mode hold
//	Unverified -> Infeasible: they do not; this is an upstream repair defect,
//	                          surfaced loudly and never retried
//	Feasible   -> Traversed:  Hierholzer construction emitted every edge once
//
// A traversal is one-shot: the second Traverse call on the same engine is
// rejected, because the emitted sequence is handed off to the exporter and
// the engine does not retain it.
// =============================================================================

// TraversalState is the lifecycle state of an EulerEngine.
type TraversalState int

const (
	// StateUnverified means no feasibility check has run yet.
	StateUnverified TraversalState = iota
	// StateFeasible means the degree conditions for the mode hold.
	StateFeasible
	// StateTraversed means the traversal was produced and consumed.
	StateTraversed
	// StateInfeasible is terminal: the work graph cannot be traversed.
	StateInfeasible
)

// String returns the state name for logs.
func (s TraversalState) String() string {
	switch s {
	case StateUnverified:
		return "unverified"
	case StateFeasible:
		return "feasible"
	case StateTraversed:
		return "traversed"
	case StateInfeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// OddVertices returns the odd-degree nodes of an undirected graph in
// ascending order.
func OddVertices(g *graph.RoutingGraph) []int64 {
	var odd []int64
	for _, id := range g.GetSortedNodes() {
		if g.Degree(id)%2 != 0 {
			odd = append(odd, id)
		}
	}
	return odd
}

// DegreeImbalances returns delta = out-degree - in-degree for every node of
// a directed graph where the delta is non-zero.
func DegreeImbalances(g *graph.RoutingGraph) map[int64]int {
	deltas := make(map[int64]int)
	for _, id := range g.GetSortedNodes() {
		if d := g.OutDegree(id) - g.InDegree(id); d != 0 {
			deltas[id] = d
		}
	}
	return deltas
}

// EulerEngine drives feasibility verification and traversal construction
// over the repaired work multigraph.
type EulerEngine struct {
	work  *graph.RoutingGraph
	start int64
	end   int64
	state TraversalState
	fail  error
}

// NewEulerEngine prepares an engine for the work graph. A route is closed
// when start equals end.
func NewEulerEngine(work *graph.RoutingGraph, start, end int64) *EulerEngine {
	return &EulerEngine{
		work:  work,
		start: start,
		end:   end,
		state: StateUnverified,
	}
}

// State returns the current lifecycle state.
func (e *EulerEngine) State() TraversalState {
	return e.state
}

// Closed reports whether the requested route is a circuit.
func (e *EulerEngine) Closed() bool {
	return e.start == e.end
}

// Verify checks the Eulerian degree conditions for the requested mode and
// moves the engine to Feasible or Infeasible. Verifying an already verified
// engine is a no-op; an infeasible engine keeps returning its verdict.
func (e *EulerEngine) Verify() error {
	switch e.state {
	case StateFeasible, StateTraversed:
		return nil
	case StateInfeasible:
		return e.fail
	}

	if err := e.precheck(); err != nil {
		e.state = StateInfeasible
		e.fail = err
		return err
	}

	e.state = StateFeasible
	return nil
}

func (e *EulerEngine) precheck() error {
	if e.work == nil || e.work.EdgeCount() == 0 {
		return apperror.New(apperror.CodeEulerianPrecheck, "work graph has no edges to traverse")
	}
	if !e.work.HasNode(e.start) || e.work.Degree(e.start) == 0 {
		return apperror.New(apperror.CodeEulerianPrecheck, "start node has no incident edges").
			WithDetails("node_id", e.start)
	}
	if !e.work.HasNode(e.end) || e.work.Degree(e.end) == 0 {
		return apperror.New(apperror.CodeEulerianPrecheck, "end node has no incident edges").
			WithDetails("node_id", e.end)
	}

	if e.work.Directed() {
		return e.precheckDirected()
	}
	return e.precheckUndirected()
}

// precheckUndirected enforces the parity signature: a circuit needs every
// degree even, an open route exactly the two endpoints odd.
func (e *EulerEngine) precheckUndirected() error {
	odd := OddVertices(e.work)

	if e.Closed() {
		if len(odd) > 0 {
			return apperror.New(apperror.CodeEulerianPrecheck,
				fmt.Sprintf("circuit requested but %d nodes have odd degree", len(odd))).
				WithDetails("odd_nodes", truncateNodes(odd))
		}
		return nil
	}

	if len(odd) != 2 || odd[0] != minInt64(e.start, e.end) || odd[1] != maxInt64(e.start, e.end) {
		return apperror.New(apperror.CodeEulerianPrecheck,
			fmt.Sprintf("open route requires exactly start and end odd, found %d odd nodes", len(odd))).
			WithDetails("odd_nodes", truncateNodes(odd)).
			WithDetails("start", e.start).
			WithDetails("end", e.end)
	}
	return nil
}

// precheckDirected enforces the balance signature: a circuit needs
// out-degree equal to in-degree everywhere, an open route exactly +1 at the
// start and -1 at the end.
func (e *EulerEngine) precheckDirected() error {
	deltas := DegreeImbalances(e.work)

	if e.Closed() {
		if len(deltas) > 0 {
			return apperror.New(apperror.CodeEulerianPrecheck,
				fmt.Sprintf("circuit requested but %d nodes are imbalanced", len(deltas))).
				WithDetails("imbalanced_nodes", truncateDeltas(deltas))
		}
		return nil
	}

	if len(deltas) != 2 || deltas[e.start] != 1 || deltas[e.end] != -1 {
		return apperror.New(apperror.CodeEulerianPrecheck,
			fmt.Sprintf("open route requires +1 at start and -1 at end, found %d imbalanced nodes", len(deltas))).
			WithDetails("imbalanced_nodes", truncateDeltas(deltas)).
			WithDetails("start", e.start).
			WithDetails("end", e.end)
	}
	return nil
}

// tourEntry is one frame of the iterative Hierholzer stack: the node stood
// on plus the edge walked to reach it (nil for the start frame).
type tourEntry struct {
	node int64
	via  *graph.Edge
	from int64
}

// Traverse produces the ordered traversal: every edge of the work graph
// exactly once, consecutive steps chained head to tail, starting at the
// requested start node. The engine verifies feasibility first if the caller
// has not. The traversal is one-shot; a second call fails with
// apperror.CodeTraversalConsumed.
func (e *EulerEngine) Traverse() ([]domain.RouteStep, error) {
	switch e.state {
	case StateTraversed:
		return nil, apperror.New(apperror.CodeTraversalConsumed,
			"traversal already produced; the sequence is consumed once")
	case StateInfeasible:
		return nil, e.fail
	case StateUnverified:
		if err := e.Verify(); err != nil {
			return nil, err
		}
	}

	used := make([]bool, e.work.EdgeCount())
	cursor := make(map[int64]int, e.work.NodeCount())

	stack := make([]tourEntry, 0, e.work.EdgeCount()+1)
	stack = append(stack, tourEntry{node: e.start})

	steps := make([]domain.RouteStep, 0, e.work.EdgeCount())

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		u := top.node

		adj := e.work.OutEdges(u)
		advanced := false
		for cursor[u] < len(adj) {
			edge := adj[cursor[u]]
			cursor[u]++
			if used[edge.ID] {
				continue
			}
			used[edge.ID] = true
			stack = append(stack, tourEntry{node: edge.Other(u), via: edge, from: u})
			advanced = true
			break
		}
		if advanced {
			continue
		}

		// Dead end: the frame is finished, emit its arrival edge.
		stack = stack[:len(stack)-1]
		if top.via != nil {
			steps = append(steps, domain.RouteStep{
				From:  top.from,
				To:    top.node,
				Key:   top.via.Key,
				Kind:  top.via.Kind,
				Attrs: top.via.Attrs,
			})
		}
	}

	// Hierholzer emits edges in reverse traversal order.
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}

	if len(steps) != e.work.EdgeCount() {
		// Degrees were consistent but part of the graph is unreachable
		// from the start: the work graph is disconnected.
		err := apperror.New(apperror.CodeEulerianPrecheck,
			fmt.Sprintf("traversal covered %d of %d edges; work graph is disconnected", len(steps), e.work.EdgeCount())).
			WithDetails("covered", len(steps)).
			WithDetails("total", e.work.EdgeCount())
		e.state = StateInfeasible
		e.fail = err
		return nil, err
	}

	e.state = StateTraversed
	return steps, nil
}

// truncateNodes bounds diagnostic node lists in error details.
func truncateNodes(nodes []int64) []int64 {
	const limit = 16
	if len(nodes) <= limit {
		return nodes
	}
	return nodes[:limit]
}

// truncateDeltas renders a bounded imbalance summary for error details.
func truncateDeltas(deltas map[int64]int) map[int64]int {
	const limit = 16
	if len(deltas) <= limit {
		return deltas
	}
	keys := make([]int64, 0, len(deltas))
	for node := range deltas {
		keys = append(keys, node)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make(map[int64]int, limit)
	for _, node := range keys[:limit] {
		out[node] = deltas[node]
	}
	return out
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
