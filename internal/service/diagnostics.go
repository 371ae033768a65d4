package service

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"everystreet/internal/graph"
	"everystreet/pkg/apperror"
	"everystreet/pkg/domain"
)

// =============================================================================
// Directed Feasibility Diagnostics
// =============================================================================
//
// A directed route exists only when every required arc can be both reached
// and left, which means all required endpoints must share one strongly
// connected component of the routing graph. Violations are invisible in the
// input data: a handful of one-way tags at the edge of the extract is enough
// to strand a street. The feasibility report makes the SCC structure
// explicit so the operator can either fix the extract boundary or drop the
// blocking requirements and solve the rest.
// =============================================================================

// BlockingEdge is a required edge whose endpoints sit outside the largest
// SCC or in two different SCCs. Attrs are carried along so blockers can be
// exported for inspection on a map.
type BlockingEdge struct {
	From int64
	To   int64

	// SCCFrom and SCCTo index the partition components; -1 marks an
	// endpoint the routing graph does not know.
	SCCFrom int
	SCCTo   int

	Attrs domain.EdgeAttrs
}

// FeasibilityReport captures how the required subgraph sits inside the
// strongly connected structure of the routing graph.
type FeasibilityReport struct {
	DriveNodes    int
	DriveEdges    int
	RequiredNodes int
	RequiredEdges int

	SCCCount       int
	LargestSCC     int
	LargestSCCSize int

	// NodesOutside lists required nodes not in the largest SCC, ascending.
	NodesOutside []int64

	// BlockingEdges lists required edges with an endpoint outside the
	// largest SCC, in required-graph insertion order.
	BlockingEdges []BlockingEdge

	// CrossingEdges lists required edges whose endpoints lie in two
	// different SCCs. Such an edge can be entered but never returned from.
	CrossingEdges []BlockingEdge

	// sccOf maps required node id to its component index, -1 when unknown.
	sccOf map[int64]int
}

// AnalyzeDirectedFeasibility builds the feasibility report for a directed
// routing graph and its required subgraph.
func AnalyzeDirectedFeasibility(drive, required *graph.RoutingGraph) (*FeasibilityReport, error) {
	if drive == nil || required == nil {
		return nil, apperror.New(apperror.CodeNilInput, "feasibility: nil graph")
	}
	if !drive.Directed() {
		return nil, apperror.New(apperror.CodeInvalidArgument, "feasibility: routing graph must be directed")
	}

	partition := graph.StronglyConnectedComponents(drive)
	largest := graph.DominantSCC(partition)

	report := &FeasibilityReport{
		DriveNodes:    drive.NodeCount(),
		DriveEdges:    drive.EdgeCount(),
		RequiredNodes: required.NodeCount(),
		RequiredEdges: required.EdgeCount(),
		SCCCount:      len(partition.Components),
		LargestSCC:    largest,
		sccOf:         make(map[int64]int, required.NodeCount()),
	}
	if largest >= 0 {
		report.LargestSCCSize = len(partition.Components[largest])
	}

	for _, id := range required.GetSortedNodes() {
		idx, ok := partition.Assign[id]
		if !ok {
			idx = -1
		}
		report.sccOf[id] = idx
		if idx != largest {
			report.NodesOutside = append(report.NodesOutside, id)
		}
	}

	for _, e := range required.AllEdges() {
		be := BlockingEdge{
			From:    e.From,
			To:      e.To,
			SCCFrom: report.sccOf[e.From],
			SCCTo:   report.sccOf[e.To],
			Attrs:   e.Attrs.Clone(),
		}
		if be.SCCFrom != largest || be.SCCTo != largest {
			report.BlockingEdges = append(report.BlockingEdges, be)
		}
		if be.SCCFrom != be.SCCTo {
			report.CrossingEdges = append(report.CrossingEdges, be)
		}
	}
	return report, nil
}

// Check returns nil when a directed solve can proceed: every required node
// known to the routing graph and all of them inside one SCC. The failing
// error lists each stranded group with a few member ids, which is usually
// enough to locate the offending one-way tangle on a map.
func (r *FeasibilityReport) Check() error {
	groups := make(map[int][]int64)
	for _, id := range sortedKeys(r.sccOf) {
		idx := r.sccOf[id]
		groups[idx] = append(groups[idx], id)
	}
	if len(groups) <= 1 {
		if _, unknown := groups[-1]; !unknown {
			return nil
		}
	}

	indices := make([]int, 0, len(groups))
	for idx := range groups {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	err := apperror.New(apperror.CodeRequiredOutsideSCC,
		fmt.Sprintf("required nodes span %d strongly connected components, route cannot serve them all", len(groups))).
		WithDetails("scc_groups", len(groups)).
		WithDetails("largest_scc_size", r.LargestSCCSize)
	for _, idx := range indices {
		key := fmt.Sprintf("scc_%d_sample", idx)
		if idx == -1 {
			key = "unknown_nodes_sample"
		}
		err = err.WithDetails(key, componentSample(groups[idx]))
	}
	return err
}

// Feasible reports whether Check would pass.
func (r *FeasibilityReport) Feasible() bool {
	return r.Check() == nil
}

// WriteTo renders the report as a key=value header followed by one section
// per violation list, a shape that both humans and grep handle well.
func (r *FeasibilityReport) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# directed feasibility diagnostics\n")
	fmt.Fprintf(&buf, "drive_nodes=%d\n", r.DriveNodes)
	fmt.Fprintf(&buf, "drive_edges=%d\n", r.DriveEdges)
	fmt.Fprintf(&buf, "required_nodes=%d\n", r.RequiredNodes)
	fmt.Fprintf(&buf, "required_edges=%d\n", r.RequiredEdges)
	fmt.Fprintf(&buf, "scc_count=%d\n", r.SCCCount)
	fmt.Fprintf(&buf, "largest_scc_id=%d\n", r.LargestSCC)
	fmt.Fprintf(&buf, "largest_scc_size=%d\n", r.LargestSCCSize)
	fmt.Fprintf(&buf, "required_nodes_outside_largest_scc=%d\n", len(r.NodesOutside))
	fmt.Fprintf(&buf, "required_edges_outside_largest_scc=%d\n", len(r.BlockingEdges))
	fmt.Fprintf(&buf, "required_edges_crossing_sccs=%d\n", len(r.CrossingEdges))

	buf.WriteString("\n[required_nodes_outside_largest_scc]\n")
	for _, id := range r.NodesOutside {
		fmt.Fprintf(&buf, "%d,scc=%d\n", id, r.sccOf[id])
	}

	buf.WriteString("\n[required_edges_outside_largest_scc]\n")
	for _, be := range r.BlockingEdges {
		fmt.Fprintf(&buf, "%d,%d,scc_u=%d,scc_v=%d\n", be.From, be.To, be.SCCFrom, be.SCCTo)
	}

	buf.WriteString("\n[required_edges_crossing_sccs]\n")
	for _, be := range r.CrossingEdges {
		fmt.Fprintf(&buf, "%d,%d,scc_u=%d,scc_v=%d\n", be.From, be.To, be.SCCFrom, be.SCCTo)
	}

	return buf.WriteTo(w)
}

// DropBlockers returns a copy of the required graph without the report's
// blocking edges. Nodes isolated by the removal drop out with them. The
// second return is the number of removed edges.
func DropBlockers(required *graph.RoutingGraph, report *FeasibilityReport) (*graph.RoutingGraph, int) {
	if required == nil || report == nil || len(report.BlockingEdges) == 0 {
		return required, 0
	}

	blocked := make(map[[2]int64]bool, len(report.BlockingEdges))
	for _, be := range report.BlockingEdges {
		blocked[[2]int64{be.From, be.To}] = true
	}

	dropped := 0
	filtered := required.FilterEdges(func(e *graph.Edge) bool {
		if blocked[[2]int64{e.From, e.To}] {
			dropped++
			return false
		}
		return true
	})
	return filtered, dropped
}

func sortedKeys(m map[int64]int) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortInt64s(keys)
	return keys
}
