package service

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"everystreet/internal/graph"
	"everystreet/pkg/apperror"
	"everystreet/pkg/domain"
)

// =============================================================================
// Endpoint Snapping
// =============================================================================
//
// Requested start/end coordinates rarely land exactly on a graph node, so
// they are snapped to the nearest node by geodesic distance. The candidate
// set is not the whole work graph: a node in a detached fragment would
// produce an untraversable route, so snapping is restricted to a
// connectivity-valid scope first and only then resolved by distance. Ties on
// distance go to the lowest node id so repeated runs pick the same node.
// =============================================================================

// SnapRequest is one coordinate to resolve against the work graph.
type SnapRequest struct {
	Lat float64
	Lon float64

	// Strategy selects the candidate scope. Empty falls back to the mode
	// default: largest component for undirected work graphs, dominant SCC
	// for directed ones.
	Strategy domain.SnapStrategy

	// MaxDistance rejects snaps farther than this many meters when positive.
	MaxDistance float64
}

// Snapper resolves coordinates to nodes of the work graph.
type Snapper struct {
	work  *graph.RoutingGraph
	drive *graph.RoutingGraph
}

// NewSnapper returns a snapper over the work graph. The drive graph supplies
// the SCC partition for the dominant-SCC scope and may be nil when that
// strategy is never used.
func NewSnapper(work, drive *graph.RoutingGraph) *Snapper {
	return &Snapper{work: work, drive: drive}
}

// DefaultStrategy returns the snapping scope appropriate for the service mode.
func DefaultStrategy(directed bool) domain.SnapStrategy {
	if directed {
		return domain.SnapDominantSCC
	}
	return domain.SnapLargestComponent
}

// Snap resolves one coordinate. It returns a record describing the decision;
// the caller is expected to surface it to the user, snapping silently hides
// start points that moved hundreds of meters.
func (s *Snapper) Snap(req SnapRequest) (*domain.SnapRecord, error) {
	if s.work == nil || s.work.NodeCount() == 0 {
		return nil, apperror.New(apperror.CodeEmptyGraph, "snap: work graph is empty")
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = DefaultStrategy(s.work.Directed())
	}

	scope, err := s.scopeNodes(strategy)
	if err != nil {
		return nil, err
	}
	if len(scope) == 0 {
		return nil, apperror.New(apperror.CodeNoCandidateNode,
			fmt.Sprintf("snap: scope %q selected no nodes", string(strategy)))
	}

	requested := orb.Point{req.Lon, req.Lat}
	var (
		bestID   int64
		bestDist float64
		found    bool
	)
	for _, id := range scope {
		node, ok := s.work.Node(id)
		if !ok {
			continue
		}
		d := geo.DistanceHaversine(requested, node.Point())
		// Scope is ascending, so a strict comparison keeps the lowest id
		// among equidistant candidates.
		if !found || d < bestDist {
			bestID, bestDist, found = id, d, true
		}
	}
	if !found {
		return nil, apperror.New(apperror.CodeNoCandidateNode,
			fmt.Sprintf("snap: no node in scope %q has coordinates", string(strategy)))
	}

	if req.MaxDistance > 0 && bestDist > req.MaxDistance {
		return nil, apperror.New(apperror.CodeNoCandidateNode,
			fmt.Sprintf("snap: nearest node %d is %.1f m away, limit is %.1f m", bestID, bestDist, req.MaxDistance)).
			WithDetails("node_id", bestID).
			WithDetails("distance_m", bestDist).
			WithDetails("max_distance_m", req.MaxDistance)
	}

	node, _ := s.work.Node(bestID)
	return &domain.SnapRecord{
		RequestedLat: req.Lat,
		RequestedLon: req.Lon,
		NodeID:       bestID,
		SnappedLat:   node.Lat,
		SnappedLon:   node.Lon,
		Distance:     bestDist,
		Strategy:     strategy,
	}, nil
}

// scopeNodes returns the candidate node ids for the strategy, ascending.
func (s *Snapper) scopeNodes(strategy domain.SnapStrategy) ([]int64, error) {
	switch strategy {
	case domain.SnapLargestComponent:
		return graph.LargestComponent(graph.ConnectedComponents(s.work)), nil

	case domain.SnapMostRequiredEdges:
		return s.mostRequiredScope(), nil

	case domain.SnapDominantSCC:
		return s.dominantSCCScope()

	default:
		return nil, apperror.New(apperror.CodeInvalidArgument,
			fmt.Sprintf("snap: unknown strategy %q", string(strategy)))
	}
}

// mostRequiredScope picks the weakly connected component holding the most
// required edges. Falls back to the largest component when the work graph
// carries no required edges at all.
func (s *Snapper) mostRequiredScope() []int64 {
	components := graph.ConnectedComponents(s.work)
	if len(components) <= 1 {
		return graph.LargestComponent(components)
	}

	assign := make(map[int64]int, s.work.NodeCount())
	for idx, members := range components {
		for _, id := range members {
			assign[id] = idx
		}
	}

	counts := make([]int, len(components))
	total := 0
	for _, e := range s.work.AllEdges() {
		if e.Kind != domain.KindRequired {
			continue
		}
		counts[assign[e.From]]++
		total++
	}
	if total == 0 {
		return graph.LargestComponent(components)
	}

	best := 0
	for idx := 1; idx < len(components); idx++ {
		if counts[idx] > counts[best] {
			best = idx
		}
	}
	return components[best]
}

// dominantSCCScope restricts candidates to work nodes lying inside the drive
// graph's SCC with the most work-graph required edges.
func (s *Snapper) dominantSCCScope() ([]int64, error) {
	if s.drive == nil || !s.drive.Directed() {
		return nil, apperror.New(apperror.CodeInvalidArgument, "snap: dominant-SCC scope needs a directed drive graph")
	}

	partition := graph.StronglyConnectedComponents(s.drive)
	counts := make(map[int]int)
	for _, e := range s.work.AllEdges() {
		if e.Kind != domain.KindRequired {
			continue
		}
		if idx, ok := partition.Assign[e.From]; ok {
			counts[idx]++
		}
	}

	target := -1
	if len(counts) > 0 {
		indices := make([]int, 0, len(counts))
		for idx := range counts {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			if target == -1 || counts[idx] > counts[target] {
				target = idx
			}
		}
	} else {
		target = graph.DominantSCC(partition)
	}
	if target < 0 {
		return nil, apperror.New(apperror.CodeNoCandidateNode, "snap: drive graph has no strongly connected components")
	}

	var scope []int64
	for _, id := range s.work.GetSortedNodes() {
		if idx, ok := partition.Assign[id]; ok && idx == target {
			scope = append(scope, id)
		}
	}
	return scope, nil
}
