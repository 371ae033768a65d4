// Structural validation of routing and required graphs. A failed check never
// panics; problems are aggregated into apperror.ValidationErrors so a caller
// can log every defect of a broken extract at once.

package graph

import (
	"fmt"
	"math"

	"everystreet/pkg/apperror"
)

// Validate checks the structural invariants every solver stage assumes:
// at least one node, every edge endpoint registered, finite non-negative
// lengths and plausible WGS84 coordinates.
func Validate(g *RoutingGraph) *apperror.ValidationErrors {
	ve := apperror.NewValidationErrors()

	if g == nil {
		ve.Add(apperror.ErrNilGraph)
		return ve
	}

	if len(g.Nodes) == 0 {
		ve.Add(apperror.ErrEmptyGraph)
		return ve
	}

	for _, id := range g.GetSortedNodes() {
		n := g.Nodes[id]
		if math.IsNaN(n.Lat) || math.IsNaN(n.Lon) {
			ve.Add(apperror.New(apperror.CodeMissingCoordinates,
				fmt.Sprintf("node %d has no coordinates", id)).
				WithDetails("node_id", id))
			continue
		}
		if n.Lat < -90 || n.Lat > 90 || n.Lon < -180 || n.Lon > 180 {
			ve.Add(apperror.New(apperror.CodeMissingCoordinates,
				fmt.Sprintf("node %d coordinates (%.6f, %.6f) outside WGS84 range", id, n.Lat, n.Lon)).
				WithDetails("node_id", id).
				WithDetails("lat", n.Lat).
				WithDetails("lon", n.Lon))
		}
	}

	for _, e := range g.AllEdges() {
		if !g.HasNode(e.From) || !g.HasNode(e.To) {
			ve.Add(apperror.New(apperror.CodeDanglingEdge,
				fmt.Sprintf("edge %s references an unknown node", e.EdgeKey())).
				WithDetails("edge", e.EdgeKey().String()).
				WithDetails("from", e.From).
				WithDetails("to", e.To))
			continue
		}
		if math.IsNaN(e.Attrs.Length) || math.IsInf(e.Attrs.Length, 0) || e.Attrs.Length < 0 {
			ve.Add(apperror.New(apperror.CodeNegativeLength,
				fmt.Sprintf("edge %s has invalid length %v", e.EdgeKey(), e.Attrs.Length)).
				WithDetails("edge", e.EdgeKey().String()).
				WithDetails("length", e.Attrs.Length))
		}
	}

	return ve
}

// ValidateSubset checks that every node the required graph references exists
// in the routing graph. Required edges over unknown nodes cannot be connected
// or repaired, so the solve must fail before any stage runs.
func ValidateSubset(routing, required *RoutingGraph) *apperror.ValidationErrors {
	ve := apperror.NewValidationErrors()

	if routing == nil || required == nil {
		ve.Add(apperror.ErrNilGraph)
		return ve
	}

	for _, id := range required.GetSortedNodes() {
		if !routing.HasNode(id) {
			ve.Add(apperror.New(apperror.CodeUnknownNode,
				fmt.Sprintf("required node %d missing from routing graph", id)).
				WithDetails("node_id", id))
		}
	}

	return ve
}
