package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Граф
	AttrGraphNodes    = "graph.nodes"
	AttrGraphEdges    = "graph.edges"
	AttrGraphRequired = "graph.required_edges"
	AttrGraphMode     = "graph.mode"

	// Этапы конвейера
	AttrSnapStrategy    = "snap.strategy"
	AttrSnapDistance    = "snap.distance_meters"
	AttrComponents      = "connect.components"
	AttrConnectorsAdded = "connect.connectors_added"
	AttrOddNodes        = "parity.odd_nodes"
	AttrImbalanceTotal  = "imbalance.total"
	AttrDuplicatesAdded = "repair.duplicates_added"

	// Маршрут
	AttrRouteSteps    = "route.steps"
	AttrRouteLength   = "route.length_meters"
	AttrRouteOverhead = "route.overhead"
	AttrRouteClosed   = "route.closed"
)

// GraphAttributes возвращает атрибуты графа
func GraphAttributes(nodes, edges, requiredEdges int, mode string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrGraphNodes, nodes),
		attribute.Int(AttrGraphEdges, edges),
		attribute.Int(AttrGraphRequired, requiredEdges),
		attribute.String(AttrGraphMode, mode),
	}
}

// SnapAttributes возвращает атрибуты привязки точки
func SnapAttributes(strategy string, distance float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSnapStrategy, strategy),
		attribute.Float64(AttrSnapDistance, distance),
	}
}

// RouteAttributes возвращает атрибуты готового маршрута
func RouteAttributes(steps int, lengthMeters, overhead float64, closed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrRouteSteps, steps),
		attribute.Float64(AttrRouteLength, lengthMeters),
		attribute.Float64(AttrRouteOverhead, overhead),
		attribute.Bool(AttrRouteClosed, closed),
	}
}
