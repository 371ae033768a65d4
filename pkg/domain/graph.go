package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Node узел дорожного графа, координаты в градусах WGS84
type Node struct {
	ID  int64
	Lat float64
	Lon float64
}

// Point возвращает координату узла в порядке orb (lon, lat)
func (n Node) Point() orb.Point {
	return orb.Point{n.Lon, n.Lat}
}

// EdgeKind происхождение ребра в рабочем мультиграфе обхода
type EdgeKind string

const (
	// KindRoad ребро проезжей подложки, не входящее в рабочий мультиграф
	KindRoad EdgeKind = "road"
	// KindRequired ребро обязательного подграфа
	KindRequired EdgeKind = "required"
	// KindConnector кратчайший путь, сшивающий компоненты обязательного подграфа
	KindConnector EdgeKind = "connector"
	// KindDuplicate повторный проход для починки чётности или баланса степеней
	KindDuplicate EdgeKind = "duplicate"
)

// EdgeAttrs атрибуты ребра дорожного графа
type EdgeAttrs struct {
	// Length длина в метрах, всегда >= 0
	Length float64
	// Geometry ломаная вдоль улицы, может быть пустой
	Geometry orb.LineString
	// Oneway признак одностороннего движения в исходных данных
	Oneway bool
	// Highway классификация улицы
	Highway string
	// Name название улицы
	Name string
	// WayID идентификатор исходного way
	WayID int64
}

// Clone создаёт глубокую копию атрибутов
func (a EdgeAttrs) Clone() EdgeAttrs {
	clone := a
	if len(a.Geometry) > 0 {
		clone.Geometry = make(orb.LineString, len(a.Geometry))
		copy(clone.Geometry, a.Geometry)
	}
	return clone
}

// EdgeKey ключ ребра с учётом параллельных рёбер
type EdgeKey struct {
	From int64
	To   int64
	Key  int
}

// String возвращает строковое представление ключа ребра
func (e EdgeKey) String() string {
	return fmt.Sprintf("%d->%d#%d", e.From, e.To, e.Key)
}

// RouteStep один шаг итогового обхода: ребро и его происхождение
type RouteStep struct {
	From  int64
	To    int64
	Key   int
	Kind  EdgeKind
	Attrs EdgeAttrs
}

// SnapStrategy стратегия выбора области привязки конечных точек
type SnapStrategy string

const (
	// SnapLargestComponent крупнейшая компонента связности дорожного графа
	SnapLargestComponent SnapStrategy = "largest_component"
	// SnapMostRequiredEdges компонента с наибольшим числом обязательных рёбер
	SnapMostRequiredEdges SnapStrategy = "most_required_edges"
	// SnapDominantSCC сильно связная компонента, совместимая с обязательными дугами
	SnapDominantSCC SnapStrategy = "dominant_scc"
)

// SnapRecord диагностическая запись привязки координаты к узлу
type SnapRecord struct {
	RequestedLat float64
	RequestedLon float64
	NodeID       int64
	SnappedLat   float64
	SnappedLon   float64
	// Distance геодезическое расстояние до выбранного узла в метрах
	Distance float64
	Strategy SnapStrategy
}

// String возвращает однострочное описание привязки для журнала
func (r SnapRecord) String() string {
	return fmt.Sprintf("(%.6f, %.6f) -> node %d (%.6f, %.6f), %.1f m [%s]",
		r.RequestedLat, r.RequestedLon, r.NodeID, r.SnappedLat, r.SnappedLon, r.Distance, r.Strategy)
}
