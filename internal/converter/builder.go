// Package converter собирает дорожный и обязательный графы из выгрузки
// OpenStreetMap.
//
// Пути нарезаются на сегменты между перекрёстками: узел считается
// перекрёстком, если на него ссылаются несколько проезжих путей (или один
// путь дважды) либо он является конечным узлом пути. Каждый сегмент несёт
// полную ломаную вдоль улицы и длину по гаверсинусу, поэтому ребро графа
// соответствует участку улицы между перекрёстками, а не паре соседних точек.
package converter

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"everystreet/internal/graph"
	"everystreet/internal/osm"
	"everystreet/pkg/apperror"
	"everystreet/pkg/domain"
	"everystreet/pkg/logger"
)

// Options режим сборки графов одной выгрузки
type Options struct {
	// DirectedService обязательный граф хранит дуги с направлением движения
	DirectedService bool
	// IgnoreOneway односторонние улицы считаются двусторонними при поиске
	// кратчайших путей; на направление обязательных дуг не влияет
	IgnoreOneway bool
}

// driveDirected дорожная подложка направленная, если решаем направленную
// задачу или учитываем односторонность
func (o Options) driveDirected() bool {
	return o.DirectedService || !o.IgnoreOneway
}

// Result графы, собранные из одной выгрузки
type Result struct {
	// Drive полный проезжий граф, подложка для кратчайших путей
	Drive *graph.RoutingGraph
	// Required подграф улиц, подлежащих обязательному проезду
	Required *graph.RoutingGraph
}

// Stats сводка размеров собранных графов
type Stats struct {
	DriveNodes     int
	DriveEdges     int
	RequiredNodes  int
	RequiredEdges  int
	RequiredLength float64
}

// Stats возвращает сводку размеров для журнала и отчётов
func (r *Result) Stats() Stats {
	return Stats{
		DriveNodes:     r.Drive.NodeCount(),
		DriveEdges:     r.Drive.EdgeCount(),
		RequiredNodes:  r.Required.NodeCount(),
		RequiredEdges:  r.Required.EdgeCount(),
		RequiredLength: r.Required.TotalLength(),
	}
}

// reqKey пара узлов обязательного ребра; для ненаправленного графа
// каноническая (меньший id первым)
type reqKey struct {
	a, b int64
}

// reqCandidate лучший кандидат обязательного ребра между парой узлов
type reqCandidate struct {
	from, to int64
	attrs    domain.EdgeAttrs
}

// Build строит оба графа из выгрузки. Непроезжие пути отбрасываются,
// сегменты с узлами без координат пропускаются с предупреждением.
func Build(extract *osm.Extract, opts Options) (*Result, error) {
	if extract == nil {
		return nil, apperror.New(apperror.CodeNilInput, "nil OSM extract")
	}

	driveable := make([]*osm.WayData, 0, len(extract.Ways))
	for _, w := range extract.Ways {
		if len(w.Nodes) >= 2 && w.Driveable() {
			driveable = append(driveable, w)
		}
	}
	if len(driveable) == 0 {
		return nil, apperror.New(apperror.CodeEmptyGraph, "extract contains no driveable ways")
	}

	junctions := collectJunctions(driveable)

	drive := graph.NewRoutingGraph(opts.driveDirected())
	required := graph.NewRoutingGraph(opts.DirectedService)

	// Кандидаты обязательных рёбер: на пару узлов остаётся один, с
	// геометрией и минимальной длиной. Порядок первого появления сохраняется
	// для детерминированной вставки.
	best := make(map[reqKey]*reqCandidate)
	var firstSeen []reqKey
	var skipped int

	for _, w := range driveable {
		nodes := travelOrder(w)
		for _, seg := range splitWay(nodes, junctions) {
			line, length, ok := segmentShape(seg, extract.Nodes)
			if !ok {
				skipped++
				continue
			}

			attrs := domain.EdgeAttrs{
				Length:   length,
				Geometry: line,
				Oneway:   w.Oneway,
				Highway:  w.Highway,
				Name:     w.Name,
				WayID:    w.ID,
			}

			from, to := seg[0], seg[len(seg)-1]
			addEndpoints(drive, extract.Nodes, from, to)

			oneway := w.Oneway && !opts.IgnoreOneway
			if drive.Directed() {
				drive.AddEdge(from, to, domain.KindRoad, attrs)
				if !oneway {
					drive.AddEdge(to, from, domain.KindRoad, reverseAttrs(attrs))
				}
			} else {
				drive.AddEdge(from, to, domain.KindRoad, attrs)
			}

			if !w.Required() {
				continue
			}
			if opts.DirectedService {
				offerRequired(best, &firstSeen, false, from, to, attrs)
				if !w.Oneway {
					offerRequired(best, &firstSeen, false, to, from, reverseAttrs(attrs))
				}
			} else {
				offerRequired(best, &firstSeen, true, from, to, attrs)
			}
		}
	}

	for _, key := range firstSeen {
		c := best[key]
		addEndpoints(required, extract.Nodes, c.from, c.to)
		required.AddEdge(c.from, c.to, domain.KindRequired, c.attrs.Clone())
	}

	if skipped > 0 {
		logger.Warn("segments skipped: node coordinates missing", "segments", skipped)
	}
	logger.Debug("graphs built",
		"drive_nodes", drive.NodeCount(),
		"drive_edges", drive.EdgeCount(),
		"required_nodes", required.NodeCount(),
		"required_edges", required.EdgeCount(),
		"directed", drive.Directed(),
	)

	return &Result{Drive: drive, Required: required}, nil
}

// collectJunctions находит узлы стыковки: конечные узлы путей и узлы,
// встречающиеся более одного раза среди всех проезжих путей
func collectJunctions(ways []*osm.WayData) map[int64]bool {
	usage := make(map[int64]int)
	junction := make(map[int64]bool)

	for _, w := range ways {
		junction[w.Nodes[0]] = true
		junction[w.Nodes[len(w.Nodes)-1]] = true
		for _, id := range w.Nodes {
			usage[id]++
			if usage[id] > 1 {
				junction[id] = true
			}
		}
	}

	return junction
}

// travelOrder возвращает узлы пути в порядке движения: oneway=-1 хранит
// узлы против разрешённого направления
func travelOrder(w *osm.WayData) []int64 {
	if !w.Oneway || !w.Reversed {
		return w.Nodes
	}
	reversed := make([]int64, len(w.Nodes))
	for i, id := range w.Nodes {
		reversed[len(w.Nodes)-1-i] = id
	}
	return reversed
}

// splitWay нарезает цепочку узлов на сегменты, границы которых лежат на
// перекрёстках. Возвращаемые сегменты включают оба граничных узла.
func splitWay(nodes []int64, junction map[int64]bool) [][]int64 {
	if len(nodes) < 2 {
		return nil
	}

	var segments [][]int64
	start := 0
	for i := 1; i < len(nodes); i++ {
		if junction[nodes[i]] || i == len(nodes)-1 {
			segments = append(segments, nodes[start:i+1])
			start = i
		}
	}
	return segments
}

// segmentShape строит ломаную сегмента и её длину в метрах.
// ok=false, если у какого-то узла нет координат.
func segmentShape(seg []int64, coords map[int64]domain.Node) (orb.LineString, float64, bool) {
	line := make(orb.LineString, 0, len(seg))
	for _, id := range seg {
		n, ok := coords[id]
		if !ok {
			return nil, 0, false
		}
		line = append(line, n.Point())
	}
	return line, geo.LengthHaversign(line), true
}

// addEndpoints регистрирует граничные узлы сегмента с координатами
func addEndpoints(g *graph.RoutingGraph, coords map[int64]domain.Node, from, to int64) {
	if !g.HasNode(from) {
		if n, ok := coords[from]; ok {
			g.AddNode(n)
		}
	}
	if !g.HasNode(to) {
		if n, ok := coords[to]; ok {
			g.AddNode(n)
		}
	}
}

// reverseAttrs копия атрибутов с ломаной в обратном порядке
func reverseAttrs(a domain.EdgeAttrs) domain.EdgeAttrs {
	r := a.Clone()
	for i, j := 0, len(r.Geometry)-1; i < j; i, j = i+1, j-1 {
		r.Geometry[i], r.Geometry[j] = r.Geometry[j], r.Geometry[i]
	}
	return r
}

// offerRequired регистрирует кандидата обязательного ребра, оставляя на
// пару лучший: сперва с геометрией, затем по минимальной длине
func offerRequired(best map[reqKey]*reqCandidate, firstSeen *[]reqKey, undirected bool, from, to int64, attrs domain.EdgeAttrs) {
	key := reqKey{a: from, b: to}
	if undirected && from > to {
		key = reqKey{a: to, b: from}
	}

	current, exists := best[key]
	if !exists {
		best[key] = &reqCandidate{from: from, to: to, attrs: attrs}
		*firstSeen = append(*firstSeen, key)
		return
	}
	if betterCandidate(attrs, current.attrs) {
		current.from = from
		current.to = to
		current.attrs = attrs
	}
}

// betterCandidate предпочитает атрибуты с геометрией, затем меньшую длину
func betterCandidate(a, b domain.EdgeAttrs) bool {
	aGeom, bGeom := len(a.Geometry) > 0, len(b.Geometry) > 0
	if aGeom != bGeom {
		return aGeom
	}
	return domain.FloatLess(a.Length, b.Length)
}
