package export

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/tkrajina/gpxgo/gpx"

	"everystreet/pkg/apperror"
	"everystreet/pkg/config"
	"everystreet/pkg/domain"
)

// GPXExporter выгрузка обхода одним треком GPX
type GPXExporter struct {
	BaseExporter
	cfg config.GPXConfig
}

// NewGPXExporter создаёт новый экспортёр
func NewGPXExporter(cfg config.GPXConfig) *GPXExporter {
	if cfg.Creator == "" {
		cfg.Creator = "everystreet"
	}
	if cfg.Version == "" {
		cfg.Version = "1.1"
	}
	return &GPXExporter{cfg: cfg}
}

// Format возвращает формат экспортёра
func (g *GPXExporter) Format() string {
	return FormatGPX
}

// Export строит GPX трек обхода.
//
// Все шаги пишутся в один сегмент. Геометрия ребра хранится без учёта
// направления прохода, поэтому перед записью ломаная разворачивается, если её
// концы ближе к узлам шага в обратном порядке. Подряд идущие одинаковые
// точки на стыках соседних рёбер схлопываются.
func (g *GPXExporter) Export(ctx context.Context, data *RouteData) ([]byte, error) {
	if len(data.Steps) == 0 {
		return nil, apperror.New(apperror.CodeExportFailure, "route has no steps to export")
	}

	doc := g.newDocument(data)

	seg := gpx.GPXTrackSegment{}
	var last orb.Point
	haveLast := false

	for _, step := range data.Steps {
		coords, err := g.stepCoords(data, step)
		if err != nil {
			return nil, err
		}
		for _, pt := range coords {
			if haveLast && pt == last {
				continue
			}
			seg.Points = append(seg.Points, trackPoint(pt))
			last, haveLast = pt, true
		}
	}

	track := gpx.GPXTrack{Name: g.Title(data)}
	track.Segments = append(track.Segments, seg)
	doc.Tracks = append(doc.Tracks, track)

	return doc.ToXml(gpx.ToXmlParams{Version: g.cfg.Version, Indent: true})
}

// EdgeTrack ребро для выгрузки отдельным сегментом трека
type EdgeTrack struct {
	From  domain.Node
	To    domain.Node
	Attrs domain.EdgeAttrs
}

// ExportEdgeList выгружает набор рёбер, каждое своим сегментом. Используется
// для наложения блокирующих обязательных рёбер поверх карты.
func (g *GPXExporter) ExportEdgeList(name string, edges []EdgeTrack) ([]byte, error) {
	doc := &gpx.GPX{
		Version: g.cfg.Version,
		Creator: g.cfg.Creator,
		Name:    name,
	}

	track := gpx.GPXTrack{Name: name}
	for _, e := range edges {
		coords := edgeCoords(e.From.Point(), e.To.Point(), e.Attrs.Geometry)
		seg := gpx.GPXTrackSegment{}
		for _, pt := range coords {
			seg.Points = append(seg.Points, trackPoint(pt))
		}
		track.Segments = append(track.Segments, seg)
	}
	doc.Tracks = append(doc.Tracks, track)

	return doc.ToXml(gpx.ToXmlParams{Version: g.cfg.Version, Indent: true})
}

func (g *GPXExporter) newDocument(data *RouteData) *gpx.GPX {
	ts := g.GeneratedAt(data)
	return &gpx.GPX{
		Version:     g.cfg.Version,
		Creator:     g.cfg.Creator,
		Name:        g.Title(data),
		Description: g.Subtitle(data),
		Time:        &ts,
	}
}

// stepCoords возвращает координаты шага в направлении прохода
func (g *GPXExporter) stepCoords(data *RouteData, step domain.RouteStep) ([]orb.Point, error) {
	from, okFrom := data.Node(step.From)
	to, okTo := data.Node(step.To)
	if !okFrom || !okTo {
		return nil, apperror.New(apperror.CodeUnknownNode,
			fmt.Sprintf("step %d->%d references a node without coordinates", step.From, step.To))
	}
	return edgeCoords(from.Point(), to.Point(), step.Attrs.Geometry), nil
}

// edgeCoords возвращает ломаную ребра, ориентированную от from к to.
// Ребро без геометрии вырождается в отрезок между узлами.
func edgeCoords(from, to orb.Point, geom orb.LineString) []orb.Point {
	if len(geom) == 0 {
		return []orb.Point{from, to}
	}
	coords := make([]orb.Point, len(geom))
	copy(coords, geom)
	if !orientedForward(coords, from, to) {
		reversePoints(coords)
	}
	return coords
}

// orientedForward проверяет, что ломаная уже направлена от from к to,
// сравнивая квадраты плоских расстояний между её концами и узлами шага.
func orientedForward(coords []orb.Point, from, to orb.Point) bool {
	start, end := coords[0], coords[len(coords)-1]
	return planarDist2(start, from) <= planarDist2(start, to) &&
		planarDist2(end, to) <= planarDist2(end, from)
}

func planarDist2(a, b orb.Point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}

func reversePoints(pts []orb.Point) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}

func trackPoint(pt orb.Point) gpx.GPXPoint {
	return gpx.GPXPoint{Point: gpx.Point{Latitude: pt.Lat(), Longitude: pt.Lon()}}
}
