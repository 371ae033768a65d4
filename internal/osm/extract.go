// Package osm reads road-relevant ways and nodes out of an OpenStreetMap
// extract. The file is scanned twice with the same decoder: the ways pass
// collects road ways and marks their node references, the nodes pass then
// resolves only the marked nodes to coordinates.
package osm

import (
	"context"
	"io"
	"os"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"

	"everystreet/pkg/domain"
	"everystreet/pkg/logger"
)

// WayData is one road way with the tags the graph builder needs.
type WayData struct {
	ID      int64
	Name    string
	Highway string
	// Oneway restricts travel to the node order; Reversed flips it
	// ("oneway=-1").
	Oneway   bool
	Reversed bool
	Nodes    []int64
	Tags     map[string]string
}

// Driveable reports whether the service vehicle may use this way.
func (w *WayData) Driveable() bool {
	return Driveable(w.Tags)
}

// Required reports whether this way must be serviced by the route.
func (w *WayData) Required() bool {
	return Required(w.Tags)
}

// Extract is the road subset of an OSM file: highway-tagged ways and the
// coordinates of every node they reference.
type Extract struct {
	Ways  []*WayData
	Nodes map[int64]domain.Node
}

// ReadExtract loads an .osm, .xml or .pbf extract from disk.
func ReadExtract(ctx context.Context, filename string) (*Extract, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "can't open OSM extract")
	}
	defer file.Close()

	ways, nodesSeen, err := scanWays(ctx, file, filename)
	if err != nil {
		return nil, errors.Wrap(err, "ways pass failed")
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "can't rewind extract after ways pass")
	}

	nodes, err := scanNodes(ctx, file, filename, nodesSeen)
	if err != nil {
		return nil, errors.Wrap(err, "nodes pass failed")
	}

	logger.Debug("OSM extract loaded",
		"file", filename,
		"ways", len(ways),
		"nodes", len(nodes),
	)
	return &Extract{Ways: ways, Nodes: nodes}, nil
}

func scanWays(ctx context.Context, file *os.File, filename string) ([]*WayData, map[int64]struct{}, error) {
	scanner, err := newScanner(ctx, file, filename)
	if err != nil {
		return nil, nil, err
	}
	defer scanner.Close()

	var ways []*WayData
	nodesSeen := make(map[int64]struct{})
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		tags := way.TagMap()
		if tags["highway"] == "" || len(way.Nodes) < 2 {
			continue
		}

		oneway, reversed := onewaySemantics(tags)
		data := &WayData{
			ID:       int64(way.ID),
			Name:     tags["name"],
			Highway:  tags["highway"],
			Oneway:   oneway,
			Reversed: reversed,
			Nodes:    make([]int64, 0, len(way.Nodes)),
			Tags:     tags,
		}
		for _, node := range way.Nodes {
			nodesSeen[int64(node.ID)] = struct{}{}
			data.Nodes = append(data.Nodes, int64(node.ID))
		}
		ways = append(ways, data)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "way scanning failed")
	}
	return ways, nodesSeen, nil
}

func scanNodes(ctx context.Context, file *os.File, filename string, wanted map[int64]struct{}) (map[int64]domain.Node, error) {
	scanner, err := newScanner(ctx, file, filename)
	if err != nil {
		return nil, err
	}
	defer scanner.Close()

	nodes := make(map[int64]domain.Node, len(wanted))
	for scanner.Scan() {
		node, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		id := int64(node.ID)
		if _, ok := wanted[id]; !ok {
			continue
		}
		nodes[id] = domain.Node{ID: id, Lat: node.Lat, Lon: node.Lon}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "node scanning failed")
	}
	return nodes, nil
}

// onewaySemantics decodes the oneway tag. Absent values fall back to the
// junction tag: roundabouts are implicitly one-way.
func onewaySemantics(tags map[string]string) (oneway, reversed bool) {
	switch tags["oneway"] {
	case "yes", "1", "true":
		return true, false
	case "-1", "reverse":
		return true, true
	case "no", "0", "false":
		return false, false
	case "":
		junction := tags["junction"]
		return junction == "roundabout" || junction == "circular", false
	default:
		// Reversible and alternating schemes depend on time conditions;
		// treat them as bidirectional.
		return false, false
	}
}
