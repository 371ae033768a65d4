package osm

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

// OSMScanner is the common surface of the osmpbf and osmxml decoders.
type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// pbfWorkers is the decoder parallelism for .pbf extracts.
const pbfWorkers = 4

// newScanner picks a decoder by file extension.
func newScanner(ctx context.Context, file *os.File, filename string) (OSMScanner, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".osm", ".xml":
		return osmxml.New(ctx, file), nil
	case ".pbf":
		return osmpbf.New(ctx, file, pbfWorkers), nil
	default:
		return nil, errors.Errorf("unsupported extract extension %q (want .osm, .xml or .pbf)", ext)
	}
}
