// Package main is the entry point for the everystreet command line tool.
//
// everystreet reads an OpenStreetMap extract, picks out the streets a
// service vehicle is obliged to drive, and computes one continuous route
// that covers every such street at least once with as little repeated
// distance as possible. The result is written as a GPX track ready for a
// navigation device, optionally accompanied by a route sheet (XLSX), a
// route book (PDF), an HTML traversal report and a CSV rendition of the
// same traversal.
//
// # Pipeline
//
// A run is a single offline batch over an immutable extract:
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                     CLI (cmd/everystreet)                    │
//	│  flags, config, logging, metrics, tracing, file exports     │
//	├──────────────────────────────────────────────────────────────┤
//	│                      Service Layer                           │
//	│  (internal/service - Solver)                                 │
//	│  - input validation, directed feasibility precheck          │
//	│  - endpoint snapping                                         │
//	│  - component connection, parity/imbalance repair            │
//	│  - Euler traversal assembly                                  │
//	├──────────────────────────────────────────────────────────────┤
//	│                     Algorithm Layer                          │
//	│  (internal/algorithms)                                       │
//	│  - Dijkstra shortest paths, parallel distance matrix        │
//	│  - minimum-weight matching, min-cost circulation            │
//	│  - Hierholzer circuit/path construction                     │
//	├──────────────────────────────────────────────────────────────┤
//	│                       Graph Layer                            │
//	│  (internal/graph - RoutingGraph multigraph, components)      │
//	├──────────────────────────────────────────────────────────────┤
//	│                   OSM / Converter Layer                      │
//	│  (internal/osm, internal/converter)                          │
//	│  - way scanning, highway filtering                           │
//	│  - drive graph and required subgraph construction           │
//	└──────────────────────────────────────────────────────────────┘
//
// Stages execute strictly in dependency order. A failed stage yields no
// partial route: the GPX track and all report renditions are written only
// after the traversal is complete.
//
// # Usage
//
// Closed loop over every required street, starting anywhere:
//
//	everystreet -osm data/area.osm -out route.gpx
//
// Closed loop anchored at a depot:
//
//	everystreet -osm data/area.osm -start "51.0543,3.7174"
//
// Open route between two coordinates:
//
//	everystreet -osm data/area.osm -start "51.0543,3.7174" -end "51.0614,3.7389"
//
// Directed service (one-way streets must be driven in their tagged
// direction), with feasibility diagnostics:
//
//	everystreet -osm data/area.osm -directed-service \
//	  -diagnostics feasibility.txt -blockers-gpx blockers.gpx -drop-blockers
//
// Report renditions alongside the GPX track:
//
//	everystreet -osm data/area.osm \
//	  -route-sheet route.xlsx -route-book route.pdf \
//	  -route-html route.html -route-csv route.csv
//
// # Flags
//
//	-osm path            OSM extract (.osm, .xml or .pbf), default data/area.osm
//	-out path            GPX route track output, default route.gpx
//	-ignore-oneway       treat one-way streets as bidirectional for shortest paths
//	-directed-service    required streets must be driven in their tagged direction
//	-start "lat,lon"     snap the route start to the nearest usable node
//	-end "lat,lon"       snap the route end; requires -start, same point means a loop
//	-drop-blockers       directed mode: drop required edges outside the largest SCC
//	-diagnostics path    directed mode: write the feasibility report to this path
//	-blockers-gpx path   directed mode: write blocking required edges as GPX
//	-route-sheet path    write the XLSX route sheet
//	-route-book path     write the PDF route book
//	-route-html path     write the HTML traversal report
//	-route-csv path      write the CSV route sheet
//	-config path         explicit config file location
//
// Boolean flags only ever tighten the configuration: -directed-service
// switches solver.mode to directed, but omitting it keeps whatever the
// config file or environment selected.
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Command line flags (mode switches listed above)
//  2. Environment variables (prefix: EVERYSTREET_)
//  3. Config files (-config flag, $CONFIG_PATH, config.yaml,
//     config/config.yaml, /etc/everystreet/config.yaml)
//  4. Default values from pkg/config/loader.go
//
// Key configuration options (environment variable format):
//
//	# Application
//	EVERYSTREET_APP_NAME        - Tool name for logs and traces (default: everystreet)
//	EVERYSTREET_APP_VERSION     - Version reported in logs and metrics (default: 1.0.0)
//	EVERYSTREET_APP_ENVIRONMENT - Environment: development, staging, production
//
//	# Logging
//	EVERYSTREET_LOG_LEVEL     - Log level: debug, info, warn, error (default: info)
//	EVERYSTREET_LOG_FORMAT    - Log format: json, text (default: json)
//	EVERYSTREET_LOG_OUTPUT    - Output: stdout, stderr, file (default: stdout)
//	EVERYSTREET_LOG_FILE_PATH - Log file path when output=file (rotated via lumberjack)
//
//	# Solver
//	EVERYSTREET_SOLVER_MODE                 - undirected or directed (default: undirected)
//	EVERYSTREET_SOLVER_IGNORE_ONEWAY        - Treat one-way streets as bidirectional
//	EVERYSTREET_SOLVER_WORKERS              - Distance matrix workers, 0 = NumCPU
//	EVERYSTREET_SOLVER_TIMEOUT              - Overall solve deadline (default: 10m)
//	EVERYSTREET_SOLVER_MAX_SNAP_DISTANCE    - Snap distance cap in meters, 0 = unlimited
//	EVERYSTREET_SOLVER_EXACT_MATCHING_LIMIT - Odd-node threshold for exact matching (default: 20)
//	EVERYSTREET_SOLVER_IMPROVEMENT_SWEEPS   - Greedy matching improvement passes (default: 2)
//	EVERYSTREET_SOLVER_DROP_BLOCKERS        - Drop blocking required edges before a directed solve
//
//	# OSM selection
//	EVERYSTREET_OSM_REQUIRED_HIGHWAYS - Comma-separated required highway classes
//	EVERYSTREET_OSM_EXCLUDED_HIGHWAYS - Comma-separated classes removed from the graph
//
//	# Caching (shortest path results)
//	EVERYSTREET_CACHE_ENABLED     - Enable path caching (default: false)
//	EVERYSTREET_CACHE_DRIVER      - Cache backend: memory, redis (default: memory)
//	EVERYSTREET_CACHE_HOST        - Redis host (default: localhost)
//	EVERYSTREET_CACHE_PORT        - Redis port (default: 6379)
//	EVERYSTREET_CACHE_DEFAULT_TTL - Cache TTL duration (default: 5m)
//
//	# Tracing (OpenTelemetry)
//	EVERYSTREET_TRACING_ENABLED     - Enable tracing (default: false)
//	EVERYSTREET_TRACING_ENDPOINT    - OTLP endpoint (default: localhost:4317)
//	EVERYSTREET_TRACING_SAMPLE_RATE - Sampling rate 0.0-1.0 (default: 0.1)
//
//	# Metrics (Prometheus)
//	EVERYSTREET_METRICS_ENABLED   - Serve Prometheus metrics during the run (default: true)
//	EVERYSTREET_METRICS_PORT      - Metrics HTTP port (default: 9090)
//	EVERYSTREET_METRICS_NAMESPACE - Metrics namespace (default: everystreet)
//
//	# Export
//	EVERYSTREET_EXPORT_GPX_CREATOR   - GPX creator attribute (default: everystreet)
//	EVERYSTREET_EXPORT_GPX_VERSION   - GPX version: 1.0, 1.1 (default: 1.1)
//	EVERYSTREET_EXPORT_PDF_PAGE_SIZE - Route book page size: A4, A3, Letter, Legal
//
// # Directed Mode
//
// In directed mode required one-way streets keep their direction, so the
// route is an Eulerian structure over directed arcs. A required arc whose
// endpoint lies outside the largest strongly connected component of the
// drive graph can be entered but never left (or never reached); such arcs
// make the instance infeasible. The tool can report them (-diagnostics,
// -blockers-gpx) and, with -drop-blockers, remove them before solving,
// printing a warning to stderr with the number of dropped requirements.
//
// # Observability
//
// Metrics (Prometheus, served on the metrics port while the run lasts):
//
//	everystreet_solve_operations_total  - Solves by mode and status
//	everystreet_solve_duration_seconds  - Solve latency histogram
//	everystreet_stage_duration_seconds  - Per-stage latency histogram
//	everystreet_graph_nodes_total       - Graph sizes by operation
//	everystreet_snap_distance_meters    - Endpoint snap distances
//	everystreet_connectors_added        - Connector paths inserted
//	everystreet_route_length_meters     - Route length by mode
//	everystreet_route_overhead_ratio    - Deadhead overhead by mode
//	everystreet_matrix_pairs_total      - Distance matrix pairs by source
//	everystreet_exports_total           - Exports by format and status
//
// Tracing (OpenTelemetry): one root span per solve with child spans per
// stage (validate, feasibility, connect, snap, parity, imbalance,
// traverse) plus cache and matrix spans.
//
// Logging (structured slog): every solve carries a run_id for correlation;
// stages log their durations and sizes.
//
// # Exit Status
//
// The tool exits 0 after the GPX track and every requested report have
// been written. Any failure - unreadable extract, empty graph, infeasible
// required subgraph, snap/repair failure, export error - logs the cause
// and exits 1. Feasibility diagnostics and the blockers overlay are
// written before solving by design, so they survive an infeasible run for
// inspection.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"everystreet/internal/converter"
	"everystreet/internal/export"
	"everystreet/internal/osm"
	"everystreet/internal/service"
	"everystreet/pkg/cache"
	"everystreet/pkg/config"
	"everystreet/pkg/domain"
	"everystreet/pkg/logger"
	"everystreet/pkg/metrics"
	"everystreet/pkg/telemetry"
)

func main() {
	// =========================================================================
	// Command Line Flags
	// =========================================================================
	//
	// Mode switches (-ignore-oneway, -directed-service, -drop-blockers) are
	// one-directional overrides on top of the loaded configuration: passing
	// the flag enables the behavior, omitting it leaves the config value
	// untouched. Paths are pure CLI concerns and never come from config.
	osmPath := flag.String("osm", "data/area.osm", "path to the .osm, .xml or .pbf extract")
	outPath := flag.String("out", "route.gpx", "path for the GPX route track")
	ignoreOneway := flag.Bool("ignore-oneway", false, "treat one-way streets as bidirectional for shortest paths")
	directedService := flag.Bool("directed-service", false, "service required streets in their tagged direction")
	startArg := flag.String("start", "", "optional start coordinate as 'lat,lon' snapped to the nearest usable node")
	endArg := flag.String("end", "", "optional end coordinate as 'lat,lon'; requires -start")
	dropBlockers := flag.Bool("drop-blockers", false, "drop required edges outside the largest SCC before a directed solve")
	diagnosticsPath := flag.String("diagnostics", "", "write the directed feasibility report to this path")
	blockersGPX := flag.String("blockers-gpx", "", "write blocking required edges to this GPX path")
	routeSheet := flag.String("route-sheet", "", "write the XLSX route sheet to this path")
	routeBook := flag.String("route-book", "", "write the PDF route book to this path")
	routeHTML := flag.String("route-html", "", "write the HTML traversal report to this path")
	routeCSV := flag.String("route-csv", "", "write the CSV route sheet to this path")
	configPath := flag.String("config", "", "explicit config file location")
	flag.Parse()

	start, err := parsePoint("start", *startArg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	end, err := parsePoint("end", *endArg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if end != nil && start == nil {
		log.Fatalf("-end requires -start")
	}

	// =========================================================================
	// Configuration Loading
	// =========================================================================
	//
	// The loader merges defaults, config files and EVERYSTREET_* environment
	// variables. An explicit -config path replaces the standard search
	// locations entirely, matching the $CONFIG_PATH behavior.
	var loaderOpts []config.LoaderOption
	if *configPath != "" {
		loaderOpts = append(loaderOpts, config.WithConfigPaths(*configPath))
	}
	cfg, err := config.NewLoader(loaderOpts...).Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *ignoreOneway {
		cfg.Solver.IgnoreOneway = true
	}
	if *directedService {
		cfg.Solver.Mode = "directed"
	}
	if *dropBlockers {
		cfg.Solver.DropBlockers = true
	}
	mode := strings.ToLower(cfg.Solver.Mode)
	directed := mode == "directed"

	// =========================================================================
	// Logger Initialization
	// =========================================================================
	//
	// Structured slog output; file output rotates via lumberjack. Everything
	// before this point falls back to the stdlib logger.
	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx := context.Background()

	// =========================================================================
	// Telemetry Initialization (OpenTelemetry)
	// =========================================================================
	//
	// When enabled, the solve pipeline emits one root span with child spans
	// per stage. Shutdown flushes pending spans before the process exits; a
	// failed init degrades to no-op tracing rather than aborting the run.
	if cfg.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("Failed to init telemetry", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Log.Warn("Failed to shutdown telemetry", "error", err)
				}
			}()
			logger.Log.Info("Telemetry initialized", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	// =========================================================================
	// Metrics Initialization (Prometheus)
	// =========================================================================
	//
	// Metrics are registered unconditionally so the solver can record stage
	// durations and sizes; the scrape endpoint is only served when enabled.
	// For a batch run the endpoint matters on long solves, where an operator
	// can watch stage progress live.
	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.StartMetricsServer(cfg.Metrics.Port); err != nil {
				logger.Log.Warn("Metrics server stopped", "error", err)
			}
		}()
	}

	logger.Info("Starting route solve",
		"osm", *osmPath,
		"mode", mode,
		"ignore_oneway", cfg.Solver.IgnoreOneway,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// =========================================================================
	// OSM Extract Loading
	// =========================================================================
	//
	// Highway class selection is configurable: which classes the route must
	// service and which never enter the graph at all.
	osm.Configure(cfg.OSM)
	extract, err := osm.ReadExtract(ctx, *osmPath)
	if err != nil {
		logger.Fatal("failed to read OSM extract", "path", *osmPath, "error", err)
	}
	logger.Info("OSM extract loaded", "ways", len(extract.Ways), "nodes", len(extract.Nodes))

	// =========================================================================
	// Graph Construction
	// =========================================================================
	//
	// One extract yields two graphs: the full drive graph used for shortest
	// paths, and the required subgraph of streets the route must cover. The
	// drive graph is directed whenever oneway semantics matter.
	graphs, err := converter.Build(extract, converter.Options{
		DirectedService: directed,
		IgnoreOneway:    cfg.Solver.IgnoreOneway,
	})
	if err != nil {
		logger.Fatal("failed to build routing graphs", "error", err)
	}
	stats := graphs.Stats()
	logger.Info("Routing graphs built",
		"drive_nodes", stats.DriveNodes,
		"drive_edges", stats.DriveEdges,
		"required_nodes", stats.RequiredNodes,
		"required_edges", stats.RequiredEdges,
		"required_length_m", stats.RequiredLength,
	)

	// =========================================================================
	// Directed Feasibility Diagnostics
	// =========================================================================
	//
	// The solver runs its own feasibility precheck and fails an infeasible
	// instance, so this block exists for the operator: it writes the report
	// and the blockers overlay before solving, and with drop_blockers it
	// removes the offending requirements so the run can proceed.
	required := graphs.Required
	if directed && (*diagnosticsPath != "" || *blockersGPX != "" || cfg.Solver.DropBlockers) {
		report, err := service.AnalyzeDirectedFeasibility(graphs.Drive, required)
		if err != nil {
			logger.Fatal("feasibility analysis failed", "error", err)
		}
		if *diagnosticsPath != "" {
			if err := writeReport(*diagnosticsPath, report); err != nil {
				logger.Fatal("failed to write diagnostics report", "path", *diagnosticsPath, "error", err)
			}
			logger.Info("Feasibility diagnostics written", "path", *diagnosticsPath)
		}
		if *blockersGPX != "" && len(report.BlockingEdges) > 0 {
			if err := writeBlockersGPX(*blockersGPX, report, graphs, cfg.Export.GPX); err != nil {
				logger.Fatal("failed to write blockers GPX", "path", *blockersGPX, "error", err)
			}
			logger.Info("Blocking required edges written", "path", *blockersGPX, "edges", len(report.BlockingEdges))
		}
		if cfg.Solver.DropBlockers {
			filtered, dropped := service.DropBlockers(required, report)
			if dropped > 0 {
				fmt.Fprintf(os.Stderr, "WARNING: Dropping %d blocking required edges outside the largest SCC.\n", dropped)
				required = filtered
			}
		}
	}

	// =========================================================================
	// Path Cache Initialization
	// =========================================================================
	//
	// The cache stores shortest paths keyed by a signature of the drive
	// graph, so it is created after graph construction. A cache failure
	// degrades to uncached solving.
	var pathCache *cache.PathCache
	if cfg.Cache.Enabled {
		baseCache, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("Failed to create cache, continuing without cache", "error", err)
		} else {
			defer baseCache.Close()
			pathCache = cache.NewPathCache(baseCache, service.RoutingSignature(graphs.Drive), cfg.Cache.DefaultTTL)
			logger.Log.Info("Path cache initialized", "driver", cfg.Cache.Driver, "ttl", cfg.Cache.DefaultTTL)
		}
	}

	// =========================================================================
	// Solve
	// =========================================================================
	solver := service.NewSolver(cfg.Solver, pathCache)
	result, err := solver.Solve(ctx, service.SolveRequest{
		Drive:    graphs.Drive,
		Required: required,
		Start:    start,
		End:      end,
	})
	if err != nil {
		logger.Fatal("solve failed", "error", err)
	}

	printSnap("start", result.StartSnap)
	printSnap("end", result.EndSnap)
	summary := result.Summary
	fmt.Printf("Route: %d steps (%d required, %d connector, %d duplicate); total %.2f km; required %.2f km; overhead %.1f%%\n",
		summary.Steps, summary.RequiredSteps, summary.ConnectorSteps, summary.DuplicateSteps,
		summary.TotalLength/1000, summary.RequiredLength/1000, summary.Overhead*100)

	// =========================================================================
	// Exports
	// =========================================================================
	//
	// The GPX track is the primary output and always written; report
	// renditions are opt-in per format. Every export is recorded in the
	// exports_total metric by format and status.
	data := &export.RouteData{
		RunID:       result.RunID,
		Area:        areaName(*osmPath),
		Mode:        mode,
		GeneratedAt: time.Now(),
		Steps:       result.Steps,
		Summary:     result.Summary,
		Nodes:       routeNodeIndex(result.Steps, graphs),
		StartNode:   result.StartNode,
		EndNode:     result.EndNode,
		Closed:      result.Closed,
		StartSnap:   result.StartSnap,
		EndSnap:     result.EndSnap,
	}
	if err := exportRoute(ctx, export.FormatGPX, *outPath, data, cfg.Export); err != nil {
		logger.Fatal("GPX export failed", "path", *outPath, "error", err)
	}
	reports := []struct {
		format string
		path   string
	}{
		{export.FormatXLSX, *routeSheet},
		{export.FormatPDF, *routeBook},
		{export.FormatHTML, *routeHTML},
		{export.FormatCSV, *routeCSV},
	}
	for _, r := range reports {
		if r.path == "" {
			continue
		}
		if err := exportRoute(ctx, r.format, r.path, data, cfg.Export); err != nil {
			logger.Fatal("export failed", "format", r.format, "path", r.path, "error", err)
		}
		logger.Info("Report written", "format", r.format, "path", r.path)
	}

	logger.Info("Solve complete",
		"run_id", result.RunID,
		"steps", summary.Steps,
		"total_length_m", summary.TotalLength,
		"overhead", summary.Overhead,
		"connectors", result.Connectors,
		"closed", result.Closed,
		"elapsed", result.Elapsed,
	)
	fmt.Printf("Done. GPX written: %s\n", *outPath)
}

// parsePoint parses a 'lat,lon' flag value; an empty string means the point
// was not requested.
func parsePoint(label, raw string) (*service.Coordinate, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("-%s must be provided as 'lat,lon'", label)
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lonErr != nil {
		return nil, fmt.Errorf("-%s must contain valid numbers like '51.0,6.1'", label)
	}
	return &service.Coordinate{Lat: lat, Lon: lon}, nil
}

// printSnap prints one snap line in a stable, grep-friendly format.
func printSnap(label string, rec *domain.SnapRecord) {
	if rec == nil {
		return
	}
	fmt.Printf("Requested %s (lat, lon): (%.6f, %.6f); snapped %s (lat, lon): (%.6f, %.6f); node=%d; distance_m=%.2f; component=%s\n",
		label, rec.RequestedLat, rec.RequestedLon,
		label, rec.SnappedLat, rec.SnappedLon,
		rec.NodeID, rec.Distance, rec.Strategy)
}

// areaName derives the area name from the extract filename:
// data/ghent.osm.pbf -> ghent.
func areaName(path string) string {
	base := filepath.Base(path)
	for {
		switch strings.ToLower(filepath.Ext(base)) {
		case ".osm", ".pbf", ".xml", ".gz", ".bz2":
			base = strings.TrimSuffix(base, filepath.Ext(base))
		default:
			return base
		}
	}
}

// routeNodeIndex collects coordinates for every node the route visits.
// Connector paths run over the drive graph, so that one is checked first.
func routeNodeIndex(steps []domain.RouteStep, graphs *converter.Result) map[int64]domain.Node {
	index := make(map[int64]domain.Node)
	for _, id := range domain.RouteNodes(steps) {
		if _, seen := index[id]; seen {
			continue
		}
		if n, ok := graphs.Drive.Node(id); ok {
			index[id] = n
			continue
		}
		if n, ok := graphs.Required.Node(id); ok {
			index[id] = n
		}
	}
	return index
}

// exportRoute renders the route in the given format and writes the file.
func exportRoute(ctx context.Context, format, path string, data *export.RouteData, cfg config.ExportConfig) error {
	exp, err := export.New(format, cfg)
	if err != nil {
		return err
	}
	payload, err := exp.Export(ctx, data)
	if err == nil {
		err = errors.Wrapf(os.WriteFile(path, payload, 0o644), "can't write %s export", format)
	}
	if m := metrics.Get(); m != nil {
		m.RecordExport(format, err == nil)
	}
	return err
}

// writeReport writes the directed feasibility report as text.
func writeReport(path string, report *service.FeasibilityReport) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "can't create diagnostics report")
	}
	defer f.Close()
	_, err = report.WriteTo(f)
	return errors.Wrap(err, "can't write diagnostics report")
}

// writeBlockersGPX writes blocking required edges as a GPX overlay, one
// segment per edge so each one is visible on a map on its own.
func writeBlockersGPX(path string, report *service.FeasibilityReport, graphs *converter.Result, cfg config.GPXConfig) error {
	tracks := make([]export.EdgeTrack, 0, len(report.BlockingEdges))
	for _, be := range report.BlockingEdges {
		from, ok := graphs.Required.Node(be.From)
		if !ok {
			continue
		}
		to, ok := graphs.Required.Node(be.To)
		if !ok {
			continue
		}
		tracks = append(tracks, export.EdgeTrack{From: from, To: to, Attrs: be.Attrs})
	}
	payload, err := export.NewGPXExporter(cfg).ExportEdgeList("Blocking required edges", tracks)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, payload, 0o644), "can't write blockers GPX")
}
