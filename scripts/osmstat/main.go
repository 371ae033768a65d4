package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/paulmach/orb/geo"

	"everystreet/internal/osm"
	"everystreet/pkg/config"
	"everystreet/pkg/domain"
	"everystreet/pkg/logger"
)

// ANSI Colors
var (
	CYAN   = "\033[0;36m"
	GREEN  = "\033[0;32m"
	YELLOW = "\033[1;33m"
	GRAY   = "\033[0;90m"
	BOLD   = "\033[1m"
	NC     = "\033[0m"
)

func init() {
	if runtime.GOOS == "windows" {
		if os.Getenv("WT_SESSION") == "" && os.Getenv("TERM_PROGRAM") != "vscode" {
			CYAN, GREEN, YELLOW, GRAY, BOLD, NC = "", "", "", "", "", ""
		}
	}
}

// ClassStat aggregates ways of one highway class.
type ClassStat struct {
	Class      string
	Ways       int
	Oneway     int
	Length     float64
	RequiredKm float64
}

// ExtractReport summarizes the road composition of one extract. It exists
// to answer the question "which highway classes should be required?" before
// committing to a long solve.
type ExtractReport struct {
	Path    string
	Ways    int
	Nodes   int
	Classes []ClassStat
}

func buildReport(path string, extract *osm.Extract) *ExtractReport {
	byClass := make(map[string]*ClassStat)
	for _, w := range extract.Ways {
		class := firstToken(w.Highway)
		if class == "" {
			class = "(untagged)"
		}
		stat, ok := byClass[class]
		if !ok {
			stat = &ClassStat{Class: class}
			byClass[class] = stat
		}
		stat.Ways++
		if w.Oneway {
			stat.Oneway++
		}
		length := wayLength(w, extract.Nodes)
		stat.Length += length
		if w.Required() {
			stat.RequiredKm += length / 1000
		}
	}

	report := &ExtractReport{
		Path:    path,
		Ways:    len(extract.Ways),
		Nodes:   len(extract.Nodes),
		Classes: make([]ClassStat, 0, len(byClass)),
	}
	for _, stat := range byClass {
		report.Classes = append(report.Classes, *stat)
	}
	sort.Slice(report.Classes, func(i, j int) bool {
		if report.Classes[i].Length != report.Classes[j].Length {
			return report.Classes[i].Length > report.Classes[j].Length
		}
		return report.Classes[i].Class < report.Classes[j].Class
	})
	return report
}

// wayLength sums haversine distances over the way's node chain. Nodes the
// extract does not know are skipped, same as the graph builder does.
func wayLength(w *osm.WayData, nodes map[int64]domain.Node) float64 {
	var total float64
	var prev domain.Node
	havePrev := false
	for _, id := range w.Nodes {
		node, ok := nodes[id]
		if !ok {
			continue
		}
		if havePrev {
			total += geo.DistanceHaversine(prev.Point(), node.Point())
		}
		prev = node
		havePrev = true
	}
	return total
}

func firstToken(highway string) string {
	if i := strings.IndexByte(highway, ';'); i >= 0 {
		highway = highway[:i]
	}
	return strings.ToLower(strings.TrimSpace(highway))
}

func (r *ExtractReport) print(top int, cfg *config.Config) {
	fmt.Printf("%sOSM extract:%s %s\n", BOLD, NC, r.Path)
	fmt.Printf("  ways: %d   graph nodes: %d\n\n", r.Ways, r.Nodes)

	fmt.Printf("%s%-18s %8s %8s %12s %13s%s\n", BOLD, "CLASS", "WAYS", "ONEWAY", "TOTAL KM", "REQUIRED KM", NC)

	var total ClassStat
	for i, stat := range r.Classes {
		total.Ways += stat.Ways
		total.Oneway += stat.Oneway
		total.Length += stat.Length
		total.RequiredKm += stat.RequiredKm
		if top > 0 && i >= top {
			continue
		}

		color := ""
		switch {
		case stat.RequiredKm > 0:
			color = GREEN
		case !osm.Driveable(map[string]string{"highway": stat.Class}):
			color = GRAY
		default:
			color = CYAN
		}
		fmt.Printf("%s%-18s%s %8d %8d %12.2f %13.2f\n",
			color, stat.Class, NC, stat.Ways, stat.Oneway, stat.Length/1000, stat.RequiredKm)
	}
	if top > 0 && len(r.Classes) > top {
		fmt.Printf("%s... and %d more classes%s\n", GRAY, len(r.Classes)-top, NC)
	}
	fmt.Printf("%s%-18s %8d %8d %12.2f %13.2f%s\n\n",
		BOLD, "TOTAL", total.Ways, total.Oneway, total.Length/1000, total.RequiredKm, NC)

	fmt.Printf("%srequired classes:%s %s\n", GREEN, NC, classList(cfg.OSM.RequiredHighways))
	fmt.Printf("%sexcluded classes:%s %s\n", GRAY, NC, classList(cfg.OSM.ExcludedHighways))
	fmt.Printf("\noverride with %sEVERYSTREET_OSM_REQUIRED_HIGHWAYS%s / %sEVERYSTREET_OSM_EXCLUDED_HIGHWAYS%s\n",
		YELLOW, NC, YELLOW, NC)
}

func classList(classes []string) string {
	sorted := append([]string(nil), classes...)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}

func main() {
	osmPath := flag.String("osm", "data/area.osm", "path to the .osm, .xml or .pbf extract")
	configPath := flag.String("config", "", "explicit config file location")
	top := flag.Int("top", 0, "print only the first N classes by length, 0 = all")
	flag.Parse()

	var loaderOpts []config.LoaderOption
	if *configPath != "" {
		loaderOpts = append(loaderOpts, config.WithConfigPaths(*configPath))
	}
	cfg, err := config.NewLoader(loaderOpts...).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level)
	osm.Configure(cfg.OSM)

	extract, err := osm.ReadExtract(context.Background(), *osmPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read OSM extract: %v\n", err)
		os.Exit(1)
	}

	buildReport(*osmPath, extract).print(*top, cfg)
}
