package osm

import (
	"strings"

	"everystreet/pkg/config"
)

// excludedHighways are classes the service vehicle cannot drive.
var excludedHighways = map[string]struct{}{
	"footway":    {},
	"pedestrian": {},
	"steps":      {},
	"path":       {},
	"corridor":   {},
	"cycleway":   {},
}

// requiredHighways are the street classes the route must service.
var requiredHighways = map[string]struct{}{
	"residential":   {},
	"living_street": {},
	"tertiary":      {},
	"unclassified":  {},
}

// Configure replaces the highway class sets from configuration. An empty
// list keeps the built-in set, so a partial config stays usable.
func Configure(cfg config.OSMConfig) {
	if len(cfg.RequiredHighways) > 0 {
		requiredHighways = classSet(cfg.RequiredHighways)
	}
	if len(cfg.ExcludedHighways) > 0 {
		excludedHighways = classSet(cfg.ExcludedHighways)
	}
}

func classSet(classes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		if c = normalize(c); c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}

// Driveable reports whether a way with these tags is usable by the service
// vehicle.
func Driveable(tags map[string]string) bool {
	if hasExcludedToken(tags["highway"]) {
		return false
	}
	if normalize(tags["service"]) == "parking_aisle" {
		return false
	}
	for _, key := range [...]string{"motor_vehicle", "vehicle", "access"} {
		switch normalize(tags[key]) {
		case "no", "private":
			return false
		}
	}
	return true
}

// Required reports whether a way with these tags must be serviced. Only
// driveable ways qualify.
func Required(tags map[string]string) bool {
	if !Driveable(tags) {
		return false
	}
	_, ok := requiredHighways[firstHighwayToken(tags["highway"])]
	return ok
}

// hasExcludedToken checks every ";"-separated token of the highway value;
// combined values like "cycleway;footway" occur in the wild.
func hasExcludedToken(highway string) bool {
	for _, token := range strings.Split(highway, ";") {
		if _, bad := excludedHighways[strings.TrimSpace(token)]; bad {
			return true
		}
	}
	return false
}

// firstHighwayToken returns the leading class of a combined highway value.
func firstHighwayToken(highway string) string {
	if i := strings.IndexByte(highway, ';'); i >= 0 {
		highway = highway[:i]
	}
	return strings.TrimSpace(highway)
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
