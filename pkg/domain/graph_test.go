package domain

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

func TestNodePoint(t *testing.T) {
	n := Node{ID: 7, Lat: 55.75, Lon: 37.61}
	p := n.Point()

	// orb хранит точки как (lon, lat)
	if p[0] != 37.61 || p[1] != 55.75 {
		t.Errorf("Point() = %v, want (37.61, 55.75)", p)
	}
}

func TestEdgeKeyString(t *testing.T) {
	tests := []struct {
		key      EdgeKey
		expected string
	}{
		{EdgeKey{From: 1, To: 2, Key: 0}, "1->2#0"},
		{EdgeKey{From: 2, To: 1, Key: 3}, "2->1#3"},
		{EdgeKey{From: -1, To: 5, Key: 0}, "-1->5#0"},
	}

	for _, tt := range tests {
		if got := tt.key.String(); got != tt.expected {
			t.Errorf("EdgeKey.String() = %q, want %q", got, tt.expected)
		}
	}
}

func TestEdgeAttrsClone(t *testing.T) {
	attrs := EdgeAttrs{
		Length:   120.5,
		Geometry: orb.LineString{{37.0, 55.0}, {37.1, 55.1}},
		Oneway:   true,
		Highway:  "residential",
		Name:     "Main St",
		WayID:    1001,
	}

	clone := attrs.Clone()
	clone.Geometry[0] = orb.Point{0, 0}

	if attrs.Geometry[0] == clone.Geometry[0] {
		t.Error("Clone must copy geometry, not alias it")
	}
	if clone.Length != attrs.Length || clone.Name != attrs.Name || clone.WayID != attrs.WayID {
		t.Error("Clone must preserve scalar attributes")
	}
}

func TestEdgeKindValues(t *testing.T) {
	kinds := []EdgeKind{KindRequired, KindConnector, KindDuplicate}
	seen := make(map[EdgeKind]bool)
	for _, k := range kinds {
		if k == "" {
			t.Error("edge kind must not be empty")
		}
		if seen[k] {
			t.Errorf("duplicate edge kind %q", k)
		}
		seen[k] = true
	}
}

func TestSnapRecordString(t *testing.T) {
	rec := SnapRecord{
		RequestedLat: 55.75,
		RequestedLon: 37.61,
		NodeID:       42,
		SnappedLat:   55.7501,
		SnappedLon:   37.6102,
		Distance:     17.3,
		Strategy:     SnapLargestComponent,
	}

	s := rec.String()
	for _, want := range []string{"node 42", "17.3 m", string(SnapLargestComponent)} {
		if !strings.Contains(s, want) {
			t.Errorf("SnapRecord.String() = %q, missing %q", s, want)
		}
	}
}
