package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everystreet/pkg/domain"
)

func node(id int64, lat, lon float64) domain.Node {
	return domain.Node{ID: id, Lat: lat, Lon: lon}
}

func TestRoutingGraph_ParallelKeys(t *testing.T) {
	g := NewRoutingGraph(false)
	g.AddNode(node(1, 55.70, 37.50))
	g.AddNode(node(2, 55.71, 37.51))

	first := g.AddEdge(1, 2, domain.KindRequired, domain.EdgeAttrs{Length: 100})
	second := g.AddEdge(2, 1, domain.KindRequired, domain.EdgeAttrs{Length: 120})

	if first.Key != 0 || second.Key != 1 {
		t.Errorf("expected keys 0 and 1 for a parallel pair, got %d and %d", first.Key, second.Key)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", g.EdgeCount())
	}

	// Undirected edges resolve from both orientations under the same key.
	e, ok := g.Edge(2, 1, 0)
	require.True(t, ok)
	assert.Equal(t, first, e)

	e, ok = g.Edge(1, 2, 1)
	require.True(t, ok)
	assert.Equal(t, second, e)
}

func TestRoutingGraph_DirectedKeysPerOrientation(t *testing.T) {
	g := NewRoutingGraph(true)
	g.AddNode(node(1, 55.70, 37.50))
	g.AddNode(node(2, 55.71, 37.51))

	forward := g.AddEdge(1, 2, domain.KindRequired, domain.EdgeAttrs{Length: 100})
	backward := g.AddEdge(2, 1, domain.KindRequired, domain.EdgeAttrs{Length: 100})

	// Opposite arcs are independent pairs, both start at key 0.
	assert.Equal(t, 0, forward.Key)
	assert.Equal(t, 0, backward.Key)

	if _, ok := g.Edge(2, 1, 0); !ok {
		t.Error("backward arc not found under its own orientation")
	}
}

func TestRoutingGraph_Degrees(t *testing.T) {
	g := NewRoutingGraph(false)
	for i := int64(1); i <= 3; i++ {
		g.AddNode(node(i, 55.70, 37.50))
	}
	g.AddEdge(1, 2, domain.KindRequired, domain.EdgeAttrs{Length: 1})
	g.AddEdge(2, 3, domain.KindRequired, domain.EdgeAttrs{Length: 1})
	g.AddEdge(3, 3, domain.KindRequired, domain.EdgeAttrs{Length: 1})

	assert.Equal(t, 1, g.Degree(1))
	assert.Equal(t, 2, g.Degree(2))
	// A loop adds two ends to its endpoint.
	assert.Equal(t, 3, g.Degree(3))
}

func TestRoutingGraph_DirectedDegrees(t *testing.T) {
	g := NewRoutingGraph(true)
	for i := int64(1); i <= 3; i++ {
		g.AddNode(node(i, 55.70, 37.50))
	}
	g.AddEdge(1, 2, domain.KindRequired, domain.EdgeAttrs{Length: 1})
	g.AddEdge(1, 3, domain.KindRequired, domain.EdgeAttrs{Length: 1})
	g.AddEdge(2, 1, domain.KindRequired, domain.EdgeAttrs{Length: 1})

	assert.Equal(t, 2, g.OutDegree(1))
	assert.Equal(t, 1, g.InDegree(1))
	assert.Equal(t, 1, g.OutDegree(2))
	assert.Equal(t, 1, g.InDegree(3))
	assert.Equal(t, 0, g.OutDegree(3))
}

func TestRoutingGraph_InsertionOrder(t *testing.T) {
	g := NewRoutingGraph(true)
	for i := int64(1); i <= 4; i++ {
		g.AddNode(node(i, 55.70, 37.50))
	}
	g.AddEdge(1, 2, domain.KindRequired, domain.EdgeAttrs{Length: 1})
	g.AddEdge(1, 3, domain.KindRequired, domain.EdgeAttrs{Length: 2})
	g.AddEdge(1, 4, domain.KindRequired, domain.EdgeAttrs{Length: 3})

	out := g.OutEdges(1)
	require.Len(t, out, 3)
	for i, want := range []int64{2, 3, 4} {
		if out[i].To != want {
			t.Errorf("out edge %d: expected head %d, got %d", i, want, out[i].To)
		}
	}

	all := g.AllEdges()
	for i, e := range all {
		if e.ID != i {
			t.Errorf("edge %d carries ID %d", i, e.ID)
		}
	}
}

func TestRoutingGraph_IncidentEdgesDirected(t *testing.T) {
	g := NewRoutingGraph(true)
	for i := int64(1); i <= 3; i++ {
		g.AddNode(node(i, 55.70, 37.50))
	}
	g.AddEdge(2, 1, domain.KindRequired, domain.EdgeAttrs{Length: 1})
	g.AddEdge(1, 3, domain.KindRequired, domain.EdgeAttrs{Length: 1})

	incident := g.IncidentEdges(1)
	require.Len(t, incident, 2)
	// Outgoing arcs come first, then incoming.
	assert.Equal(t, int64(3), incident[0].To)
	assert.Equal(t, int64(2), incident[1].From)
}

func TestRoutingGraph_GetSortedNodes(t *testing.T) {
	g := NewRoutingGraph(false)
	g.AddNode(node(30, 0, 0))
	g.AddNode(node(10, 0, 0))
	g.AddNode(node(20, 0, 0))

	nodes := g.GetSortedNodes()
	assert.Equal(t, []int64{10, 20, 30}, nodes)

	// Cache is rebuilt after mutation.
	g.AddNode(node(5, 0, 0))
	nodes = g.GetSortedNodes()
	assert.Equal(t, []int64{5, 10, 20, 30}, nodes)
}

func TestRoutingGraph_Clone(t *testing.T) {
	g := NewRoutingGraph(false)
	g.AddNode(node(1, 55.70, 37.50))
	g.AddNode(node(2, 55.71, 37.51))
	g.AddEdge(1, 2, domain.KindRequired, domain.EdgeAttrs{Length: 100, Name: "Садовая"})
	g.AddEdge(1, 2, domain.KindRequired, domain.EdgeAttrs{Length: 130})

	clone := g.Clone()

	require.Equal(t, g.EdgeCount(), clone.EdgeCount())
	require.Equal(t, g.NodeCount(), clone.NodeCount())

	orig, _ := g.Edge(1, 2, 1)
	copied, ok := clone.Edge(1, 2, 1)
	require.True(t, ok, "clone must preserve parallel keys")
	assert.Equal(t, orig.ID, copied.ID)
	assert.Equal(t, orig.Attrs.Length, copied.Attrs.Length)

	// Extending the clone must not leak into the original.
	clone.AddEdge(1, 2, domain.KindDuplicate, domain.EdgeAttrs{Length: 100})
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, 3, clone.EdgeCount())
	assert.Equal(t, 2, g.Degree(1))
	assert.Equal(t, 3, clone.Degree(1))
}

func TestRoutingGraph_FilterEdges(t *testing.T) {
	g := NewRoutingGraph(false)
	for i := int64(1); i <= 4; i++ {
		g.AddNode(node(i, 55.70, 37.50))
	}
	g.AddEdge(1, 2, domain.KindRequired, domain.EdgeAttrs{Length: 1, Highway: "residential"})
	g.AddEdge(3, 4, domain.KindRequired, domain.EdgeAttrs{Length: 1, Highway: "footway"})

	filtered := g.FilterEdges(func(e *Edge) bool {
		return e.Attrs.Highway == "residential"
	})

	assert.Equal(t, 1, filtered.EdgeCount())
	// Nodes 3 and 4 lost their only edge and are dropped with it.
	assert.Equal(t, 2, filtered.NodeCount())
	assert.False(t, filtered.HasNode(3))
	assert.False(t, filtered.HasNode(4))
}

func TestRoutingGraph_TotalLength(t *testing.T) {
	g := NewRoutingGraph(true)
	g.AddNode(node(1, 0, 0))
	g.AddNode(node(2, 0, 0))
	g.AddEdge(1, 2, domain.KindRequired, domain.EdgeAttrs{Length: 120.5})
	g.AddEdge(2, 1, domain.KindRequired, domain.EdgeAttrs{Length: 79.5})

	assert.InDelta(t, 200.0, g.TotalLength(), 1e-9)
}
