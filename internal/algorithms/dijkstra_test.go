package algorithms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everystreet/internal/graph"
	"everystreet/pkg/apperror"
	"everystreet/pkg/domain"
)

func nodeAt(id int64) domain.Node {
	return domain.Node{ID: id, Lat: 55.7, Lon: 37.5}
}

// buildGraph assembles a test graph from (from, to, length) triples.
func buildGraph(directed bool, edges [][3]float64) *graph.RoutingGraph {
	g := graph.NewRoutingGraph(directed)
	for _, e := range edges {
		from, to := int64(e[0]), int64(e[1])
		if !g.HasNode(from) {
			g.AddNode(domain.Node{ID: from, Lat: 55.7, Lon: 37.5})
		}
		if !g.HasNode(to) {
			g.AddNode(domain.Node{ID: to, Lat: 55.7, Lon: 37.5})
		}
		g.AddEdge(from, to, domain.KindRequired, domain.EdgeAttrs{Length: e[2]})
	}
	return g
}

func TestDijkstra_SimpleGraph(t *testing.T) {
	g := buildGraph(false, [][3]float64{
		{1, 2, 1.0},
		{2, 3, 2.0},
		{1, 3, 5.0},
	})

	result := Dijkstra(g, 1)

	assert.InDelta(t, 3.0, result.Distances[3], 1e-9)
	if result.Parent[3] != 2 {
		t.Errorf("expected parent[3] = 2, got %d", result.Parent[3])
	}
}

func TestDijkstra_DirectedRespectsOrientation(t *testing.T) {
	g := buildGraph(true, [][3]float64{
		{1, 2, 1.0},
		{2, 3, 1.0},
	})

	forward := Dijkstra(g, 1)
	assert.InDelta(t, 2.0, forward.Distances[3], 1e-9)

	// Arcs cannot be walked backwards.
	backward := Dijkstra(g, 3)
	_, reached := backward.Distances[1]
	assert.False(t, reached)
}

func TestDijkstra_Unreachable(t *testing.T) {
	g := buildGraph(false, [][3]float64{{1, 2, 1.0}})
	g.AddNode(domain.Node{ID: 99, Lat: 55.7, Lon: 37.5})

	result := Dijkstra(g, 1)

	if _, reached := result.Distances[99]; reached {
		t.Error("isolated node must not appear in the distance map")
	}
}

func TestDijkstra_TieBreakPrefersLowerNode(t *testing.T) {
	// Two routes 1->4 of equal cost through 2 and through 3.
	g := buildGraph(false, [][3]float64{
		{1, 2, 1.0},
		{1, 3, 1.0},
		{2, 4, 1.0},
		{3, 4, 1.0},
	})

	result := Dijkstra(g, 1)

	assert.InDelta(t, 2.0, result.Distances[4], 1e-9)
	// Node 2 settles before node 3 at equal distance, so its relaxation
	// of node 4 sticks.
	assert.Equal(t, int64(2), result.Parent[4])
}

func TestDijkstraWithContext_EarlyExit(t *testing.T) {
	g := buildGraph(false, [][3]float64{
		{1, 2, 1.0},
		{2, 3, 1.0},
		{3, 4, 10.0},
	})

	result := DijkstraWithContext(context.Background(), g, 1, 2)

	assert.InDelta(t, 1.0, result.Distances[2], 1e-9)
	// The far end of the graph is never settled.
	if _, settled := result.Distances[4]; settled {
		t.Error("early exit must not settle nodes beyond the target")
	}
}

func TestDijkstraWithContext_Canceled(t *testing.T) {
	g := buildGraph(false, [][3]float64{{1, 2, 1.0}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := DijkstraWithContext(ctx, g, 1, -1)
	assert.True(t, result.Canceled)
}

func TestShortestPath(t *testing.T) {
	g := buildGraph(false, [][3]float64{
		{1, 2, 3.0},
		{2, 3, 4.0},
		{1, 3, 10.0},
	})

	path, err := ShortestPath(context.Background(), g, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, path.Nodes)
	assert.InDelta(t, 7.0, path.Cost, 1e-9)
}

func TestShortestPath_SameNode(t *testing.T) {
	g := buildGraph(false, [][3]float64{{1, 2, 3.0}})

	path, err := ShortestPath(context.Background(), g, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, path.Nodes)
	assert.Zero(t, path.Cost)
}

func TestShortestPath_UnknownNode(t *testing.T) {
	g := buildGraph(false, [][3]float64{{1, 2, 3.0}})

	_, err := ShortestPath(context.Background(), g, 1, 777)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeUnknownNode))
}

func TestShortestPath_NoPath(t *testing.T) {
	g := buildGraph(true, [][3]float64{{1, 2, 3.0}})

	_, err := ShortestPath(context.Background(), g, 2, 1)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeNoPath))
}

func BenchmarkDijkstra_Grid(b *testing.B) {
	// 30x30 grid, unit lengths.
	const side = 30
	g := graph.NewRoutingGraph(false)
	id := func(r, c int) int64 { return int64(r*side + c + 1) }
	for r := 0; r < side; r++ {
		for c := 0; c < side; c++ {
			g.AddNode(domain.Node{ID: id(r, c), Lat: 55.7, Lon: 37.5})
		}
	}
	for r := 0; r < side; r++ {
		for c := 0; c < side; c++ {
			if c+1 < side {
				g.AddEdge(id(r, c), id(r, c+1), domain.KindRequired, domain.EdgeAttrs{Length: 1})
			}
			if r+1 < side {
				g.AddEdge(id(r, c), id(r+1, c), domain.KindRequired, domain.EdgeAttrs{Length: 1})
			}
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Dijkstra(g, 1)
	}
}
