package algorithms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everystreet/pkg/apperror"
	"everystreet/pkg/cache"
)

func TestBuildCostMatrix_AllPairs(t *testing.T) {
	g := buildGraph(false, [][3]float64{
		{1, 2, 1.0},
		{2, 3, 2.0},
		{3, 4, 3.0},
	})

	pairs := [][2]int64{
		{1, 3},
		{1, 4},
		{2, 4},
		{1, 3}, // duplicate, must not be computed twice
		{2, 2}, // self pair, trivial
	}

	m, err := BuildCostMatrix(context.Background(), g, pairs, MatrixOptions{Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 4, m.Stats.Pairs)
	assert.Equal(t, 3, m.Stats.Computed)

	cost, ok := m.Cost(1, 3)
	require.True(t, ok)
	assert.InDelta(t, 3.0, cost, 1e-9)

	cost, ok = m.Cost(1, 4)
	require.True(t, ok)
	assert.InDelta(t, 6.0, cost, 1e-9)

	path, ok := m.Path(2, 4)
	require.True(t, ok)
	assert.Equal(t, []int64{2, 3, 4}, path.Nodes)

	self, ok := m.Path(2, 2)
	require.True(t, ok)
	assert.Equal(t, []int64{2}, self.Nodes)
	assert.Zero(t, self.Cost)
}

func TestBuildCostMatrix_UnreachablePair(t *testing.T) {
	g := buildGraph(false, [][3]float64{{1, 2, 1.0}})
	g.AddNode(nodeAt(99))

	m, err := BuildCostMatrix(context.Background(), g, [][2]int64{{1, 99}}, MatrixOptions{})
	require.NoError(t, err, "missing connectivity is a graph fact, not a build failure")

	assert.Equal(t, 1, m.Stats.Unreachable)
	_, ok := m.Path(1, 99)
	assert.False(t, ok)
}

func TestBuildCostMatrix_DirectedOrientation(t *testing.T) {
	g := buildGraph(true, [][3]float64{
		{1, 2, 5.0},
		{2, 1, 7.0},
	})

	m, err := BuildCostMatrix(context.Background(), g, [][2]int64{{1, 2}, {2, 1}}, MatrixOptions{})
	require.NoError(t, err)

	forward, _ := m.Cost(1, 2)
	backward, _ := m.Cost(2, 1)
	assert.InDelta(t, 5.0, forward, 1e-9)
	assert.InDelta(t, 7.0, backward, 1e-9)
}

func TestBuildCostMatrix_UsesCache(t *testing.T) {
	g := buildGraph(false, [][3]float64{
		{1, 2, 1.0},
		{2, 3, 2.0},
	})

	backend := cache.NewMemoryCache(cache.DefaultOptions())
	defer backend.Close()
	pc := cache.NewPathCache(backend, "matrix-test", time.Minute)

	pairs := [][2]int64{{1, 2}, {1, 3}, {2, 3}}

	first, err := BuildCostMatrix(context.Background(), g, pairs, MatrixOptions{Cache: pc})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Stats.Computed)
	assert.Equal(t, 0, first.Stats.CacheHits)

	second, err := BuildCostMatrix(context.Background(), g, pairs, MatrixOptions{Cache: pc})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Stats.Computed)
	assert.Equal(t, 3, second.Stats.CacheHits)

	// Both builds resolve identical paths.
	for _, p := range pairs {
		a, okA := first.Path(p[0], p[1])
		b, okB := second.Path(p[0], p[1])
		require.True(t, okA)
		require.True(t, okB)
		assert.Equal(t, a.Nodes, b.Nodes)
		assert.InDelta(t, a.Cost, b.Cost, 1e-9)
	}
}

func TestBuildCostMatrix_Canceled(t *testing.T) {
	g := buildGraph(false, [][3]float64{{1, 2, 1.0}, {2, 3, 1.0}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildCostMatrix(ctx, g, [][2]int64{{1, 3}}, MatrixOptions{})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeTimeout))
}

func TestBuildCostMatrix_EmptyPairs(t *testing.T) {
	g := buildGraph(false, [][3]float64{{1, 2, 1.0}})

	m, err := BuildCostMatrix(context.Background(), g, nil, MatrixOptions{})
	require.NoError(t, err)
	assert.Zero(t, m.Len())
}
