package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everystreet/internal/graph"
	"everystreet/pkg/apperror"
	"everystreet/pkg/domain"
)

// assertTour checks that steps form a single chain from start to end
// covering every edge of g exactly once.
func assertTour(t *testing.T, g *graph.RoutingGraph, steps []domain.RouteStep, start, end int64) {
	t.Helper()

	require.Len(t, steps, g.EdgeCount())
	assert.Equal(t, start, steps[0].From)
	assert.Equal(t, end, steps[len(steps)-1].To)

	seen := make(map[domain.EdgeKey]bool, len(steps))
	for i, step := range steps {
		if i > 0 {
			assert.Equal(t, steps[i-1].To, step.From, "step %d breaks the chain", i)
		}
		from, to := step.From, step.To
		if !g.Directed() && from > to {
			from, to = to, from
		}
		key := domain.EdgeKey{From: from, To: to, Key: step.Key}
		assert.False(t, seen[key], "edge %s traversed twice", key)
		seen[key] = true
	}
}

func TestOddVertices(t *testing.T) {
	// Square with one diagonal: the diagonal endpoints become odd.
	g := buildGraph(false, [][3]float64{
		{1, 2, 1}, {2, 3, 1}, {3, 4, 1}, {4, 1, 1}, {1, 3, 1},
	})

	assert.Equal(t, []int64{1, 3}, OddVertices(g))
}

func TestOddVertices_AllEven(t *testing.T) {
	g := buildGraph(false, [][3]float64{{1, 2, 1}, {2, 3, 1}, {3, 1, 1}})
	assert.Empty(t, OddVertices(g))
}

func TestDegreeImbalances(t *testing.T) {
	g := buildGraph(true, [][3]float64{{1, 2, 1}, {1, 3, 1}, {2, 3, 1}})

	deltas := DegreeImbalances(g)
	assert.Equal(t, map[int64]int{1: 2, 3: -2}, deltas)
	_, present := deltas[2]
	assert.False(t, present, "balanced nodes must be omitted")
}

func TestEulerEngine_UndirectedCircuit(t *testing.T) {
	g := buildGraph(false, [][3]float64{{1, 2, 1}, {2, 3, 1}, {3, 1, 1}})

	engine := NewEulerEngine(g, 1, 1)
	assert.True(t, engine.Closed())
	assert.Equal(t, StateUnverified, engine.State())

	require.NoError(t, engine.Verify())
	assert.Equal(t, StateFeasible, engine.State())

	steps, err := engine.Traverse()
	require.NoError(t, err)
	assert.Equal(t, StateTraversed, engine.State())
	assertTour(t, g, steps, 1, 1)
}

func TestEulerEngine_UndirectedOpenPath(t *testing.T) {
	g := buildGraph(false, [][3]float64{{1, 2, 1}, {2, 3, 1}})

	engine := NewEulerEngine(g, 1, 3)
	assert.False(t, engine.Closed())

	steps, err := engine.Traverse()
	require.NoError(t, err)
	assertTour(t, g, steps, 1, 3)
}

func TestEulerEngine_FigureEight(t *testing.T) {
	// Two triangles sharing node 1 force a sub-tour splice.
	g := buildGraph(false, [][3]float64{
		{1, 2, 1}, {2, 3, 1}, {3, 1, 1},
		{1, 4, 1}, {4, 5, 1}, {5, 1, 1},
	})

	engine := NewEulerEngine(g, 1, 1)
	steps, err := engine.Traverse()
	require.NoError(t, err)
	assertTour(t, g, steps, 1, 1)
}

func TestEulerEngine_ParallelEdges(t *testing.T) {
	// Two parallel edges between 1 and 2 make a closed tour of length two.
	g := buildGraph(false, [][3]float64{{1, 2, 1}, {1, 2, 2}})

	engine := NewEulerEngine(g, 1, 1)
	steps, err := engine.Traverse()
	require.NoError(t, err)
	assertTour(t, g, steps, 1, 1)
}

func TestEulerEngine_DirectedCircuit(t *testing.T) {
	g := buildGraph(true, [][3]float64{{1, 2, 1}, {2, 3, 1}, {3, 1, 1}})

	engine := NewEulerEngine(g, 1, 1)
	steps, err := engine.Traverse()
	require.NoError(t, err)
	assertTour(t, g, steps, 1, 1)
}

func TestEulerEngine_DirectedOpenChain(t *testing.T) {
	g := buildGraph(true, [][3]float64{{1, 2, 1}, {2, 3, 1}})

	engine := NewEulerEngine(g, 1, 3)
	require.NoError(t, engine.Verify())

	steps, err := engine.Traverse()
	require.NoError(t, err)
	assertTour(t, g, steps, 1, 3)
}

func TestEulerEngine_OddDegreesInfeasible(t *testing.T) {
	// A dangling edge leaves nodes 1 and 4 odd on a closed route.
	g := buildGraph(false, [][3]float64{
		{1, 2, 1}, {2, 3, 1}, {3, 1, 1}, {1, 4, 1},
	})

	engine := NewEulerEngine(g, 1, 1)
	err := engine.Verify()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeEulerianPrecheck))
	assert.Equal(t, StateInfeasible, engine.State())

	// Repeated verification reports the same failure.
	again := engine.Verify()
	assert.Equal(t, err, again)

	_, err = engine.Traverse()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeEulerianPrecheck))
}

func TestEulerEngine_OpenPathWrongEndpoints(t *testing.T) {
	// Odd vertices are 1 and 3, but the route is declared 1 -> 2.
	g := buildGraph(false, [][3]float64{{1, 2, 1}, {2, 3, 1}})

	engine := NewEulerEngine(g, 1, 2)
	err := engine.Verify()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeEulerianPrecheck))
}

func TestEulerEngine_DirectedWrongImbalance(t *testing.T) {
	// Closed route over a one-way chain cannot exist.
	g := buildGraph(true, [][3]float64{{1, 2, 1}, {2, 3, 1}})

	engine := NewEulerEngine(g, 1, 1)
	err := engine.Verify()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeEulerianPrecheck))
}

func TestEulerEngine_OneShot(t *testing.T) {
	g := buildGraph(false, [][3]float64{{1, 2, 1}, {2, 3, 1}, {3, 1, 1}})

	engine := NewEulerEngine(g, 1, 1)
	_, err := engine.Traverse()
	require.NoError(t, err)

	_, err = engine.Traverse()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeTraversalConsumed))
	assert.Equal(t, StateTraversed, engine.State())
}

func TestEulerEngine_DisconnectedEvenDegrees(t *testing.T) {
	// Two disjoint triangles pass the degree precheck but cannot be
	// traversed as one circuit.
	g := buildGraph(false, [][3]float64{
		{1, 2, 1}, {2, 3, 1}, {3, 1, 1},
		{4, 5, 1}, {5, 6, 1}, {6, 4, 1},
	})

	engine := NewEulerEngine(g, 1, 1)
	require.NoError(t, engine.Verify())

	_, err := engine.Traverse()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeEulerianPrecheck))
	assert.Contains(t, err.Error(), "covered 3 of 6")
	assert.Equal(t, StateInfeasible, engine.State())
}

func TestEulerEngine_EmptyWork(t *testing.T) {
	g := graph.NewRoutingGraph(false)
	g.AddNode(nodeAt(1))

	engine := NewEulerEngine(g, 1, 1)
	err := engine.Verify()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeEulerianPrecheck))
}

func TestTraversalState_String(t *testing.T) {
	assert.Equal(t, "unverified", StateUnverified.String())
	assert.Equal(t, "feasible", StateFeasible.String())
	assert.Equal(t, "traversed", StateTraversed.String())
	assert.Equal(t, "infeasible", StateInfeasible.String())
}
