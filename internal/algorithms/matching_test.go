package algorithms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everystreet/pkg/apperror"
)

func allPairs(nodes []int64) [][2]int64 {
	var pairs [][2]int64
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			pairs = append(pairs, [2]int64{nodes[i], nodes[j]})
		}
	}
	return pairs
}

func TestMinWeightMatching_ExactOptimal(t *testing.T) {
	// Path 1-2-3-4 with unit segments: odd nodes are all four.
	// Optimal pairing is (1,2)+(3,4) with total 2, not (1,4)+(2,3) with 4
	// or (1,3)+(2,4) with 4.
	g := buildGraph(false, [][3]float64{
		{1, 2, 1.0},
		{2, 3, 1.0},
		{3, 4, 1.0},
	})
	odd := []int64{1, 2, 3, 4}

	m, err := BuildCostMatrix(context.Background(), g, allPairs(odd), MatrixOptions{})
	require.NoError(t, err)

	pairs, total, err := MinWeightMatching(odd, m, MatchingOptions{})
	require.NoError(t, err)

	assert.InDelta(t, 2.0, total, 1e-9)
	require.Len(t, pairs, 2)
	assert.Equal(t, [2]int64{1, 2}, pairs[0])
	assert.Equal(t, [2]int64{3, 4}, pairs[1])
}

func TestMinWeightMatching_ExactBeatsNearestNeighbor(t *testing.T) {
	// Costs where grabbing the globally cheapest pair first is suboptimal:
	// c(2,3)=1 tempts the greedy, but then (1,4) costs 10. The optimum is
	// (1,2)+(3,4) = 2+3 = 5 < 11.
	g := buildGraph(false, [][3]float64{
		{1, 2, 2.0},
		{2, 3, 1.0},
		{3, 4, 3.0},
		{1, 4, 10.0},
	})
	odd := []int64{1, 2, 3, 4}

	m, err := BuildCostMatrix(context.Background(), g, allPairs(odd), MatrixOptions{})
	require.NoError(t, err)

	pairs, total, err := MinWeightMatching(odd, m, MatchingOptions{ExactLimit: 8})
	require.NoError(t, err)

	assert.InDelta(t, 5.0, total, 1e-9)
	assert.Equal(t, [2]int64{1, 2}, pairs[0])
	assert.Equal(t, [2]int64{3, 4}, pairs[1])
}

func TestMinWeightMatching_GreedyWithSweeps(t *testing.T) {
	// Same instance, forced through the greedy path: the initial grab of
	// (2,3) must be undone by the swap sweep.
	g := buildGraph(false, [][3]float64{
		{1, 2, 2.0},
		{2, 3, 1.0},
		{3, 4, 3.0},
		{1, 4, 10.0},
	})
	odd := []int64{1, 2, 3, 4}

	m, err := BuildCostMatrix(context.Background(), g, allPairs(odd), MatrixOptions{})
	require.NoError(t, err)

	pairs, total, err := MinWeightMatching(odd, m, MatchingOptions{ExactLimit: 2, ImprovementSweeps: 2})
	require.NoError(t, err)

	assert.InDelta(t, 5.0, total, 1e-9)
	assert.Equal(t, [2]int64{1, 2}, pairs[0])
	assert.Equal(t, [2]int64{3, 4}, pairs[1])
}

func TestMinWeightMatching_OddCardinality(t *testing.T) {
	g := buildGraph(false, [][3]float64{{1, 2, 1.0}, {2, 3, 1.0}})
	m, err := BuildCostMatrix(context.Background(), g, allPairs([]int64{1, 2, 3}), MatrixOptions{})
	require.NoError(t, err)

	_, _, err = MinWeightMatching([]int64{1, 2, 3}, m, MatchingOptions{})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeUnmatchableEndpoint))
}

func TestMinWeightMatching_EmptySet(t *testing.T) {
	pairs, total, err := MinWeightMatching(nil, &CostMatrix{}, MatchingOptions{})
	require.NoError(t, err)
	assert.Nil(t, pairs)
	assert.Zero(t, total)
}

func TestMinWeightMatching_NoPerfectMatching(t *testing.T) {
	// Two islands: 1-2 and 3-4. Cross pairs are unreachable.
	g := buildGraph(false, [][3]float64{
		{1, 2, 1.0},
		{3, 4, 1.0},
	})

	odd := []int64{1, 2, 3, 4}
	m, err := BuildCostMatrix(context.Background(), g, allPairs(odd), MatrixOptions{})
	require.NoError(t, err)

	// Force an impossible instance: only the cross pairs requested.
	crossOnly, err := BuildCostMatrix(context.Background(), g, [][2]int64{{1, 3}, {2, 4}}, MatrixOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, crossOnly.Stats.Unreachable)

	_, _, err = MinWeightMatching(odd, crossOnly, MatchingOptions{})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeNoPath))

	// With the full matrix the halves pair internally.
	pairs, total, err := MinWeightMatching(odd, m, MatchingOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, total, 1e-9)
	assert.Equal(t, [2]int64{1, 2}, pairs[0])
	assert.Equal(t, [2]int64{3, 4}, pairs[1])
}

func TestMinWeightMatching_CanonicalOrder(t *testing.T) {
	g := buildGraph(false, [][3]float64{
		{10, 20, 1.0},
		{30, 40, 1.0},
		{20, 30, 5.0},
	})
	odd := []int64{40, 10, 30, 20} // unsorted input

	m, err := BuildCostMatrix(context.Background(), g, allPairs([]int64{10, 20, 30, 40}), MatrixOptions{})
	require.NoError(t, err)

	pairs, _, err := MinWeightMatching(odd, m, MatchingOptions{})
	require.NoError(t, err)

	// Pairs come back (low, high), list sorted by first member.
	for _, p := range pairs {
		assert.Less(t, p[0], p[1])
	}
	for i := 1; i < len(pairs); i++ {
		assert.Less(t, pairs[i-1][0], pairs[i][0])
	}
}
