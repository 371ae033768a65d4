package algorithms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everystreet/pkg/apperror"
	"everystreet/pkg/domain"
)

func TestFlowNetwork_AddArc(t *testing.T) {
	net := NewFlowNetwork()
	net.AddArc(1, 2, 3, 10)

	forward := net.Arc(1, 2)
	require.NotNil(t, forward)
	assert.InDelta(t, 3.0, forward.Capacity, 1e-9)
	assert.InDelta(t, 10.0, forward.Cost, 1e-9)
	assert.False(t, forward.IsReverse)

	reverse := net.Arc(2, 1)
	require.NotNil(t, reverse)
	assert.Zero(t, reverse.Capacity)
	assert.InDelta(t, -10.0, reverse.Cost, 1e-9)
	assert.True(t, reverse.IsReverse)
}

func TestFlowNetwork_AddArcAccumulates(t *testing.T) {
	net := NewFlowNetwork()
	net.AddArc(1, 2, 3, 10)
	net.AddArc(1, 2, 2, 10)

	forward := net.Arc(1, 2)
	assert.InDelta(t, 5.0, forward.Capacity, 1e-9)
	assert.InDelta(t, 5.0, forward.OriginalCapacity, 1e-9)
	// Still a single arc in the adjacency list.
	assert.Len(t, net.NeighborsList(1), 1)
}

func TestFlowNetwork_Augment(t *testing.T) {
	net := NewFlowNetwork()
	net.AddArc(1, 2, 5, 1)
	net.AddArc(2, 3, 5, 1)

	net.Augment([]int64{1, 2, 3}, 2)

	assert.InDelta(t, 3.0, net.Arc(1, 2).Capacity, 1e-9)
	assert.InDelta(t, 2.0, net.Arc(1, 2).Flow, 1e-9)
	// Reverse twin gained residual capacity.
	assert.InDelta(t, 2.0, net.Arc(2, 1).Capacity, 1e-9)

	// Pushing back over the reverse arc cancels flow.
	net.Augment([]int64{3, 2, 1}, 1)
	assert.InDelta(t, 1.0, net.Arc(1, 2).Flow, 1e-9)
	assert.InDelta(t, 4.0, net.Arc(1, 2).Capacity, 1e-9)
}

func TestFlowNetwork_MinCapacityOnPath(t *testing.T) {
	net := NewFlowNetwork()
	net.AddArc(1, 2, 5, 0)
	net.AddArc(2, 3, 2, 0)

	assert.InDelta(t, 2.0, net.MinCapacityOnPath([]int64{1, 2, 3}), 1e-9)
	assert.Zero(t, net.MinCapacityOnPath([]int64{1, 3}))
	assert.Zero(t, net.MinCapacityOnPath([]int64{1}))
}

// balancingNet builds the bipartite structure imbalance repair uses:
// super source -> demands, demands -> supplies, supplies -> super sink.
func balancingNet(demands, supplies map[int64]float64, costs map[[2]int64]float64) *FlowNetwork {
	net := NewFlowNetwork()
	for node, units := range demands {
		net.AddArc(domain.SuperSourceID, node, units, 0)
	}
	for pair, cost := range costs {
		net.AddArc(pair[0], pair[1], domain.Infinity, cost)
	}
	for node, units := range supplies {
		net.AddArc(node, domain.SuperSinkID, units, 0)
	}
	return net
}

func TestMinCostFlow_PrefersCheapAssignment(t *testing.T) {
	// Demands 10, 11; supplies 20, 21. The cheap assignment is
	// 10->21 (1) + 11->20 (2) = 3 against 10->20 (5) + 11->21 (8) = 13.
	net := balancingNet(
		map[int64]float64{10: 1, 11: 1},
		map[int64]float64{20: 1, 21: 1},
		map[[2]int64]float64{
			{10, 20}: 5,
			{10, 21}: 1,
			{11, 20}: 2,
			{11, 21}: 8,
		},
	)

	result, err := MinCostFlow(context.Background(), net, domain.SuperSourceID, domain.SuperSinkID, 2)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, result.Flow, 1e-9)
	assert.InDelta(t, 3.0, result.Cost, 1e-9)

	require.Len(t, result.Assignments, 2)
	assert.Equal(t, FlowAssignment{From: 10, To: 21, Units: 1}, result.Assignments[0])
	assert.Equal(t, FlowAssignment{From: 11, To: 20, Units: 1}, result.Assignments[1])
}

func TestMinCostFlow_MultiUnitAssignment(t *testing.T) {
	// One demand of two units, one supply of two units.
	net := balancingNet(
		map[int64]float64{10: 2},
		map[int64]float64{20: 2},
		map[[2]int64]float64{{10, 20}: 4},
	)

	result, err := MinCostFlow(context.Background(), net, domain.SuperSourceID, domain.SuperSinkID, 2)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, result.Flow, 1e-9)
	assert.InDelta(t, 8.0, result.Cost, 1e-9)
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, 2, result.Assignments[0].Units)
}

func TestMinCostFlow_Infeasible(t *testing.T) {
	// Demand 10 cannot reach supply 20: no pair arc at all.
	net := balancingNet(
		map[int64]float64{10: 1},
		map[int64]float64{20: 1},
		nil,
	)

	result, err := MinCostFlow(context.Background(), net, domain.SuperSourceID, domain.SuperSinkID, 1)
	require.NoError(t, err)

	// The solver reports the shortfall; deciding fatality is the caller's
	// job.
	assert.Less(t, result.Flow, 1.0)
}

func TestMinCostFlow_ZeroRequired(t *testing.T) {
	net := NewFlowNetwork()
	result, err := MinCostFlow(context.Background(), net, domain.SuperSourceID, domain.SuperSinkID, 0)
	require.NoError(t, err)
	assert.Zero(t, result.Flow)
	assert.Empty(t, result.Assignments)
}

func TestMinCostFlow_Canceled(t *testing.T) {
	net := balancingNet(
		map[int64]float64{10: 1},
		map[int64]float64{20: 1},
		map[[2]int64]float64{{10, 20}: 1},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := MinCostFlow(ctx, net, domain.SuperSourceID, domain.SuperSinkID, 1)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeTimeout))
}

func TestMinCostFlow_TwoAugmentations(t *testing.T) {
	// Capacity forces two separate augmenting paths; the cheaper one must
	// go first and the total must still be optimal.
	net := balancingNet(
		map[int64]float64{10: 2},
		map[int64]float64{20: 1, 21: 1},
		map[[2]int64]float64{
			{10, 20}: 3,
			{10, 21}: 7,
		},
	)

	result, err := MinCostFlow(context.Background(), net, domain.SuperSourceID, domain.SuperSinkID, 2)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, result.Flow, 1e-9)
	assert.InDelta(t, 10.0, result.Cost, 1e-9)
	assert.Equal(t, 2, result.Iterations)
}
