package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everystreet/pkg/domain"
)

func addNodes(g *RoutingGraph, ids ...int64) {
	for _, id := range ids {
		g.AddNode(domain.Node{ID: id, Lat: 55.7, Lon: 37.5})
	}
}

func edge(g *RoutingGraph, from, to int64) {
	g.AddEdge(from, to, domain.KindRequired, domain.EdgeAttrs{Length: 1})
}

func TestConnectedComponents_TwoIslands(t *testing.T) {
	g := NewRoutingGraph(false)
	addNodes(g, 1, 2, 3, 10, 11, 99)
	edge(g, 1, 2)
	edge(g, 2, 3)
	edge(g, 10, 11)

	components := ConnectedComponents(g)

	require.Len(t, components, 3)
	assert.Equal(t, []int64{1, 2, 3}, components[0])
	assert.Equal(t, []int64{10, 11}, components[1])
	// An isolated node is its own component.
	assert.Equal(t, []int64{99}, components[2])
}

func TestConnectedComponents_DirectedIsWeak(t *testing.T) {
	g := NewRoutingGraph(true)
	addNodes(g, 1, 2, 3)
	edge(g, 1, 2)
	edge(g, 3, 2)

	// 3->2 is not traversable from 2, but weak connectivity ignores that.
	components := ConnectedComponents(g)
	require.Len(t, components, 1)
	assert.Equal(t, []int64{1, 2, 3}, components[0])
}

func TestLargestComponent(t *testing.T) {
	g := NewRoutingGraph(false)
	addNodes(g, 1, 2, 10, 11, 12)
	edge(g, 1, 2)
	edge(g, 10, 11)
	edge(g, 11, 12)

	largest := LargestComponent(ConnectedComponents(g))
	assert.Equal(t, []int64{10, 11, 12}, largest)
}

func TestStronglyConnectedComponents_TwoCycles(t *testing.T) {
	g := NewRoutingGraph(true)
	addNodes(g, 1, 2, 3, 4, 5)
	edge(g, 1, 2)
	edge(g, 2, 3)
	edge(g, 3, 1)
	edge(g, 3, 4) // bridge, not part of any cycle
	edge(g, 4, 5)
	edge(g, 5, 4)

	p := StronglyConnectedComponents(g)

	require.Len(t, p.Components, 2)
	assert.Equal(t, []int64{1, 2, 3}, p.Components[0])
	assert.Equal(t, []int64{4, 5}, p.Components[1])

	assert.True(t, p.SameComponent(1, 3))
	assert.False(t, p.SameComponent(3, 4))
	assert.Equal(t, 3, p.Size(0))
}

func TestStronglyConnectedComponents_OnewayChain(t *testing.T) {
	g := NewRoutingGraph(true)
	addNodes(g, 1, 2, 3)
	edge(g, 1, 2)
	edge(g, 2, 3)

	// Without return arcs every node is its own SCC.
	p := StronglyConnectedComponents(g)
	require.Len(t, p.Components, 3)
	for i, want := range []int64{1, 2, 3} {
		assert.Equal(t, []int64{want}, p.Components[i])
	}
}

func TestStronglyConnectedComponents_UndirectedMatchesCC(t *testing.T) {
	g := NewRoutingGraph(false)
	addNodes(g, 1, 2, 3, 7, 8)
	edge(g, 1, 2)
	edge(g, 2, 3)
	edge(g, 7, 8)

	p := StronglyConnectedComponents(g)
	cc := ConnectedComponents(g)

	require.Equal(t, len(cc), len(p.Components))
	for i := range cc {
		assert.Equal(t, cc[i], p.Components[i])
	}
}

func TestDominantSCC(t *testing.T) {
	g := NewRoutingGraph(true)
	addNodes(g, 1, 2, 3, 4, 5, 6)
	// Small cycle {1,2}, big cycle {3,4,5}, isolated 6.
	edge(g, 1, 2)
	edge(g, 2, 1)
	edge(g, 3, 4)
	edge(g, 4, 5)
	edge(g, 5, 3)

	p := StronglyConnectedComponents(g)
	idx := DominantSCC(p)

	require.NotEqual(t, -1, idx)
	assert.Equal(t, []int64{3, 4, 5}, p.Components[idx])
}

func TestDominantSCC_Empty(t *testing.T) {
	p := &SCCPartition{}
	assert.Equal(t, -1, DominantSCC(p))
}

func TestQueue(t *testing.T) {
	q := NewQueue(4)
	q.Push(1)
	q.Push(2)
	q.Push(3)

	if q.Len() != 3 {
		t.Fatalf("expected length 3, got %d", q.Len())
	}
	if v := q.Pop(); v != 1 {
		t.Errorf("expected FIFO pop 1, got %d", v)
	}
	if v := q.Pop(); v != 2 {
		t.Errorf("expected FIFO pop 2, got %d", v)
	}

	q.Reset()
	if !q.Empty() {
		t.Error("queue must be empty after Reset")
	}
}
