package algorithms

import (
	"sort"

	"everystreet/pkg/domain"
)

// =============================================================================
// Flow Network
// =============================================================================
//
// FlowNetwork is the residual network used by degree balancing in directed
// mode. Real nodes are the imbalanced vertices of the work multigraph;
// virtual nodes (negative ids) are the super source and super sink that tie
// supplies and demands together. Arc costs are shortest directed path
// lengths, so every original cost is non-negative.
//
// The network is deliberately simple (no parallel arcs): balancing connects
// disjoint demand and supply sets through single arcs per pair.
// =============================================================================

// FlowArc is one residual arc. Capacity is the remaining residual capacity;
// a reverse arc starts at zero capacity with the negated cost and gains
// capacity as flow is pushed over its forward twin.
type FlowArc struct {
	From int64
	To   int64

	Capacity         float64
	OriginalCapacity float64
	Cost             float64
	Flow             float64

	IsReverse bool
}

// FlowNetwork stores arcs in both a nested map for O(1) lookup and a per-tail
// list in insertion order for deterministic expansion.
//
// Not safe for concurrent use; balancing builds and consumes a network inside
// a single pipeline stage.
type FlowNetwork struct {
	Nodes map[int64]bool

	// Arcs resolves Arcs[from][to]. At most one arc per ordered pair.
	Arcs map[int64]map[int64]*FlowArc

	// ArcsList preserves insertion order per tail node.
	ArcsList map[int64][]*FlowArc

	sortedNodes []int64
	nodesDirty  bool
}

// NewFlowNetwork creates an empty network.
func NewFlowNetwork() *FlowNetwork {
	return &FlowNetwork{
		Nodes:    make(map[int64]bool),
		Arcs:     make(map[int64]map[int64]*FlowArc),
		ArcsList: make(map[int64][]*FlowArc),
	}
}

// AddNode registers a node id.
func (n *FlowNetwork) AddNode(id int64) {
	if !n.Nodes[id] {
		n.Nodes[id] = true
		n.nodesDirty = true
	}
}

// AddArc inserts a forward arc with the given capacity and cost plus its
// zero-capacity reverse twin. Adding the same ordered pair again accumulates
// capacity on the existing arc.
func (n *FlowNetwork) AddArc(from, to int64, capacity, cost float64) {
	n.AddNode(from)
	n.AddNode(to)

	if existing := n.arc(from, to); existing != nil && !existing.IsReverse {
		existing.Capacity += capacity
		existing.OriginalCapacity += capacity
		return
	}

	n.insertArc(&FlowArc{
		From:             from,
		To:               to,
		Capacity:         capacity,
		OriginalCapacity: capacity,
		Cost:             cost,
	})
	n.insertArc(&FlowArc{
		From:      to,
		To:        from,
		Cost:      -cost,
		IsReverse: true,
	})
}

func (n *FlowNetwork) insertArc(a *FlowArc) {
	if n.Arcs[a.From] == nil {
		n.Arcs[a.From] = make(map[int64]*FlowArc)
	}
	n.Arcs[a.From][a.To] = a
	n.ArcsList[a.From] = append(n.ArcsList[a.From], a)
}

func (n *FlowNetwork) arc(from, to int64) *FlowArc {
	if m := n.Arcs[from]; m != nil {
		return m[to]
	}
	return nil
}

// Arc returns the residual arc from → to, or nil.
func (n *FlowNetwork) Arc(from, to int64) *FlowArc {
	return n.arc(from, to)
}

// NeighborsList returns the arcs leaving node in insertion order. Callers
// must not modify the returned slice.
func (n *FlowNetwork) NeighborsList(node int64) []*FlowArc {
	return n.ArcsList[node]
}

// GetSortedNodes returns all node ids ascending.
func (n *FlowNetwork) GetSortedNodes() []int64 {
	if !n.nodesDirty && n.sortedNodes != nil {
		return n.sortedNodes
	}
	nodes := make([]int64, 0, len(n.Nodes))
	for id := range n.Nodes {
		nodes = append(nodes, id)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	n.sortedNodes = nodes
	n.nodesDirty = false
	return nodes
}

// MinCapacityOnPath returns the bottleneck residual capacity along the node
// sequence, or zero when some consecutive pair has no arc.
func (n *FlowNetwork) MinCapacityOnPath(path []int64) float64 {
	if len(path) < 2 {
		return 0
	}
	minCap := domain.Infinity
	for i := 0; i < len(path)-1; i++ {
		a := n.arc(path[i], path[i+1])
		if a == nil {
			return 0
		}
		if a.Capacity < minCap {
			minCap = a.Capacity
		}
	}
	return minCap
}

// Augment pushes amount along the node sequence, shrinking forward residual
// capacity and growing the reverse twin. Flow is accounted on the forward
// arc of each pair.
func (n *FlowNetwork) Augment(path []int64, amount float64) {
	for i := 0; i < len(path)-1; i++ {
		arc := n.arc(path[i], path[i+1])
		twin := n.arc(path[i+1], path[i])

		arc.Capacity -= amount
		if twin != nil {
			twin.Capacity += amount
		}

		if arc.IsReverse {
			// Pushing over a reverse arc cancels flow on its twin.
			if twin != nil {
				twin.Flow -= amount
			}
		} else {
			arc.Flow += amount
		}
	}
}

// TotalCost sums cost * flow over all forward arcs.
func (n *FlowNetwork) TotalCost() float64 {
	var total float64
	for _, from := range n.GetSortedNodes() {
		for _, a := range n.ArcsList[from] {
			if !a.IsReverse && domain.IsPositive(a.Flow) {
				total += a.Cost * a.Flow
			}
		}
	}
	return total
}
