// Connectivity partitioning over RoutingGraph: weakly/undirected connected
// components and strongly connected components (iterative Tarjan).
//
// Both partitions are deterministic: traversal seeds iterate node ids in
// ascending order, neighbor expansion follows edge insertion order, component
// members come back sorted ascending and the component list is ordered by its
// smallest member. The first member of each component doubles as its
// representative.

package graph

import "sort"

// =============================================================================
// Queue
// =============================================================================

// Queue is a FIFO over node ids backed by a slice with a head pointer, so a
// whole BFS allocates at most once.
type Queue struct {
	data []int64
	head int
}

// NewQueue creates a queue with the given initial capacity, typically the
// node count of the graph about to be traversed.
func NewQueue(capacity int) *Queue {
	return &Queue{data: make([]int64, 0, capacity)}
}

// Push appends v to the back of the queue.
func (q *Queue) Push(v int64) {
	q.data = append(q.data, v)
}

// Pop removes and returns the front element. Callers must check Empty first.
func (q *Queue) Pop() int64 {
	v := q.data[q.head]
	q.head++
	return v
}

// Empty reports whether the queue holds no elements.
func (q *Queue) Empty() bool {
	return q.head >= len(q.data)
}

// Len returns the number of queued elements.
func (q *Queue) Len() int {
	return len(q.data) - q.head
}

// Reset clears the queue keeping its capacity.
func (q *Queue) Reset() {
	q.data = q.data[:0]
	q.head = 0
}

// =============================================================================
// Connected components
// =============================================================================

// ConnectedComponents partitions the graph into components, ignoring arc
// direction in directed graphs (weak connectivity). Each component is sorted
// ascending; components are ordered by smallest member. Isolated nodes form
// singleton components.
func ConnectedComponents(g *RoutingGraph) [][]int64 {
	nodes := g.GetSortedNodes()
	visited := make(map[int64]bool, len(nodes))
	queue := NewQueue(len(nodes))

	var components [][]int64
	for _, seed := range nodes {
		if visited[seed] {
			continue
		}

		// The seed is the smallest unvisited id, hence the smallest member
		// of its component: any smaller member would have seeded earlier.
		component := []int64{}
		queue.Reset()
		queue.Push(seed)
		visited[seed] = true

		for !queue.Empty() {
			u := queue.Pop()
			component = append(component, u)

			for _, e := range g.IncidentEdges(u) {
				v := e.Other(u)
				if !visited[v] {
					visited[v] = true
					queue.Push(v)
				}
			}
		}

		sort.Slice(component, func(i, j int) bool { return component[i] < component[j] })
		components = append(components, component)
	}

	return components
}

// LargestComponent returns the component with the most nodes, breaking size
// ties toward the smallest member. Returns nil for an empty graph.
func LargestComponent(components [][]int64) []int64 {
	var best []int64
	for _, c := range components {
		if len(c) > len(best) {
			best = c
		}
	}
	return best
}

// =============================================================================
// Strongly connected components (Tarjan)
// =============================================================================

// sccFrame is one entry of the explicit Tarjan DFS stack. edgeIndex remembers
// how far the adjacency of node has been expanded, so the traversal resumes
// mid-list after returning from a descendant.
type sccFrame struct {
	node      int64
	edgeIndex int
}

// SCCPartition indexes the strongly connected components of a directed graph.
type SCCPartition struct {
	// Components holds each SCC sorted ascending, ordered by smallest member.
	Components [][]int64

	// Assign maps node id to its index in Components.
	Assign map[int64]int
}

// SameComponent reports whether both nodes fall in one SCC.
func (p *SCCPartition) SameComponent(a, b int64) bool {
	ca, okA := p.Assign[a]
	cb, okB := p.Assign[b]
	return okA && okB && ca == cb
}

// Size returns the node count of component idx.
func (p *SCCPartition) Size(idx int) int {
	if idx < 0 || idx >= len(p.Components) {
		return 0
	}
	return len(p.Components[idx])
}

// StronglyConnectedComponents computes the SCC partition with an iterative
// Tarjan traversal (no recursion, safe on street-scale graphs). On an
// undirected graph every edge is traversable both ways, so the result
// coincides with ConnectedComponents.
func StronglyConnectedComponents(g *RoutingGraph) *SCCPartition {
	nodes := g.GetSortedNodes()

	index := make(map[int64]int, len(nodes))
	lowlink := make(map[int64]int, len(nodes))
	onStack := make(map[int64]bool, len(nodes))
	stack := make([]int64, 0, len(nodes))
	next := 0

	var raw [][]int64

	for _, root := range nodes {
		if _, seen := index[root]; seen {
			continue
		}

		frames := []sccFrame{{node: root}}
		index[root] = next
		lowlink[root] = next
		next++
		stack = append(stack, root)
		onStack[root] = true

		for len(frames) > 0 {
			top := &frames[len(frames)-1]
			u := top.node
			out := g.OutEdges(u)

			advanced := false
			for top.edgeIndex < len(out) {
				e := out[top.edgeIndex]
				top.edgeIndex++
				v := g.sccSuccessor(u, e)

				if _, seen := index[v]; !seen {
					index[v] = next
					lowlink[v] = next
					next++
					stack = append(stack, v)
					onStack[v] = true
					frames = append(frames, sccFrame{node: v})
					advanced = true
					break
				}
				if onStack[v] && index[v] < lowlink[u] {
					lowlink[u] = index[v]
				}
			}
			if advanced {
				continue
			}

			// u is fully expanded: pop its component if it is a root.
			if lowlink[u] == index[u] {
				var component []int64
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					component = append(component, w)
					if w == u {
						break
					}
				}
				sort.Slice(component, func(i, j int) bool { return component[i] < component[j] })
				raw = append(raw, component)
			}

			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := frames[len(frames)-1].node
				if lowlink[u] < lowlink[parent] {
					lowlink[parent] = lowlink[u]
				}
			}
		}
	}

	// Tarjan emits components in reverse topological order; reorder by
	// smallest member for stable reporting.
	sort.Slice(raw, func(i, j int) bool { return raw[i][0] < raw[j][0] })

	assign := make(map[int64]int, len(nodes))
	for idx, component := range raw {
		for _, node := range component {
			assign[node] = idx
		}
	}

	return &SCCPartition{Components: raw, Assign: assign}
}

// sccSuccessor resolves the node reached by following e out of u. Undirected
// segments are traversable both ways.
func (g *RoutingGraph) sccSuccessor(u int64, e *Edge) int64 {
	if g.directed {
		return e.To
	}
	return e.Other(u)
}

// DominantSCC returns the index of the component containing the most nodes,
// ties broken toward the smallest member. Returns -1 for an empty partition.
func DominantSCC(p *SCCPartition) int {
	best := -1
	for idx, c := range p.Components {
		if best == -1 || len(c) > len(p.Components[best]) {
			best = idx
		}
	}
	return best
}
