package algorithms

import (
	"container/heap"
	"context"
	"math"

	"everystreet/pkg/apperror"
	"everystreet/pkg/domain"
)

// FlowAssignment назначение потока между двумя реальными узлами сети
type FlowAssignment struct {
	From  int64
	To    int64
	Units int
}

// FlowResult результат расчёта потока минимальной стоимости
type FlowResult struct {
	// Flow фактически проведённая величина потока, может быть меньше требуемой
	Flow float64
	// Cost суммарная стоимость проведённого потока
	Cost float64
	// Iterations число найденных увеличивающих путей
	Iterations int
	// Assignments ненулевые назначения между реальными узлами в детерминированном порядке
	Assignments []FlowAssignment
}

// MinCostFlow проводит поток величины required от source к sink методом
// последовательных кратчайших путей с потенциалами Джонсона.
//
// Исходные стоимости дуг неотрицательны (длины кратчайших путей), поэтому
// нулевые начальные потенциалы корректны, а Дейкстра по приведённым
// стоимостям не требует отката к Беллману-Форду. Если поток required
// недостижим, возвращается результат с Flow < required; решение о фатальности
// принимает вызывающая сторона.
func MinCostFlow(ctx context.Context, net *FlowNetwork, source, sink int64, required float64) (*FlowResult, error) {
	result := &FlowResult{}
	if !domain.IsPositive(required) {
		return result, nil
	}

	potentials := make(map[int64]float64, len(net.Nodes))

	for result.Flow < required-domain.Epsilon {
		dist, parent, canceled := dijkstraFlow(ctx, net, source, potentials)
		if canceled {
			return nil, apperror.Wrap(ctx.Err(), apperror.CodeTimeout, "min-cost flow canceled").
				WithDetails("flow", result.Flow).
				WithDetails("required", required)
		}

		if _, reached := dist[sink]; !reached {
			break
		}

		// Потенциалы сдвигаются на найденные расстояния, чтобы приведённые
		// стоимости остались неотрицательными на следующей итерации.
		for node, d := range dist {
			potentials[node] += d
		}

		path := domain.ReconstructPath(parent, source, sink)
		if len(path) < 2 {
			break
		}

		amount := required - result.Flow
		if minCap := net.MinCapacityOnPath(path); minCap < amount {
			amount = minCap
		}
		if !domain.IsPositive(amount) {
			break
		}

		var pathCost float64
		for i := 0; i < len(path)-1; i++ {
			pathCost += net.Arc(path[i], path[i+1]).Cost
		}

		net.Augment(path, amount)
		result.Flow += amount
		result.Cost += pathCost * amount
		result.Iterations++
	}

	result.Assignments = collectAssignments(net)
	return result, nil
}

// collectAssignments собирает ненулевые потоки между реальными узлами
func collectAssignments(net *FlowNetwork) []FlowAssignment {
	var assignments []FlowAssignment
	for _, from := range net.GetSortedNodes() {
		if domain.IsVirtualNode(from) {
			continue
		}
		for _, arc := range net.ArcsList[from] {
			if arc.IsReverse || arc.Flow <= domain.Epsilon || domain.IsVirtualNode(arc.To) {
				continue
			}
			assignments = append(assignments, FlowAssignment{
				From:  arc.From,
				To:    arc.To,
				Units: int(math.Round(arc.Flow)),
			})
		}
	}
	return assignments
}

// dijkstraFlow ищет кратчайшие приведённые расстояния по дугам с остаточной
// пропускной способностью. Крошечные отрицательные приведённые стоимости
// (шум плавающей точки) прижимаются к нулю.
func dijkstraFlow(ctx context.Context, net *FlowNetwork, source int64, potentials map[int64]float64) (map[int64]float64, map[int64]int64, bool) {
	dist := make(map[int64]float64, len(net.Nodes))
	parent := make(map[int64]int64, len(net.Nodes))
	dist[source] = 0

	pq := make(priorityQueue, 0, len(net.Nodes))
	heap.Init(&pq)
	heap.Push(&pq, &priorityQueueItem{node: source})

	iterations := 0
	for pq.Len() > 0 {
		if iterations%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return dist, parent, true
			default:
			}
		}
		iterations++

		current := heap.Pop(&pq).(*priorityQueueItem)
		u := current.node
		if current.distance > dist[u]+domain.Epsilon {
			continue
		}

		for _, arc := range net.NeighborsList(u) {
			if arc.Capacity <= domain.Epsilon {
				continue
			}
			v := arc.To

			reduced := arc.Cost + potentials[u] - potentials[v]
			if reduced < 0 {
				reduced = 0
			}

			newDist := dist[u] + reduced
			old, seen := dist[v]
			if !seen || newDist < old-domain.Epsilon {
				dist[v] = newDist
				parent[v] = u
				heap.Push(&pq, &priorityQueueItem{node: v, distance: newDist})
			}
		}
	}

	return dist, parent, false
}
