package domain

// Path путь в дорожном графе с накопленной стоимостью
type Path struct {
	// Nodes последовательность узлов, len >= 2 для непустого пути
	Nodes []int64
	// Cost суммарная длина пути в метрах
	Cost float64
}

// IsEmpty проверяет, пуст ли путь
func (p *Path) IsEmpty() bool {
	return p == nil || len(p.Nodes) < 2
}

// Reversed возвращает копию пути в обратном направлении
func (p *Path) Reversed() *Path {
	if p == nil {
		return nil
	}
	nodes := make([]int64, len(p.Nodes))
	for i, n := range p.Nodes {
		nodes[len(p.Nodes)-1-i] = n
	}
	return &Path{Nodes: nodes, Cost: p.Cost}
}

// ReconstructPath восстанавливает путь по дереву предков от source к sink.
// Узлы вне дерева (нет записи в parent) недостижимы. Идентификаторы могут
// быть любыми, включая отрицательные виртуальные узлы.
func ReconstructPath(parent map[int64]int64, source, sink int64) []int64 {
	if source == sink {
		return []int64{source}
	}
	if _, exists := parent[sink]; !exists {
		return nil
	}

	path := []int64{sink}
	current := sink
	for steps := 0; current != source; steps++ {
		// защита от цикла в повреждённом дереве
		if steps > len(parent) {
			return nil
		}
		p, exists := parent[current]
		if !exists {
			return nil
		}
		current = p
		path = append(path, current)
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
