package domain

// RouteSummary агрегированная статистика итогового обхода
type RouteSummary struct {
	Steps           int
	RequiredSteps   int
	ConnectorSteps  int
	DuplicateSteps  int
	TotalLength     float64
	RequiredLength  float64
	ConnectorLength float64
	DuplicateLength float64
	// Overhead доля добавленной длины к обязательной: (total-required)/required
	Overhead  float64
	StartNode int64
	EndNode   int64
	Closed    bool
}

// SummarizeRoute вычисляет статистику по шагам обхода
func SummarizeRoute(steps []RouteStep) *RouteSummary {
	s := &RouteSummary{Steps: len(steps)}
	if len(steps) == 0 {
		return s
	}

	for _, step := range steps {
		s.TotalLength += step.Attrs.Length
		switch step.Kind {
		case KindRequired:
			s.RequiredSteps++
			s.RequiredLength += step.Attrs.Length
		case KindConnector:
			s.ConnectorSteps++
			s.ConnectorLength += step.Attrs.Length
		case KindDuplicate:
			s.DuplicateSteps++
			s.DuplicateLength += step.Attrs.Length
		}
	}

	if IsPositive(s.RequiredLength) {
		s.Overhead = (s.TotalLength - s.RequiredLength) / s.RequiredLength
	}

	s.StartNode = steps[0].From
	s.EndNode = steps[len(steps)-1].To
	s.Closed = s.StartNode == s.EndNode

	return s
}

// RouteNodes возвращает последовательность узлов обхода (start, ..., end)
func RouteNodes(steps []RouteStep) []int64 {
	if len(steps) == 0 {
		return nil
	}
	nodes := make([]int64, 0, len(steps)+1)
	nodes = append(nodes, steps[0].From)
	for _, step := range steps {
		nodes = append(nodes, step.To)
	}
	return nodes
}
