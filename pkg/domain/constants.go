package domain

import "math"

// Математические константы
const (
	Epsilon          = 1e-9
	Infinity         = math.MaxFloat64
	NegativeInfinity = -math.MaxFloat64
)

// Идентификаторы виртуальных узлов (балансировка потока)
const (
	VirtualNodeThreshold int64 = 0
	SuperSourceID        int64 = -1
	SuperSinkID          int64 = -2
)

// IsVirtualNode проверяет, является ли узел виртуальным
func IsVirtualNode(nodeID int64) bool {
	return nodeID < VirtualNodeThreshold
}

// FloatEquals сравнивает два float64 с учётом Epsilon
func FloatEquals(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// FloatLess проверяет a < b с учётом Epsilon
func FloatLess(a, b float64) bool {
	return a < b-Epsilon
}

// FloatGreater проверяет a > b с учётом Epsilon
func FloatGreater(a, b float64) bool {
	return a > b+Epsilon
}

// IsZero проверяет, равно ли значение нулю
func IsZero(v float64) bool {
	return math.Abs(v) < Epsilon
}

// IsPositive проверяет, положительно ли значение
func IsPositive(v float64) bool {
	return v > Epsilon
}
