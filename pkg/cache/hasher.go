package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// EdgeDigest минимальное представление ребра для подписи графа
type EdgeDigest struct {
	From   int64
	To     int64
	Length float64
}

// GraphSignature вычисляет хеш графа для использования как часть ключа кэша.
// Подпись детерминирована: рёбра сортируются до хеширования, поэтому порядок
// добавления рёбер в граф на подпись не влияет.
func GraphSignature(mode string, edges []EdgeDigest) string {
	data := edgesToCanonical(mode, edges)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// edgesToCanonical создаёт детерминированное представление графа
func edgesToCanonical(mode string, edges []EdgeDigest) []byte {
	sorted := make([]EdgeDigest, len(edges))
	copy(sorted, edges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].From != sorted[j].From {
			return sorted[i].From < sorted[j].From
		}
		if sorted[i].To != sorted[j].To {
			return sorted[i].To < sorted[j].To
		}
		return sorted[i].Length < sorted[j].Length
	})

	var result []byte
	result = append(result, []byte(fmt.Sprintf("m:%s;", mode))...)
	for _, e := range sorted {
		result = append(result, []byte(fmt.Sprintf("e:%d:%d:%.3f;", e.From, e.To, e.Length))...)
	}
	return result
}

// BuildPathKey строит ключ кэша для кратчайшего пути между парой вершин
func BuildPathKey(graphSignature string, source, target int64) string {
	return fmt.Sprintf("path:%s:%d:%d", graphSignature, source, target)
}

// QuickHash быстрый хеш для произвольных данных
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash короткий хеш (16 символов)
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
