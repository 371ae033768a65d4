package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"everystreet/pkg/domain"
)

// PathCache специализированный кэш для кратчайших путей между парами вершин.
// Используется построителем матрицы расстояний, чтобы не пересчитывать
// Дейкстру для пар, уже посчитанных на том же графе.
type PathCache struct {
	cache      Cache
	signature  string
	defaultTTL time.Duration
}

// CachedPath кэшированный кратчайший путь
type CachedPath struct {
	Nodes      []int64   `json:"nodes"`
	Cost       float64   `json:"cost"`
	ComputedAt time.Time `json:"computed_at"`
}

// NewPathCache создаёт кэш путей, привязанный к подписи графа
func NewPathCache(cache Cache, signature string, defaultTTL time.Duration) *PathCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &PathCache{
		cache:      cache,
		signature:  signature,
		defaultTTL: defaultTTL,
	}
}

// Signature возвращает подпись графа, к которой привязан кэш
func (pc *PathCache) Signature() string {
	return pc.signature
}

// Get получает кэшированный путь для пары вершин
func (pc *PathCache) Get(ctx context.Context, source, target int64) (*domain.Path, bool, error) {
	key := BuildPathKey(pc.signature, source, target)

	data, err := pc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var cached CachedPath
	if err := json.Unmarshal(data, &cached); err != nil {
		// Повреждённый кэш — удаляем, ошибку удаления игнорируем намеренно
		_ = pc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &domain.Path{Nodes: cached.Nodes, Cost: cached.Cost}, true, nil
}

// GetMany получает кэшированные пути для набора пар одним запросом
func (pc *PathCache) GetMany(ctx context.Context, pairs [][2]int64) (map[[2]int64]*domain.Path, error) {
	if len(pairs) == 0 {
		return map[[2]int64]*domain.Path{}, nil
	}

	keys := make([]string, len(pairs))
	byKey := make(map[string][2]int64, len(pairs))
	for i, p := range pairs {
		key := BuildPathKey(pc.signature, p[0], p[1])
		keys[i] = key
		byKey[key] = p
	}

	values, err := pc.cache.MGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	found := make(map[[2]int64]*domain.Path, len(values))
	for key, data := range values {
		var cached CachedPath
		if err := json.Unmarshal(data, &cached); err != nil {
			_ = pc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
			continue
		}
		found[byKey[key]] = &domain.Path{Nodes: cached.Nodes, Cost: cached.Cost}
	}

	return found, nil
}

// Set сохраняет путь в кэш
func (pc *PathCache) Set(ctx context.Context, source, target int64, path *domain.Path, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = pc.defaultTTL
	}

	key := BuildPathKey(pc.signature, source, target)
	data, err := json.Marshal(CachedPath{
		Nodes:      path.Nodes,
		Cost:       path.Cost,
		ComputedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	return pc.cache.Set(ctx, key, data, ttl)
}

// SetMany сохраняет набор путей одним запросом
func (pc *PathCache) SetMany(ctx context.Context, paths map[[2]int64]*domain.Path, ttl time.Duration) error {
	if len(paths) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = pc.defaultTTL
	}

	now := time.Now()
	entries := make(map[string][]byte, len(paths))
	for pair, path := range paths {
		data, err := json.Marshal(CachedPath{
			Nodes:      path.Nodes,
			Cost:       path.Cost,
			ComputedAt: now,
		})
		if err != nil {
			return err
		}
		entries[BuildPathKey(pc.signature, pair[0], pair[1])] = data
	}

	return pc.cache.MSet(ctx, entries, ttl)
}

// Invalidate удаляет все пути, посчитанные для текущего графа
func (pc *PathCache) Invalidate(ctx context.Context) (int64, error) {
	pattern := fmt.Sprintf("path:%s:*", pc.signature)
	return pc.cache.DeleteByPattern(ctx, pattern)
}

// InvalidateAll удаляет пути для всех графов
func (pc *PathCache) InvalidateAll(ctx context.Context) (int64, error) {
	return pc.cache.DeleteByPattern(ctx, "path:*")
}
