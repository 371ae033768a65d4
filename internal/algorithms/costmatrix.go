package algorithms

import (
	"context"
	"runtime"
	"sync"

	"everystreet/internal/graph"
	"everystreet/pkg/apperror"
	"everystreet/pkg/cache"
	"everystreet/pkg/domain"
	"everystreet/pkg/telemetry"
)

// =============================================================================
// Pairwise Cost Matrix
// =============================================================================
//
// Repair stages need shortest paths between many (source, target) pairs:
// matching over odd nodes asks for all pairs of O, imbalance repair for all
// demand-supply pairs. Pairs are independent reads of the shared routing
// graph, so they are fanned out to a fixed-size worker pool. Each worker owns
// one pair at a time and writes one result; a pair is never computed twice.
// =============================================================================

// CostMatrix holds shortest paths keyed by (source, target). Unreachable
// pairs are absent. The matrix is immutable after construction and safe for
// concurrent readers.
type CostMatrix struct {
	paths map[[2]int64]*domain.Path

	// Stats describes how the matrix was assembled.
	Stats MatrixStats
}

// MatrixStats counts the work done by BuildCostMatrix.
type MatrixStats struct {
	Pairs       int // distinct pairs requested
	Computed    int // resolved by running Dijkstra
	CacheHits   int // resolved from the path cache
	Unreachable int // pairs with no path
}

// Path returns the stored path for the pair.
func (m *CostMatrix) Path(source, target int64) (*domain.Path, bool) {
	p, ok := m.paths[[2]int64{source, target}]
	return p, ok
}

// Cost returns the stored path cost for the pair.
func (m *CostMatrix) Cost(source, target int64) (float64, bool) {
	p, ok := m.paths[[2]int64{source, target}]
	if !ok {
		return 0, false
	}
	return p.Cost, true
}

// Len returns the number of resolved pairs.
func (m *CostMatrix) Len() int {
	return len(m.paths)
}

// MatrixOptions configures BuildCostMatrix.
type MatrixOptions struct {
	// Workers is the pool size. Zero or negative selects NumCPU.
	Workers int

	// Cache, when set, is consulted before computing a pair and updated
	// with every newly computed path. The matrix is built identically
	// without it.
	Cache *cache.PathCache
}

// pairOutcome is one worker result.
type pairOutcome struct {
	pair [2]int64
	path *domain.Path
	err  error
}

// BuildCostMatrix resolves shortest paths for every requested pair.
//
// Duplicate pairs are collapsed up front. Self pairs resolve to a trivial
// zero-cost path without touching the pool. Unreachable pairs are recorded
// in Stats but are not errors; callers decide whether a missing pair is
// fatal. Cancellation aborts the build with apperror.CodeTimeout.
func BuildCostMatrix(ctx context.Context, g *graph.RoutingGraph, pairs [][2]int64, opts MatrixOptions) (*CostMatrix, error) {
	matrix := &CostMatrix{paths: make(map[[2]int64]*domain.Path, len(pairs))}

	// Collapse duplicates preserving first-seen order.
	seen := make(map[[2]int64]bool, len(pairs))
	todo := make([][2]int64, 0, len(pairs))
	for _, p := range pairs {
		if seen[p] {
			continue
		}
		seen[p] = true
		if p[0] == p[1] {
			matrix.paths[p] = &domain.Path{Nodes: []int64{p[0]}, Cost: 0}
			continue
		}
		todo = append(todo, p)
	}
	matrix.Stats.Pairs = len(seen)

	// Resolve what the cache already knows. A failing cache degrades to a
	// full computation, it never fails the build.
	if opts.Cache != nil && len(todo) > 0 {
		cached, err := opts.Cache.GetMany(ctx, todo)
		if err != nil {
			telemetry.RecordError(ctx, err)
		} else {
			remaining := todo[:0]
			for _, p := range todo {
				if path, ok := cached[p]; ok {
					matrix.paths[p] = path
					matrix.Stats.CacheHits++
					continue
				}
				remaining = append(remaining, p)
			}
			todo = remaining
		}
	}

	if len(todo) == 0 {
		return matrix, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(todo) {
		workers = len(todo)
	}

	jobs := make(chan [2]int64)
	results := make(chan pairOutcome, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pair := range jobs {
				path, err := ShortestPath(ctx, g, pair[0], pair[1])
				if err != nil && apperror.Is(err, apperror.CodeNoPath) {
					// Missing connectivity is a fact about the graph,
					// not a failure of the build.
					results <- pairOutcome{pair: pair}
					continue
				}
				results <- pairOutcome{pair: pair, path: path, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, pair := range todo {
			select {
			case jobs <- pair:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	computed := make(map[[2]int64]*domain.Path, len(todo))
	for outcome := range results {
		if outcome.err != nil {
			if firstErr == nil {
				firstErr = outcome.err
			}
			continue
		}
		if outcome.path == nil {
			matrix.Stats.Unreachable++
			continue
		}
		matrix.paths[outcome.pair] = outcome.path
		computed[outcome.pair] = outcome.path
		matrix.Stats.Computed++
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeTimeout, "cost matrix build canceled")
	}

	// Persist fresh paths for the next solve over the same extract.
	if opts.Cache != nil && len(computed) > 0 {
		if err := opts.Cache.SetMany(ctx, computed, 0); err != nil {
			telemetry.RecordError(ctx, err)
		}
	}

	return matrix, nil
}
