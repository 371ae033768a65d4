package algorithms

import (
	"fmt"
	"sort"

	"everystreet/pkg/apperror"
	"everystreet/pkg/domain"
)

// =============================================================================
// Minimum-Weight Perfect Matching
// =============================================================================
//
// Parity repair pairs up odd-degree nodes so that duplicating the shortest
// path inside each pair makes every degree even. Small sets are matched
// exactly with a bitmask DP over 2^n states; larger sets fall back to a
// greedy nearest-pair construction refined by swap sweeps. The crossover is
// configurable (solver.exact_matching_limit) and capped at 24 nodes, beyond
// which the DP table stops fitting in memory.
// =============================================================================

// MatchingOptions tunes MinWeightMatching.
type MatchingOptions struct {
	// ExactLimit is the largest set size matched with the exact DP.
	// Zero selects the default of 20.
	ExactLimit int

	// ImprovementSweeps is how many refinement passes the greedy fallback
	// runs. Zero selects the default of 2.
	ImprovementSweeps int
}

const (
	defaultExactLimit        = 20
	defaultImprovementSweeps = 2

	// hardExactLimit bounds the DP regardless of configuration.
	hardExactLimit = 24
)

// pairCost resolves the matching weight between two nodes, accepting either
// orientation of the matrix entry.
func pairCost(costs *CostMatrix, a, b int64) (float64, bool) {
	if c, ok := costs.Cost(a, b); ok {
		return c, true
	}
	return costs.Cost(b, a)
}

// MinWeightMatching pairs every node of odd with exactly one partner,
// minimizing the total pairwise shortest-path cost drawn from costs.
//
// The returned pairs are canonical: each pair is (low, high) by node id and
// the list is sorted by its first element, so identical inputs produce
// byte-identical results whichever strategy ran.
//
// Fails with apperror.CodeUnmatchableEndpoint when the set has odd
// cardinality and apperror.CodeNoPath when some node cannot reach any
// unmatched partner.
func MinWeightMatching(odd []int64, costs *CostMatrix, opts MatchingOptions) ([][2]int64, float64, error) {
	if len(odd) == 0 {
		return nil, 0, nil
	}
	if len(odd)%2 != 0 {
		return nil, 0, apperror.New(apperror.CodeUnmatchableEndpoint,
			fmt.Sprintf("odd-degree set has %d nodes, cannot pair", len(odd))).
			WithDetails("odd_nodes", append([]int64(nil), odd...))
	}

	nodes := append([]int64(nil), odd...)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	exactLimit := opts.ExactLimit
	if exactLimit <= 0 {
		exactLimit = defaultExactLimit
	}
	if exactLimit > hardExactLimit {
		exactLimit = hardExactLimit
	}

	var (
		pairs [][2]int64
		total float64
		err   error
	)
	if len(nodes) <= exactLimit {
		pairs, total, err = matchExact(nodes, costs)
	} else {
		sweeps := opts.ImprovementSweeps
		if sweeps <= 0 {
			sweeps = defaultImprovementSweeps
		}
		pairs, total, err = matchGreedy(nodes, costs, sweeps)
	}
	if err != nil {
		return nil, 0, err
	}

	for i := range pairs {
		if pairs[i][0] > pairs[i][1] {
			pairs[i][0], pairs[i][1] = pairs[i][1], pairs[i][0]
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })

	return pairs, total, nil
}

// matchExact solves the matching optimally with a DP over node subsets.
// dp[mask] is the cheapest perfect matching of the nodes whose bits are set.
func matchExact(nodes []int64, costs *CostMatrix) ([][2]int64, float64, error) {
	n := len(nodes)
	full := (1 << n) - 1

	dp := make([]float64, full+1)
	choice := make([]int32, full+1)
	for mask := 1; mask <= full; mask++ {
		dp[mask] = domain.Infinity
		choice[mask] = -1
	}

	for mask := 0; mask <= full; mask++ {
		if dp[mask] >= domain.Infinity {
			continue
		}
		// Pair the lowest unmatched node to keep every state reachable
		// exactly once.
		i := 0
		for ; i < n; i++ {
			if mask&(1<<i) == 0 {
				break
			}
		}
		if i == n {
			continue
		}
		for j := i + 1; j < n; j++ {
			if mask&(1<<j) != 0 {
				continue
			}
			cost, ok := pairCost(costs, nodes[i], nodes[j])
			if !ok {
				continue
			}
			next := mask | 1<<i | 1<<j
			if dp[mask]+cost < dp[next]-domain.Epsilon {
				dp[next] = dp[mask] + cost
				choice[next] = int32(i<<8 | j)
			}
		}
	}

	if dp[full] >= domain.Infinity {
		return nil, 0, apperror.New(apperror.CodeNoPath,
			"no perfect matching exists over the odd-degree set").
			WithDetails("odd_nodes", nodes)
	}

	pairs := make([][2]int64, 0, n/2)
	for mask := full; mask != 0; {
		c := choice[mask]
		i, j := int(c>>8), int(c&0xff)
		pairs = append(pairs, [2]int64{nodes[i], nodes[j]})
		mask &^= 1<<i | 1<<j
	}

	return pairs, dp[full], nil
}

// candidatePair is one greedy matching candidate.
type candidatePair struct {
	i, j int
	cost float64
}

// matchGreedy builds a matching by repeatedly taking the cheapest pair of
// still-unmatched nodes, then runs swap sweeps: for two matched pairs the
// two alternative regroupings are tried and applied when cheaper.
func matchGreedy(nodes []int64, costs *CostMatrix, sweeps int) ([][2]int64, float64, error) {
	n := len(nodes)

	candidates := make([]candidatePair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if cost, ok := pairCost(costs, nodes[i], nodes[j]); ok {
				candidates = append(candidates, candidatePair{i: i, j: j, cost: cost})
			}
		}
	}
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].cost != candidates[b].cost {
			return candidates[a].cost < candidates[b].cost
		}
		if candidates[a].i != candidates[b].i {
			return candidates[a].i < candidates[b].i
		}
		return candidates[a].j < candidates[b].j
	})

	matched := make([]int, n)
	for i := range matched {
		matched[i] = -1
	}
	var pairs [][2]int
	for _, c := range candidates {
		if matched[c.i] == -1 && matched[c.j] == -1 {
			matched[c.i] = c.j
			matched[c.j] = c.i
			pairs = append(pairs, [2]int{c.i, c.j})
		}
	}

	for i, partner := range matched {
		if partner == -1 {
			return nil, 0, apperror.New(apperror.CodeNoPath,
				"node cannot reach any unmatched partner").
				WithDetails("node_id", nodes[i])
		}
	}

	mustCost := func(i, j int) float64 {
		c, _ := pairCost(costs, nodes[i], nodes[j])
		return c
	}

	// Swap sweeps: exchange partners between two pairs when the regrouped
	// total is cheaper. First-improvement scan keeps the result stable.
	for s := 0; s < sweeps; s++ {
		improved := false
		for p := 0; p < len(pairs); p++ {
			for q := p + 1; q < len(pairs); q++ {
				a, b := pairs[p][0], pairs[p][1]
				c, d := pairs[q][0], pairs[q][1]
				current := mustCost(a, b) + mustCost(c, d)

				if ac, ok1 := pairCost(costs, nodes[a], nodes[c]); ok1 {
					if bd, ok2 := pairCost(costs, nodes[b], nodes[d]); ok2 {
						if ac+bd < current-domain.Epsilon {
							pairs[p] = [2]int{a, c}
							pairs[q] = [2]int{b, d}
							improved = true
							continue
						}
					}
				}
				if ad, ok1 := pairCost(costs, nodes[a], nodes[d]); ok1 {
					if bc, ok2 := pairCost(costs, nodes[b], nodes[c]); ok2 {
						if ad+bc < current-domain.Epsilon {
							pairs[p] = [2]int{a, d}
							pairs[q] = [2]int{b, c}
							improved = true
						}
					}
				}
			}
		}
		if !improved {
			break
		}
	}

	result := make([][2]int64, 0, len(pairs))
	var total float64
	for _, p := range pairs {
		result = append(result, [2]int64{nodes[p[0]], nodes[p[1]]})
		total += mustCost(p[0], p[1])
	}

	return result, total, nil
}
