package clustering

import (
	"context"
	"fmt"
	"sort"

	"github.com/courtdata/partydedup/internal/blocking"
	"github.com/courtdata/partydedup/internal/types"
)

// mergeComponents is the order-independent merge: score every candidate
// pair once, keep the pairs at or above the threshold as edges, and emit
// the connected components of the resulting similarity graph.
//
// A pair is a candidate when either member's key falls inside the other's
// window; the relative window is asymmetric, so both orientations are
// checked. Components are emitted in ascending order of their earliest
// member, with that member's name as the canonical.
func (b *Builder) mergeComponents(ctx context.Context, groups []*nameGroup) ([]types.Cluster, int, error) {
	byKey, sortedKeys := sortByKey(groups)

	type pair struct{ a, b int }
	seen := make(map[pair]struct{})
	var pairs []pair

	for gi := range groups {
		if gi%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, fmt.Errorf("candidate generation canceled: %w", err)
			}
		}
		lo, hi := blocking.Window(groups[gi].key, b.cfg.Tolerance)
		for i := searchKey(sortedKeys, lo); i < len(sortedKeys) && sortedKeys[i] <= hi; i++ {
			gj := byKey[i]
			if gj == gi {
				continue
			}
			p := pair{min(gi, gj), max(gi, gj)}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			pairs = append(pairs, p)
		}
	}

	// Deterministic scoring order regardless of how pairs were found.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})

	uf := newUnionFind(len(groups))
	comparisons := 0
	for i, p := range pairs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, fmt.Errorf("pair scoring canceled: %w", err)
			}
		}
		comparisons++
		if b.scorer.Score(groups[p.a].name, groups[p.b].name) >= b.cfg.Threshold {
			uf.union(p.a, p.b)
		}
	}

	// Walk groups in input order: the first group of each component opens
	// its aggregate, so the canonical is always the earliest member.
	aggs := make(map[int]*aggregate, len(groups))
	var order []int
	for gi, g := range groups {
		root := uf.find(gi)
		if a, ok := aggs[root]; ok {
			a.absorb(g)
			continue
		}
		aggs[root] = newAggregate(g)
		order = append(order, root)
	}

	clusters := make([]types.Cluster, 0, len(order))
	for _, root := range order {
		clusters = append(clusters, aggs[root].emit())
	}
	return clusters, comparisons, nil
}

// unionFind is a disjoint-set forest with path halving and union by size.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	size := make([]int, n)
	for i := range parent {
		parent[i] = i
		size[i] = 1
	}
	return &unionFind{parent: parent, size: size}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// union joins the sets containing a and b, reporting whether a merge
// happened.
func (u *unionFind) union(a, b int) bool {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return false
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
	return true
}
