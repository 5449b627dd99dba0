package pipeline

import (
	"sort"

	"github.com/AnyUserName/imgprint/internal/hasher"
	"github.com/AnyUserName/imgprint/internal/manifest"
)

// unionFind is a disjoint-set forest over entry indices.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}

// GroupDuplicates clusters entries whose content hashes match or whose
// phash distance is at most threshold. Membership is transitive. Only
// groups with two or more members are returned; keys inside a group
// are sorted and groups are ordered by their first key.
func GroupDuplicates(entries map[string]manifest.Entry, threshold int) []manifest.Group {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	uf := newUnionFind(len(keys))
	byContent := map[string]int{}
	for i, k := range keys {
		ch := entries[k].ContentHash
		if ch == "" {
			continue
		}
		if j, ok := byContent[ch]; ok {
			uf.union(i, j)
		} else {
			byContent[ch] = i
		}
	}

	// Decode every pHash once; entries with an unparsable hash only
	// join groups through their content hash.
	prints := make([]hasher.Fingerprint, len(keys))
	valid := make([]bool, len(keys))
	for i, k := range keys {
		f, err := hasher.ParseFingerprint(entries[k].PHash)
		prints[i], valid[i] = f, err == nil
	}

	for i := 0; i < len(keys); i++ {
		if !valid[i] {
			continue
		}
		for j := i + 1; j < len(keys); j++ {
			if !valid[j] || uf.find(i) == uf.find(j) {
				continue
			}
			d, err := prints[i].Distance(prints[j])
			if err != nil {
				// Different hash sizes never match.
				continue
			}
			if d <= threshold {
				uf.union(i, j)
			}
		}
	}

	members := map[int][]int{}
	for i := range keys {
		r := uf.find(i)
		members[r] = append(members[r], i)
	}

	var groups []manifest.Group
	for _, idx := range members {
		if len(idx) < 2 {
			continue
		}
		groups = append(groups, describeGroup(entries, keys, prints, valid, idx))
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Keys[0] < groups[j].Keys[0] })
	return groups
}

// describeGroup fills Exact and MaxDistance for member indices in
// ascending key order.
func describeGroup(entries map[string]manifest.Entry, keys []string, prints []hasher.Fingerprint, valid []bool, idx []int) manifest.Group {
	g := manifest.Group{Keys: make([]string, len(idx)), Exact: true}
	first := entries[keys[idx[0]]].ContentHash
	for n, i := range idx {
		g.Keys[n] = keys[i]
		if entries[keys[i]].ContentHash != first {
			g.Exact = false
		}
		if !valid[i] {
			continue
		}
		for _, j := range idx[n+1:] {
			if !valid[j] {
				continue
			}
			if d, err := prints[i].Distance(prints[j]); err == nil && d > g.MaxDistance {
				g.MaxDistance = d
			}
		}
	}
	return g
}
