package geom

import (
	"sort"
)

// HostTable maps every mesh vertex to the vertices a protein sitting on it
// may hop to: every vertex it shares a triangle with. It is built once from
// the triangle list and never modified.
type HostTable struct {
	hosts [][]int
}

// NewHostTable builds the host table for n vertices in a single pass over
// the triangle list. A vertex only lists itself if a degenerate triangle
// repeats it.
func NewHostTable(n int, tris [][3]int) *HostTable {
	sets := make([]map[int]struct{}, n)
	for _, tri := range tris {
		for j := 0; j < 3; j++ {
			v := tri[j]
			if sets[v] == nil {
				sets[v] = make(map[int]struct{}, 8)
			}
			for k := 1; k < 3; k++ {
				sets[v][tri[(j+k)%3]] = struct{}{}
			}
		}
	}

	ht := &HostTable{hosts: make([][]int, n)}
	for v, set := range sets {
		if len(set) == 0 {
			continue
		}
		hs := make([]int, 0, len(set))
		for u := range set {
			hs = append(hs, u)
		}
		sort.Ints(hs)
		ht.hosts[v] = hs
	}
	return ht
}

// Hosts returns the candidate destinations of vertex v. The returned slice
// must not be modified.
func (ht *HostTable) Hosts(v int) []int { return ht.hosts[v] }

// Len returns the number of vertices in the table.
func (ht *HostTable) Len() int { return len(ht.hosts) }

// Degenerate returns the vertices which have no hosts at all. Proteins
// parked on these can never move.
func (ht *HostTable) Degenerate() []int {
	out := []int{}
	for v, hs := range ht.hosts {
		if len(hs) == 0 {
			out = append(out, v)
		}
	}
	return out
}
