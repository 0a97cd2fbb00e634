package protein

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

// Match returns the vertices which lie within tol of a seed position, in
// vertex order. Each seed claims at most one vertex. unmatched is the number
// of seeds which didn't find one.
func Match(vertices, seeds []r3.Vec, tol float64) (sites []int, unmatched int) {
	used := make([]bool, len(seeds))
	sites = []int{}
	for v, x := range vertices {
		for k, s := range seeds {
			if !used[k] && r3.Norm(r3.Sub(s, x)) < tol {
				sites = append(sites, v)
				used[k] = true
				break
			}
		}
	}
	return sites, len(seeds) - len(sites)
}

// Prefix places a protein on each of the first n vertices.
func Prefix(vertices, n int) []int {
	if n > vertices {
		n = vertices
	}
	sites := make([]int, n)
	for i := range sites {
		sites[i] = i
	}
	return sites
}

// Sample walks through the vertex list placing proteins separated by a
// random number of vertices in [1, nodesPerProtein], until max proteins have
// been placed or the vertices run out. Vertex 0 is always occupied if
// max > 0.
func Sample(vertices, max, nodesPerProtein int, gen *rand.Rand) []int {
	if nodesPerProtein < 1 {
		nodesPerProtein = 1
	}
	sites := []int{}
	for v := 0; v < vertices && len(sites) < max; {
		sites = append(sites, v)
		v += gen.Intn(nodesPerProtein) + 1
	}
	return sites
}
