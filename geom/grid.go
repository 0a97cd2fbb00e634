package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Grid provides an interface for reasoning over a 1D slice as if it were a
// 3D grid.
type Grid struct {
	Origin, Width [3]int
	Length, Area, Volume int
	uBounds [3]int
}

// Init initializes a Grid instance.
func (g *Grid) Init(origin [3]int, width [3]int) {
	g.Origin = origin
	g.Width = width

	g.Length = width[0]
	g.Area = width[0] * width[1]
	g.Volume = width[0] * width[1] * width[2]

	for i := 0; i < 3; i++ {
		g.uBounds[i] = g.Origin[i] + g.Width[i]
	}
}

// Idx returns the grid index corresponding to a set of coordinates.
func (g *Grid) Idx(x, y, z int) int {
	return ((x - g.Origin[0]) + (y-g.Origin[1])*g.Length +
		(z-g.Origin[2])*g.Area)
}

// IdxCheck returns an index and true if the given coordinate are valid and
// false otherwise.
func (g *Grid) IdxCheck(x, y, z int) (idx int, ok bool) {
	if !g.BoundsCheck(x, y, z) {
		return -1, false
	}

	return g.Idx(x, y, z), true
}

// BoundsCheck returns true if the given coordinates are within the Grid and
// false otherwise.
func (g *Grid) BoundsCheck(x, y, z int) bool {
	return (g.Origin[0] <= x && g.Origin[1] <= y && g.Origin[2] <= z) &&
		(x < g.uBounds[0] && y < g.uBounds[1] &&
			z < g.uBounds[2])
}

// Coords returns the x, y, z coordinates of a point from its grid index.
func (g *Grid) Coords(idx int) (x, y, z int) {
	x = idx%g.Length + g.Origin[0]
	y = (idx%g.Area)/g.Length + g.Origin[1]
	z = idx/g.Area + g.Origin[2]
	return x, y, z
}

// CellList finds pairs by bucketing points into cubic cells at least as wide
// as the search radius, so that every partner of a point lies in one of the
// 27 cells around it.
type CellList struct {
	// MaxCellsPerPoint bounds the size of the grid for sparse point sets.
	// Cells are widened until the grid fits. Zero means 8.
	MaxCellsPerPoint int

	g          Grid
	head, next []int
	cellOf     []int
}

// Pairs implements Index.
func (cl *CellList) Pairs(xs []r3.Vec, r float64) []Pair {
	if len(xs) < 2 || r <= 0 {
		return []Pair{}
	}

	// Points at NaN or infinity can't be binned.
	for _, x := range xs {
		if !finite(x) {
			return BruteForce{}.Pairs(xs, r)
		}
	}

	min, max := bounds(xs)
	width := cl.cellWidth(min, max, r, len(xs))
	cl.bin(xs, min, width)

	r2 := r * r
	pairs := []Pair{}
	for i := range xs {
		cx, cy, cz := cl.g.Coords(cl.cellOf[i])
		for dz := -1; dz <= 1; dz++ {
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					c, ok := cl.g.IdxCheck(cx+dx, cy+dy, cz+dz)
					if !ok {
						continue
					}
					for j := cl.head[c]; j != -1; j = cl.next[j] {
						if j <= i {
							continue
						}
						if r3.Norm2(r3.Sub(xs[i], xs[j])) <= r2 {
							pairs = append(pairs, Pair{i, j})
						}
					}
				}
			}
		}
	}

	SortPairs(pairs)
	return pairs
}

// cellWidth returns a cell width no smaller than r which keeps the grid
// within the configured number of cells per point.
func (cl *CellList) cellWidth(min, max r3.Vec, r float64, n int) float64 {
	perPoint := cl.MaxCellsPerPoint
	if perPoint <= 0 {
		perPoint = 8
	}
	limit := float64(perPoint*n + 27)

	width := r
	for {
		cells := 1.0
		for _, span := range []float64{max.X - min.X, max.Y - min.Y, max.Z - min.Z} {
			cells *= math.Floor(span/width) + 1
		}
		if cells <= limit {
			return width
		}
		width *= math.Cbrt(cells / limit) * 1.01
	}
}

func (cl *CellList) bin(xs []r3.Vec, min r3.Vec, width float64) {
	idx := func(x float64) int { return int(math.Floor(x / width)) }

	var dims [3]int
	for i := range xs {
		d := r3.Sub(xs[i], min)
		c := [3]int{idx(d.X), idx(d.Y), idx(d.Z)}
		for k := 0; k < 3; k++ {
			if c[k]+1 > dims[k] {
				dims[k] = c[k] + 1
			}
		}
	}
	cl.g.Init([3]int{0, 0, 0}, dims)

	cl.head = resize(cl.head, cl.g.Volume)
	cl.next = resize(cl.next, len(xs))
	cl.cellOf = resize(cl.cellOf, len(xs))
	for i := range cl.head {
		cl.head[i] = -1
	}

	for i := range xs {
		d := r3.Sub(xs[i], min)
		c := cl.g.Idx(idx(d.X), idx(d.Y), idx(d.Z))
		cl.cellOf[i] = c
		cl.next[i] = cl.head[c]
		cl.head[c] = i
	}
}

func bounds(xs []r3.Vec) (min, max r3.Vec) {
	min, max = xs[0], xs[0]
	for _, x := range xs[1:] {
		min.X, max.X = fMinMax(min.X, max.X, x.X)
		min.Y, max.Y = fMinMax(min.Y, max.Y, x.Y)
		min.Z, max.Z = fMinMax(min.Z, max.Z, x.Z)
	}
	return min, max
}

func fMinMax(min, max, x float64) (float64, float64) {
	if x < min {
		return x, max
	}
	if x > max {
		return min, x
	}
	return min, max
}

func resize(xs []int, n int) []int {
	if cap(xs) < n {
		return make([]int, n)
	}
	return xs[:n]
}
