package geom

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// KDTree finds pairs with radius queries against a gonum k-d tree. It's
// slower than CellList for the dense, nearly uniform layouts proteins form on
// a surface, but doesn't care how spread out the points are.
type KDTree struct{}

// Pairs implements Index.
func (KDTree) Pairs(xs []r3.Vec, r float64) []Pair {
	if len(xs) < 2 || r <= 0 {
		return []Pair{}
	}

	pts := make(kdPoints, len(xs))
	for i := range xs {
		pts[i] = kdPoint{xs[i], i}
	}
	// kdtree.New reorders its argument.
	tree := kdtree.New(append(kdPoints{}, pts...), false)

	// Distances are squared, so the keeper's radius is too.
	r2 := r * r
	pairs := []Pair{}
	for i := range pts {
		keep := kdtree.NewDistKeeper(r2)
		tree.NearestSet(keep, pts[i])
		for _, c := range keep.Heap {
			if c.Comparable == nil {
				continue
			}
			j := c.Comparable.(kdPoint).id
			if j > i && c.Dist <= r2 {
				pairs = append(pairs, Pair{i, j})
			}
		}
	}

	SortPairs(pairs)
	return pairs
}

type kdPoint struct {
	r3.Vec
	id int
}

func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(kdPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	}
	panic("Impossible")
}

func (p kdPoint) Dims() int { return 3 }

func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(p.Vec, c.(kdPoint).Vec))
}

type kdPoints []kdPoint

func (ps kdPoints) Index(i int) kdtree.Comparable { return ps[i] }
func (ps kdPoints) Len() int                      { return len(ps) }
func (ps kdPoints) Pivot(d kdtree.Dim) int {
	return kdPlane{Dim: d, kdPoints: ps}.Pivot()
}
func (ps kdPoints) Slice(start, end int) kdtree.Interface {
	return ps[start:end]
}

// kdPlane sorts points along a single dimension.
type kdPlane struct {
	kdtree.Dim
	kdPoints
}

func (p kdPlane) Less(i, j int) bool {
	return p.kdPoints[i].Compare(p.kdPoints[j], p.Dim) < 0
}
func (p kdPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.kdPoints = p.kdPoints[start:end]
	return p
}
func (p kdPlane) Swap(i, j int) {
	p.kdPoints[i], p.kdPoints[j] = p.kdPoints[j], p.kdPoints[i]
}
