/*package geom contains the static geometry proteins live on: the triangulated
surface mesh, the host table derived from its connectivity, and the spatial
indices used to find interacting pairs.
*/
package geom

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrMalformedGeometry is returned when a mesh's connectivity doesn't agree
// with its vertex list.
var ErrMalformedGeometry = errors.New("malformed geometry")

// Mesh is a triangulated surface. Vertices are addressed by their index in
// Vertices and are never moved once a run starts.
type Mesh struct {
	Vertices  []r3.Vec
	Triangles [][3]int
}

// Check returns an error wrapping ErrMalformedGeometry if any vertex has a
// non-finite coordinate or any triangle references a vertex which doesn't
// exist.
func (m *Mesh) Check() error {
	n := len(m.Vertices)
	for i, v := range m.Vertices {
		if !finite(v) {
			return fmt.Errorf(
				"%w: vertex %d is at %v", ErrMalformedGeometry, i, v,
			)
		}
	}
	for i, tri := range m.Triangles {
		for _, v := range tri {
			if v < 0 || v >= n {
				return fmt.Errorf(
					"%w: triangle %d references vertex %d, but there are "+
						"only %d vertices", ErrMalformedGeometry, i, v, n,
				)
			}
		}
	}
	return nil
}

func finite(v r3.Vec) bool {
	for _, x := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Scale multiplies every vertex position by f. This is how a vessel is
// inflated or deflated before the run.
func (m *Mesh) Scale(f float64) {
	for i := range m.Vertices {
		m.Vertices[i] = r3.Scale(f, m.Vertices[i])
	}
}

// LongestEdge returns the length of the longest triangle edge.
func (m *Mesh) LongestEdge() float64 {
	max := 0.0
	for _, tri := range m.Triangles {
		for j := 0; j < 3; j++ {
			a, b := m.Vertices[tri[j]], m.Vertices[tri[(j+1)%3]]
			if d := r3.Norm(r3.Sub(a, b)); d > max {
				max = d
			}
		}
	}
	return max
}

// MeanEdge returns the average triangle edge length, counting shared edges
// once per triangle.
func (m *Mesh) MeanEdge() float64 {
	if len(m.Triangles) == 0 {
		return 0
	}
	sum := 0.0
	for _, tri := range m.Triangles {
		for j := 0; j < 3; j++ {
			a, b := m.Vertices[tri[j]], m.Vertices[tri[(j+1)%3]]
			sum += r3.Norm(r3.Sub(a, b))
		}
	}
	return sum / float64(3*len(m.Triangles))
}

// Icosahedron returns a unit-circumradius icosahedron: 12 vertices and 20
// faces. It's mostly useful for tests and examples.
func Icosahedron() *Mesh {
	phi := (1 + math.Sqrt(5)) / 2
	raw := []r3.Vec{
		{X: -1, Y: phi}, {X: 1, Y: phi}, {X: -1, Y: -phi}, {X: 1, Y: -phi},
		{Y: -1, Z: phi}, {Y: 1, Z: phi}, {Y: -1, Z: -phi}, {Y: 1, Z: -phi},
		{X: phi, Z: -1}, {X: phi, Z: 1}, {X: -phi, Z: -1}, {X: -phi, Z: 1},
	}
	norm := r3.Norm(raw[0])
	for i := range raw {
		raw[i] = r3.Scale(1/norm, raw[i])
	}

	return &Mesh{
		Vertices: raw,
		Triangles: [][3]int{
			{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
			{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
			{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
			{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
		},
	}
}
