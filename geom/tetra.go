package geom

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Tetra is a tetrahedron given by its four corners.
type Tetra struct {
	Corners [4]r3.Vec
}

// SignedVolume returns the volume of t. It's positive when the edges running
// from the first corner to the other three form a right-handed set.
func (t *Tetra) SignedVolume() float64 {
	c := &t.Corners
	a, b, d := r3.Sub(c[1], c[0]), r3.Sub(c[2], c[0]), r3.Sub(c[3], c[0])
	return r3.Dot(a, r3.Cross(b, d)) / 6
}

// cone returns the tetrahedron joining triangle i to the centroid of the
// vertices.
func (m *Mesh) cone(i int, centroid r3.Vec) *Tetra {
	tri := m.Triangles[i]
	return &Tetra{[4]r3.Vec{
		centroid, m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]],
	}}
}

// Centroid returns the mean vertex position.
func (m *Mesh) Centroid() r3.Vec {
	sum := r3.Vec{}
	if len(m.Vertices) == 0 {
		return sum
	}
	for _, v := range m.Vertices {
		sum = r3.Add(sum, v)
	}
	return r3.Scale(1/float64(len(m.Vertices)), sum)
}

// Volume returns the volume enclosed by a closed mesh whose triangles are
// wound counter-clockwise when seen from outside. Clockwise meshes give a
// negative volume, and the result means little for open surfaces.
func (m *Mesh) Volume() float64 {
	c := m.Centroid()
	vol := 0.0
	for i := range m.Triangles {
		vol += m.cone(i, c).SignedVolume()
	}
	return vol
}

// Area returns the total area of the mesh's triangles.
func (m *Mesh) Area() float64 {
	area := 0.0
	for _, tri := range m.Triangles {
		a := r3.Sub(m.Vertices[tri[1]], m.Vertices[tri[0]])
		b := r3.Sub(m.Vertices[tri[2]], m.Vertices[tri[0]])
		area += r3.Norm(r3.Cross(a, b)) / 2
	}
	return area
}
