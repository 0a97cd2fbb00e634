package io

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/capsid/anneal"
	"github.com/phil-mansfield/capsid/geom"
)

// VTKWriter writes every snapshot to its own legacy VTK file,
// <prefix>iter<n>.vtk. Proteins are written as vertices, and proteins closer
// than the connectivity radius are joined by lines. The mesh itself is written
// once, to <prefix>mesh.vtk, alongside the first snapshot.
type VTKWriter struct {
	prefix string
	mesh   *geom.Mesh
	radius float64
	bonds  geom.CellList

	wroteMesh bool
}

// NewVTKWriter returns a VTKWriter for proteins living on m. A radius of zero
// turns off bonds.
func NewVTKWriter(prefix string, m *geom.Mesh, radius float64) *VTKWriter {
	return &VTKWriter{prefix: prefix, mesh: m, radius: radius}
}

// SnapshotFile returns the name of the file that the snapshot at the given
// iteration is written to.
func (w *VTKWriter) SnapshotFile(iter int) string {
	return fmt.Sprintf("%siter%d.vtk", w.prefix, iter)
}

// MeshFile returns the name of the file that the mesh is written to.
func (w *VTKWriter) MeshFile() string {
	return w.prefix + "mesh.vtk"
}

// Write implements anneal.Writer.
func (w *VTKWriter) Write(snap *anneal.Snapshot) error {
	if !w.wroteMesh && w.mesh != nil {
		err := writeFile(w.MeshFile(), func(wr io.Writer) error {
			return WriteMeshVTK(wr, w.mesh)
		})
		if err != nil {
			return err
		}
		w.wroteMesh = true
	}

	var bonds []geom.Pair
	if w.radius > 0 {
		bonds = w.bonds.Pairs(snap.Positions, w.radius)
	}
	return writeFile(w.SnapshotFile(snap.Iteration), func(wr io.Writer) error {
		return WriteSnapshotVTK(wr, snap, bonds)
	})
}

// Close implements anneal.Writer.
func (w *VTKWriter) Close() error { return nil }

func writeFile(fname string, write func(io.Writer) error) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	buf := bufio.NewWriter(f)
	if err = write(buf); err == nil {
		err = buf.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("Could not write '%s': %w", fname, err)
	}
	return nil
}

// WriteSnapshotVTK writes a snapshot as legacy ASCII VTK poly data. Each
// protein carries the index of the vertex it occupies as point data.
func WriteSnapshotVTK(wr io.Writer, snap *anneal.Snapshot, bonds []geom.Pair) error {
	n := len(snap.Positions)
	title := fmt.Sprintf(
		"iteration %d, T = %g, E = %g", snap.Iteration, snap.Temperature, snap.Energy,
	)
	writePoints(wr, title, snap.Positions)

	fmt.Fprintf(wr, "VERTICES %d %d\n", n, 2*n)
	for i := 0; i < n; i++ {
		fmt.Fprintf(wr, "1 %d\n", i)
	}

	if len(bonds) > 0 {
		fmt.Fprintf(wr, "LINES %d %d\n", len(bonds), 3*len(bonds))
		for _, b := range bonds {
			fmt.Fprintf(wr, "2 %d %d\n", b.I, b.J)
		}
	}

	fmt.Fprintf(wr, "POINT_DATA %d\n", n)
	fmt.Fprintln(wr, "SCALARS vertex int 1")
	fmt.Fprintln(wr, "LOOKUP_TABLE default")
	for _, v := range snap.Sites {
		if _, err := fmt.Fprintf(wr, "%d\n", v); err != nil {
			return err
		}
	}
	return nil
}

// WriteMeshVTK writes the triangles of m as legacy ASCII VTK poly data.
func WriteMeshVTK(wr io.Writer, m *geom.Mesh) error {
	writePoints(wr, "mesh", m.Vertices)
	fmt.Fprintf(wr, "POLYGONS %d %d\n", len(m.Triangles), 4*len(m.Triangles))
	for _, t := range m.Triangles {
		if _, err := fmt.Fprintf(wr, "3 %d %d %d\n", t[0], t[1], t[2]); err != nil {
			return err
		}
	}
	return nil
}

func writePoints(wr io.Writer, title string, xs []r3.Vec) {
	fmt.Fprintln(wr, "# vtk DataFile Version 3.0")
	fmt.Fprintln(wr, title)
	fmt.Fprintln(wr, "ASCII")
	fmt.Fprintln(wr, "DATASET POLYDATA")
	fmt.Fprintf(wr, "POINTS %d double\n", len(xs))
	for _, x := range xs {
		fmt.Fprintf(wr, "%.10g %.10g %.10g\n", x.X, x.Y, x.Z)
	}
}
