package io

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/capsid/geom"
)

// ReadMeshFile reads a mesh from the given file. See ReadMesh.
func ReadMeshFile(fname string) (*geom.Mesh, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := ReadMesh(f)
	if err != nil {
		return nil, fmt.Errorf("Could not read mesh '%s': %w", fname, err)
	}
	return m, nil
}

// ReadMesh reads a whitespace separated mesh: a token, the number of points,
// three coordinates per point, another token, the number of triangles, and
// then an id followed by three vertex indices per triangle. Any counts which
// don't agree with the data that follows give a geom.ErrMalformedGeometry.
func ReadMesh(r io.Reader) (*geom.Mesh, error) {
	s := &tokens{sc: bufio.NewScanner(r)}
	s.sc.Split(bufio.ScanWords)

	s.word("point header")
	npts := s.count("point count")

	// Counts come from the file, so they only size the first allocation.
	m := &geom.Mesh{
		Vertices: make([]r3.Vec, 0, capHint(npts)),
	}
	for i := 0; i < npts && s.err == nil; i++ {
		m.Vertices = append(m.Vertices, r3.Vec{
			X: s.number("point coordinate"),
			Y: s.number("point coordinate"),
			Z: s.number("point coordinate"),
		})
	}

	s.word("triangle header")
	ntri := s.count("triangle count")
	m.Triangles = make([][3]int, 0, capHint(ntri))
	for i := 0; i < ntri && s.err == nil; i++ {
		s.integer("triangle id")
		var tri [3]int
		for j := 0; j < 3; j++ {
			tri[j] = s.integer("triangle vertex")
		}
		m.Triangles = append(m.Triangles, tri)
	}

	if s.err != nil {
		return nil, s.err
	}
	if err := m.Check(); err != nil {
		return nil, err
	}
	return m, nil
}

func capHint(n int) int {
	if n > 1<<20 {
		return 1 << 20
	}
	return n
}

// tokens reads a stream of words, remembering the first error it sees.
type tokens struct {
	sc  *bufio.Scanner
	n   int
	err error
}

func (s *tokens) word(what string) string {
	if s.err != nil {
		return ""
	}
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			s.err = err
		} else {
			s.err = fmt.Errorf(
				"%w: file ended while reading %s (token %d)",
				geom.ErrMalformedGeometry, what, s.n+1,
			)
		}
		return ""
	}
	s.n++
	return s.sc.Text()
}

func (s *tokens) integer(what string) int {
	w := s.word(what)
	if s.err != nil {
		return 0
	}
	x, err := strconv.Atoi(w)
	if err != nil {
		s.err = fmt.Errorf(
			"%w: %s '%s' (token %d) isn't an integer",
			geom.ErrMalformedGeometry, what, w, s.n,
		)
	}
	return x
}

func (s *tokens) count(what string) int {
	n := s.integer(what)
	if s.err == nil && n < 0 {
		s.err = fmt.Errorf(
			"%w: negative %s %d", geom.ErrMalformedGeometry, what, n,
		)
	}
	return n
}

func (s *tokens) number(what string) float64 {
	w := s.word(what)
	if s.err != nil {
		return 0
	}
	x, err := strconv.ParseFloat(w, 64)
	if err != nil {
		s.err = fmt.Errorf(
			"%w: %s '%s' (token %d) isn't a number",
			geom.ErrMalformedGeometry, what, w, s.n,
		)
	} else if math.IsNaN(x) || math.IsInf(x, 0) {
		s.err = fmt.Errorf(
			"%w: %s '%s' (token %d) isn't finite",
			geom.ErrMalformedGeometry, what, w, s.n,
		)
	}
	return x
}
