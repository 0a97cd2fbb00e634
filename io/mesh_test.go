package io

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/capsid/geom"
)

const squareMesh = `points 4
0 0 0
1 0 0
0 1 0
1 1 0.5
triangles 2
0 0 1 2
1 1 3 2
`

func TestReadMesh(t *testing.T) {
	m, err := ReadMesh(strings.NewReader(squareMesh))
	require.NoError(t, err)

	assert.Equal(t, []r3.Vec{{}, {X: 1}, {Y: 1}, {X: 1, Y: 1, Z: 0.5}}, m.Vertices)
	assert.Equal(t, [][3]int{{0, 1, 2}, {1, 3, 2}}, m.Triangles)
}

func TestReadMeshErrors(t *testing.T) {
	table := []string{
		"",
		"points",
		"points -1",
		"points two",
		"points 2\n0 0 0\n1 1",
		"points 1\n0 0 x",
		"points 1\n0 0 0",
		"points 1\n0 0 0\ntriangles 1\n0 0 0",
		"points 1\n0 0 0\ntriangles 1\n0 0 0 1.5",
		"points 2\n0 0 0\n1 0 0\ntriangles 1\n0 0 1 2",
		"points 1\nNaN 0 0\ntriangles 0",
		"points 1\n0 Inf 0\ntriangles 0",
		"points 1\n0 0 -Inf\ntriangles 0",
	}

	for i, text := range table {
		_, err := ReadMesh(strings.NewReader(text))
		if !errors.Is(err, geom.ErrMalformedGeometry) {
			t.Errorf("%d) ReadMesh(%q) gave %v", i+1, text, err)
		}
	}
}

func TestReadMeshFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "mesh.inp")
	require.NoError(t, os.WriteFile(fname, []byte(squareMesh), 0644))

	m, err := ReadMeshFile(fname)
	require.NoError(t, err)
	assert.Len(t, m.Vertices, 4)

	_, err = ReadMeshFile(filepath.Join(t.TempDir(), "missing.inp"))
	assert.Error(t, err)
}

func TestReadSeeds(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "seeds.txt")
	text := "0 0 0\n1 0 0\n1 1 0.5\n"
	require.NoError(t, os.WriteFile(fname, []byte(text), 0644))

	seeds, err := ReadSeeds(fname)
	require.NoError(t, err)
	assert.Equal(t, []r3.Vec{{}, {X: 1}, {X: 1, Y: 1, Z: 0.5}}, seeds)
}
