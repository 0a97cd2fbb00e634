package io

import (
	"fmt"

	"github.com/phil-mansfield/table"
	"gonum.org/v1/gonum/spatial/r3"
)

// ReadSeeds reads the first three columns of a whitespace-separated table as
// x, y, z positions. The file has no header line.
func ReadSeeds(fname string) ([]r3.Vec, error) {
	cols, err := table.ReadTable(fname, []int{0, 1, 2}, nil)
	if err != nil {
		return nil, fmt.Errorf("Could not read seeds '%s': %w", fname, err)
	}

	xs, ys, zs := cols[0], cols[1], cols[2]
	seeds := make([]r3.Vec, len(xs))
	for i := range seeds {
		seeds[i] = r3.Vec{X: xs[i], Y: ys[i], Z: zs[i]}
	}
	return seeds, nil
}
