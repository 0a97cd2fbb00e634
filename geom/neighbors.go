package geom

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Pair is an unordered pair of point indices, stored with I < J.
type Pair struct {
	I, J int
}

// Index finds every pair of points separated by no more than r. Indices are
// acceleration structures: each implementation returns exactly the pairs a
// brute force search would, sorted by (I, J).
type Index interface {
	Pairs(xs []r3.Vec, r float64) []Pair
}

// BruteForce checks every pair of points. It's the reference the other
// indices are tested against and is perfectly fine for a few hundred points.
type BruteForce struct{}

// Pairs implements Index.
func (BruteForce) Pairs(xs []r3.Vec, r float64) []Pair {
	pairs := []Pair{}
	r2 := r * r
	for i := range xs {
		for j := i + 1; j < len(xs); j++ {
			if r3.Norm2(r3.Sub(xs[i], xs[j])) <= r2 {
				pairs = append(pairs, Pair{i, j})
			}
		}
	}
	return pairs
}

// NewIndex returns the Index with the given configuration name. The empty
// string gives a CellList.
func NewIndex(name string) (Index, error) {
	switch strings.ToLower(name) {
	case "", "celllist", "cells":
		return &CellList{}, nil
	case "kdtree":
		return KDTree{}, nil
	case "bruteforce":
		return BruteForce{}, nil
	}
	return nil, fmt.Errorf(
		"Unrecognized neighbor method '%s'. Accepted values are 'CellList', "+
			"'KDTree', and 'BruteForce'.", name,
	)
}

// SortPairs sorts pairs by I, then by J.
func SortPairs(ps []Pair) {
	sort.Slice(ps, func(a, b int) bool {
		if ps[a].I != ps[b].I {
			return ps[a].I < ps[b].I
		}
		return ps[a].J < ps[b].J
	})
}
