/*package protein contains ProteinBody, the collection of point-like proteins
bound to the vertices of a static mesh, along with the pairwise energy
bookkeeping the Monte Carlo solver needs.

Proteins reference vertices by index; occupancy is a separate vertex ->
protein table, so nothing points back at anything.
*/
package protein

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/capsid/geom"
	"github.com/phil-mansfield/capsid/potential"
)

const empty = -1

var (
	// ErrOccupied is returned when two proteins would share a vertex.
	ErrOccupied = errors.New("vertex already occupied")
	// ErrOutOfRange is returned for body parameters which can't be used.
	ErrOutOfRange = errors.New("parameter out of range")
)

// Config holds the parameters of a Body.
type Config struct {
	Potential potential.Potential
	// Cutoff is the largest separation at which two proteins interact.
	Cutoff float64
	// Skin is the extra radius the neighbor list is built with. Proteins
	// can drift by a total of Skin/2 before the list has to be rebuilt.
	Skin float64
	// Index is used to build neighbor lists. nil means geom.CellList.
	Index geom.Index
}

// Flags selects which quantities Compute calculates.
type Flags struct {
	Energy, Forces, Stiffness bool
}

// Result holds the output of Compute. Fields which weren't requested are
// left zero.
type Result struct {
	Energy float64
	// Forces[i] is the force on protein i.
	Forces []r3.Vec
	// Pairs are the interacting pairs and Stiffness[k] is d^2E/dr^2 for
	// Pairs[k].
	Pairs     []geom.Pair
	Stiffness []float64
}

// Body is a set of proteins living on mesh vertices.
type Body struct {
	Config

	vertices []r3.Vec
	sites    []int
	occupant []int

	pairs     []geom.Pair
	neighbors [][]int
	built     []r3.Vec
	maxDisp   float64
	rebuilds  int

	energy float64
}

// New creates a Body with proteins on the given vertices. vertices is not
// copied and must not change while the Body is in use.
func New(vertices []r3.Vec, sites []int, con Config) (*Body, error) {
	if err := con.Potential.Check(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOutOfRange, err.Error())
	} else if !(con.Cutoff > 0) {
		return nil, fmt.Errorf(
			"%w: cutoff radius must be positive, but is %g",
			ErrOutOfRange, con.Cutoff,
		)
	} else if !(con.Skin >= 0) {
		return nil, fmt.Errorf(
			"%w: skin must be non-negative, but is %g", ErrOutOfRange, con.Skin,
		)
	}
	if con.Index == nil {
		con.Index = &geom.CellList{}
	}

	occupant := make([]int, len(vertices))
	for i := range occupant {
		occupant[i] = empty
	}
	for p, v := range sites {
		if v < 0 || v >= len(vertices) {
			return nil, fmt.Errorf(
				"%w: protein %d placed on vertex %d, but there are only %d",
				ErrOutOfRange, p, v, len(vertices),
			)
		} else if occupant[v] != empty {
			return nil, fmt.Errorf(
				"%w: proteins %d and %d both placed on vertex %d",
				ErrOccupied, occupant[v], p, v,
			)
		}
		occupant[v] = p
	}

	b := &Body{
		Config:   con,
		vertices: vertices,
		sites:    append([]int{}, sites...),
		occupant: occupant,
	}
	b.Rebuild()
	res, err := b.Compute(Flags{Energy: true})
	if err != nil {
		return nil, err
	}
	b.energy = res.Energy
	return b, nil
}

// Vertices returns the number of mesh vertices proteins can occupy.
func (b *Body) Vertices() int { return len(b.vertices) }

// Len returns the number of proteins.
func (b *Body) Len() int { return len(b.sites) }

// Site returns the vertex protein p occupies.
func (b *Body) Site(p int) int { return b.sites[p] }

// Sites returns a copy of the vertices occupied by every protein.
func (b *Body) Sites() []int { return append([]int{}, b.sites...) }

// Position returns the position of protein p.
func (b *Body) Position(p int) r3.Vec { return b.vertices[b.sites[p]] }

// Positions returns a copy of every protein's position.
func (b *Body) Positions() []r3.Vec {
	xs := make([]r3.Vec, len(b.sites))
	for p, v := range b.sites {
		xs[p] = b.vertices[v]
	}
	return xs
}

// Occupant returns the protein on vertex v and true, or false if the vertex
// is empty.
func (b *Body) Occupant(v int) (int, bool) {
	p := b.occupant[v]
	return p, p != empty
}

// Energy returns the cached total interaction energy.
func (b *Body) Energy() float64 { return b.energy }

// Rebuilds returns the number of times the neighbor list has been built.
func (b *Body) Rebuilds() int { return b.rebuilds }

// Rebuild recomputes the neighbor list from the current positions. It does
// not change the cached energy.
func (b *Body) Rebuild() {
	xs := b.Positions()
	b.pairs = b.Index.Pairs(xs, b.Cutoff+b.Skin)

	if cap(b.neighbors) < len(xs) {
		b.neighbors = make([][]int, len(xs))
	}
	b.neighbors = b.neighbors[:len(xs)]
	for i := range b.neighbors {
		b.neighbors[i] = b.neighbors[i][:0]
	}
	for _, pr := range b.pairs {
		b.neighbors[pr.I] = append(b.neighbors[pr.I], pr.J)
		b.neighbors[pr.J] = append(b.neighbors[pr.J], pr.I)
	}

	b.built = xs
	b.maxDisp = 0
	b.rebuilds++
}

// fresh rebuilds the neighbor list if two proteins could have drifted into
// range of each other without appearing in it.
func (b *Body) fresh() {
	if 2*b.maxDisp > b.Skin {
		b.Rebuild()
	}
}

// Compute recalculates the quantities selected by flags over every
// interacting pair. Requesting the energy also resets the cached energy,
// which clears any accumulated round-off.
func (b *Body) Compute(flags Flags) (Result, error) {
	b.fresh()

	res := Result{}
	if flags.Forces {
		res.Forces = make([]r3.Vec, len(b.sites))
	}

	for _, pr := range b.pairs {
		xi, xj := b.Position(pr.I), b.Position(pr.J)
		dx := r3.Sub(xi, xj)
		r := r3.Norm(dx)
		if r > b.Cutoff {
			continue
		} else if r == 0 {
			return Result{}, fmt.Errorf(
				"%w: proteins %d and %d", potential.ErrCoincident, pr.I, pr.J,
			)
		}

		if flags.Energy {
			res.Energy += b.Potential.Energy(r)
		}
		if flags.Forces {
			f := r3.Scale(-b.Potential.Derivative(r)/r, dx)
			res.Forces[pr.I] = r3.Add(res.Forces[pr.I], f)
			res.Forces[pr.J] = r3.Sub(res.Forces[pr.J], f)
		}
		if flags.Stiffness {
			res.Pairs = append(res.Pairs, pr)
			res.Stiffness = append(res.Stiffness, b.Potential.SecondDerivative(r))
		}
	}

	if flags.Energy {
		b.energy = res.Energy
	}
	return res, nil
}

// Delta returns the change in total energy if protein p moved to vertex
// dest. Only p's own interactions are summed.
func (b *Body) Delta(p, dest int) (float64, error) {
	if _, ok := b.Occupant(dest); ok {
		return 0, fmt.Errorf(
			"%w: can't move protein %d to vertex %d", ErrOccupied, p, dest,
		)
	}

	to := b.vertices[dest]

	// The skin is narrower than this hop, so no list could be trusted, even
	// one rebuilt right now.
	if r3.Norm(r3.Sub(to, b.Position(p))) > b.Skin {
		return b.exactDelta(p, dest)
	}

	disp := r3.Norm(r3.Sub(to, b.built[p]))
	if disp+b.maxDisp > b.Skin || 2*b.maxDisp > b.Skin {
		b.Rebuild()
	}

	before, err := b.sum(p, b.Position(p), b.neighbors[p])
	if err != nil {
		return 0, err
	}
	after, err := b.sum(p, to, b.neighbors[p])
	if err != nil {
		return 0, err
	}
	return after - before, nil
}

func (b *Body) exactDelta(p, dest int) (float64, error) {
	all := make([]int, 0, len(b.sites))
	for q := range b.sites {
		all = append(all, q)
	}
	before, err := b.sum(p, b.Position(p), all)
	if err != nil {
		return 0, err
	}
	after, err := b.sum(p, b.vertices[dest], all)
	if err != nil {
		return 0, err
	}
	return after - before, nil
}

// sum returns the energy between a protein p placed at x and each protein in
// others.
func (b *Body) sum(p int, x r3.Vec, others []int) (float64, error) {
	e := 0.0
	for _, q := range others {
		if q == p {
			continue
		}
		r := r3.Norm(r3.Sub(x, b.Position(q)))
		if r > b.Cutoff {
			continue
		} else if r == 0 {
			return 0, fmt.Errorf(
				"%w: proteins %d and %d", potential.ErrCoincident, p, q,
			)
		}
		e += b.Potential.Energy(r)
	}
	return e, nil
}

// Move commits a move of protein p to vertex dest which changes the total
// energy by dE, as computed by Delta. It is the only way the configuration
// of a Body changes and should only be called by the solver driving it.
func (b *Body) Move(p, dest int, dE float64) error {
	if q, ok := b.Occupant(dest); ok {
		return fmt.Errorf(
			"%w: vertex %d holds protein %d", ErrOccupied, dest, q,
		)
	}

	b.occupant[b.sites[p]] = empty
	b.occupant[dest] = p
	b.sites[p] = dest
	b.energy += dE

	b.maxDisp = math.Max(b.maxDisp, r3.Norm(r3.Sub(b.vertices[dest], b.built[p])))
	return nil
}

// ExactEnergy returns the total energy computed by checking every pair of
// proteins. It doesn't touch the neighbor list or the cached energy.
func (b *Body) ExactEnergy() float64 {
	e := 0.0
	for i := range b.sites {
		for j := i + 1; j < len(b.sites); j++ {
			r := r3.Norm(r3.Sub(b.Position(i), b.Position(j)))
			if r <= b.Cutoff {
				e += b.Potential.Energy(r)
			}
		}
	}
	return e
}
