/*package potential contains the isotropic pair potentials which proteins
interact through.

Only two forms are supported, so a potential is a closed tagged value rather
than an interface: a Kind and the three constants that parameterize it.
*/
package potential

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrCoincident is returned when a potential is evaluated for two particles
// sitting on top of one another. The mover never places two particles on the
// same vertex, so seeing this means something upstream is broken.
var ErrCoincident = errors.New("coincident particles")

// Kind identifies the functional form of a potential.
type Kind int

const (
	LennardJones Kind = iota
	Morse
)

func (k Kind) String() string {
	switch k {
	case LennardJones:
		return "LennardJones"
	case Morse:
		return "Morse"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Parse returns the Kind corresponding to a configuration string. Matching is
// case-insensitive and ignores dashes, so "Lennard-Jones" and "lj" both work.
func Parse(name string) (Kind, error) {
	switch strings.ToLower(strings.Replace(name, "-", "", -1)) {
	case "lennardjones", "lj":
		return LennardJones, nil
	case "morse":
		return Morse, nil
	}
	return 0, fmt.Errorf(
		"Unrecognized potential '%s'. Accepted values are 'LennardJones' "+
			"and 'Morse'.", name,
	)
}

// Params are the physical constants of a potential. Shift is only used by
// Morse potentials.
type Params struct {
	Epsilon, Sigma, Shift float64
}

// Potential is a pairwise energy function of separation only.
type Potential struct {
	Kind
	Params
}

// New returns a Potential of the given kind.
func New(k Kind, p Params) Potential {
	return Potential{Kind: k, Params: p}
}

// NewLennardJones returns a 12-6 Lennard-Jones potential with well depth
// epsilon and length scale sigma.
func NewLennardJones(epsilon, sigma float64) Potential {
	return New(LennardJones, Params{Epsilon: epsilon, Sigma: sigma})
}

// NewMorse returns a Morse potential with well depth epsilon, inverse width
// sigma and equilibrium separation shift.
func NewMorse(epsilon, sigma, shift float64) Potential {
	return New(Morse, Params{Epsilon: epsilon, Sigma: sigma, Shift: shift})
}

// Energy returns the interaction energy at separation r. r = 0 gives +Inf.
func (p Potential) Energy(r float64) float64 {
	if r == 0 {
		return math.Inf(+1)
	}

	switch p.Kind {
	case LennardJones:
		s6 := math.Pow(p.Sigma/r, 6)
		return 4 * p.Epsilon * (s6*s6 - s6)
	case Morse:
		e := math.Exp(-p.Sigma * (r - p.Shift))
		return p.Epsilon * (e*e - 2*e)
	}
	panic("Impossible")
}

// Derivative returns dE/dr at separation r.
func (p Potential) Derivative(r float64) float64 {
	if r == 0 {
		return math.Inf(-1)
	}

	switch p.Kind {
	case LennardJones:
		s6 := math.Pow(p.Sigma/r, 6)
		return 24 * p.Epsilon * (s6 - 2*s6*s6) / r
	case Morse:
		e := math.Exp(-p.Sigma * (r - p.Shift))
		return 2 * p.Epsilon * p.Sigma * (e - e*e)
	}
	panic("Impossible")
}

// SecondDerivative returns d^2E/dr^2 at separation r.
func (p Potential) SecondDerivative(r float64) float64 {
	if r == 0 {
		return math.Inf(+1)
	}

	switch p.Kind {
	case LennardJones:
		s6 := math.Pow(p.Sigma/r, 6)
		return 24 * p.Epsilon * (26*s6*s6 - 7*s6) / (r * r)
	case Morse:
		e := math.Exp(-p.Sigma * (r - p.Shift))
		return 2 * p.Epsilon * p.Sigma * p.Sigma * (2*e*e - e)
	}
	panic("Impossible")
}

// Equilibrium returns the separation at which the potential is minimized.
func (p Potential) Equilibrium() float64 {
	if p.Kind == LennardJones {
		return math.Pow(2, 1.0/6) * p.Sigma
	}
	return p.Shift
}

// PairEnergy returns the energy between particles at a and b.
func (p Potential) PairEnergy(a, b r3.Vec) (float64, error) {
	r := r3.Norm(r3.Sub(a, b))
	if r == 0 {
		return 0, fmt.Errorf("%w at %v", ErrCoincident, a)
	}
	return p.Energy(r), nil
}

// Check returns an error if the parameters can't describe a physical
// potential.
func (p Potential) Check() error {
	if p.Kind != LennardJones && p.Kind != Morse {
		return fmt.Errorf("Unknown potential kind %d.", int(p.Kind))
	}
	if p.Epsilon < 0 {
		return fmt.Errorf("Epsilon must be non-negative, but is %g.", p.Epsilon)
	} else if p.Sigma <= 0 {
		return fmt.Errorf("Sigma must be positive, but is %g.", p.Sigma)
	} else if p.Kind == Morse && p.Shift < 0 {
		return fmt.Errorf("Shift must be non-negative, but is %g.", p.Shift)
	}
	return nil
}
