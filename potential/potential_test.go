package potential

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func almostEq(x, y, eps float64) bool {
	return math.Abs(x-y) <= eps*math.Max(1, math.Abs(y))
}

func TestMinimum(t *testing.T) {
	table := []struct {
		p     Potential
		rMin  float64
		depth float64
	}{
		{NewLennardJones(1, 1), math.Pow(2, 1.0/6), -1},
		{NewLennardJones(2.5, 0.5), 0.5 * math.Pow(2, 1.0/6), -2.5},
		{NewMorse(1, 1, 1), 1, -1},
		{NewMorse(0.0023, 3.4657, 0.2), 0.2, -0.0023},
	}

	for i, test := range table {
		r := test.p.Equilibrium()
		if !almostEq(r, test.rMin, 1e-12) {
			t.Errorf("%d) Equilibrium() = %g, not %g", i+1, r, test.rMin)
		}
		if e := test.p.Energy(r); !almostEq(e, test.depth, 1e-12) {
			t.Errorf("%d) Energy(%g) = %g, not %g", i+1, r, e, test.depth)
		}
		if d := test.p.Derivative(r); !almostEq(d, 0, 1e-10) {
			t.Errorf("%d) Derivative(%g) = %g, not 0", i+1, r, d)
		}
		if k := test.p.SecondDerivative(r); k <= 0 {
			t.Errorf("%d) SecondDerivative(%g) = %g, not positive", i+1, r, k)
		}

		assert.Greater(t, test.p.Energy(0.9*r), test.p.Energy(r))
		assert.Greater(t, test.p.Energy(1.1*r), test.p.Energy(r))
	}
}

func TestLongRange(t *testing.T) {
	for _, p := range []Potential{NewLennardJones(1, 1), NewMorse(1, 2, 1)} {
		e := p.Energy(50)
		assert.True(t, e < 0 && e > -1e-8, "%v: Energy(50) = %g", p.Kind, e)
	}
}

func TestDerivatives(t *testing.T) {
	h := 1e-6
	for _, p := range []Potential{NewLennardJones(1.3, 0.8), NewMorse(0.7, 1.5, 1.1)} {
		for _, r := range []float64{0.8, 1.0, 1.3, 2.0, 3.1} {
			num := (p.Energy(r+h) - p.Energy(r-h)) / (2 * h)
			assert.InDelta(t, num, p.Derivative(r), 1e-5, "%v dE/dr at %g", p.Kind, r)

			num2 := (p.Derivative(r+h) - p.Derivative(r-h)) / (2 * h)
			assert.InDelta(t, num2, p.SecondDerivative(r), 1e-4, "%v d2E/dr2 at %g", p.Kind, r)
		}
	}
}

func TestCoincident(t *testing.T) {
	p := NewLennardJones(1, 1)
	a := r3.Vec{X: 1, Y: 2, Z: 3}

	_, err := p.PairEnergy(a, a)
	assert.True(t, errors.Is(err, ErrCoincident))
	assert.True(t, math.IsInf(p.Energy(0), +1))

	e, err := p.PairEnergy(a, r3.Vec{X: 2, Y: 2, Z: 3})
	assert.NoError(t, err)
	assert.Equal(t, p.Energy(1), e)
}

func TestParse(t *testing.T) {
	table := []struct {
		name string
		kind Kind
		ok   bool
	}{
		{"LennardJones", LennardJones, true},
		{"Lennard-Jones", LennardJones, true},
		{"lj", LennardJones, true},
		{"Morse", Morse, true},
		{"MORSE", Morse, true},
		{"Yukawa", 0, false},
	}

	for i, test := range table {
		k, err := Parse(test.name)
		if test.ok != (err == nil) {
			t.Errorf("%d) Parse(%s) gave error %v", i+1, test.name, err)
		} else if test.ok && k != test.kind {
			t.Errorf("%d) Parse(%s) = %v, not %v", i+1, test.name, k, test.kind)
		}
	}
}

func TestCheck(t *testing.T) {
	assert.NoError(t, NewLennardJones(1, 1).Check())
	assert.NoError(t, NewMorse(1, 1, 0).Check())
	assert.Error(t, NewLennardJones(-1, 1).Check())
	assert.Error(t, NewLennardJones(1, 0).Check())
	assert.Error(t, NewMorse(1, 1, -1).Check())
	assert.Error(t, New(Kind(7), Params{1, 1, 1}).Check())
}

func BenchmarkLennardJones(b *testing.B) {
	p := NewLennardJones(1, 1)
	for i := 0; i < b.N; i++ {
		p.Energy(1 + float64(i%100)/100)
	}
}
