/*package anneal contains the simulated annealing Monte Carlo solver which
moves proteins across a mesh, along with its temperature schedules and the
plumbing used to hand snapshots to output writers.
*/
package anneal

import (
	"fmt"
	"math"
	"strings"

	"github.com/phil-mansfield/capsid/protein"
)

// Mode is the shape of a temperature schedule.
type Mode int

const (
	// Exponential decays geometrically from the initial to the final
	// temperature.
	Exponential Mode = iota
	// Linear decays arithmetically.
	Linear
	// Stepwise holds the temperature fixed for StepLength steps at a time,
	// dropping geometrically between plateaus.
	Stepwise
)

func (m Mode) String() string {
	switch m {
	case Exponential:
		return "Exponential"
	case Linear:
		return "Linear"
	case Stepwise:
		return "Stepwise"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode returns the Mode corresponding to a configuration string.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "", "exponential":
		return Exponential, nil
	case "linear":
		return Linear, nil
	case "stepwise":
		return Stepwise, nil
	}
	return 0, fmt.Errorf(
		"Unrecognized schedule '%s'. Accepted values are 'Exponential', "+
			"'Linear', and 'Stepwise'.", name,
	)
}

// Schedule maps step indices to temperatures. Every mode starts at T01 at
// step 0 and reaches Final() at step Steps - 1.
type Schedule struct {
	Mode
	// T01 is the initial temperature. T02 is the final temperature, and is
	// only used if FinalRatio is zero.
	T01, T02 float64
	// FinalRatio is the ratio between the final and initial temperatures.
	FinalRatio float64
	Steps      int
	// StepLength is the plateau length for Stepwise schedules. Zero means a
	// tenth of the run.
	StepLength int
}

// Check returns an error if the schedule could reheat or produce negative
// temperatures.
func (s *Schedule) Check() error {
	switch {
	case s.Mode != Exponential && s.Mode != Linear && s.Mode != Stepwise:
		return fmt.Errorf("%w: unknown schedule mode %d",
			protein.ErrOutOfRange, int(s.Mode))
	case s.Steps < 0:
		return fmt.Errorf("%w: step count must be non-negative, but is %d",
			protein.ErrOutOfRange, s.Steps)
	case s.T01 < 0 || s.T02 < 0:
		return fmt.Errorf("%w: temperatures must be non-negative, but are "+
			"T01 = %g and T02 = %g", protein.ErrOutOfRange, s.T01, s.T02)
	case s.FinalRatio < 0 || s.FinalRatio > 1:
		return fmt.Errorf("%w: FinalRatio must be in [0, 1], but is %g",
			protein.ErrOutOfRange, s.FinalRatio)
	case s.FinalRatio == 0 && s.T02 > s.T01:
		return fmt.Errorf("%w: T02 = %g is larger than T01 = %g",
			protein.ErrOutOfRange, s.T02, s.T01)
	case s.StepLength < 0:
		return fmt.Errorf("%w: StepLength must be non-negative, but is %d",
			protein.ErrOutOfRange, s.StepLength)
	}
	return nil
}

// Initial returns the temperature at step 0.
func (s *Schedule) Initial() float64 { return s.T01 }

// Final returns the temperature at the last step.
func (s *Schedule) Final() float64 {
	if s.FinalRatio > 0 {
		return s.T01 * s.FinalRatio
	}
	return s.T02
}

// Temperature returns the temperature at the given step. Steps past the end
// of the run are held at Final().
func (s *Schedule) Temperature(step int) float64 {
	last := s.Steps - 1
	if last <= 0 || step <= 0 {
		return s.Initial()
	} else if step >= last {
		return s.Final()
	}

	t0, t1 := s.Initial(), s.Final()
	f := float64(step) / float64(last)

	switch s.Mode {
	case Exponential:
		return geometric(t0, t1, f)
	case Linear:
		return t0 + (t1-t0)*f
	case Stepwise:
		n := s.plateauLength()
		return geometric(t0, t1, float64(step/n)/float64(last/n))
	}
	panic("Impossible")
}

// plateauLength returns the number of steps in each stepwise plateau. There
// are always at least two plateaus so that the last step reaches Final().
func (s *Schedule) plateauLength() int {
	last := s.Steps - 1
	n := s.StepLength
	if n <= 0 {
		n = s.Steps / 10
	}
	if n > last {
		n = last
	}
	if n < 1 {
		n = 1
	}
	return n
}

// geometric interpolates from t0 to t1 in log space.
func geometric(t0, t1, f float64) float64 {
	if t0 == 0 {
		return 0
	}
	return t0 * math.Pow(t1/t0, f)
}
