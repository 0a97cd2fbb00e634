package anneal

import (
	"fmt"
	"log"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/capsid/geom"
	"github.com/phil-mansfield/capsid/protein"
)

// State is the position of a Solver in its step cycle.
type State int

const (
	Idle State = iota
	ProposingMove
	EvaluatingDelta
	Accepted
	Rejected
	Rebuilding
	Snapshotting
	Terminated
)

var stateNames = []string{
	"Idle", "ProposingMove", "EvaluatingDelta", "Accepted", "Rejected",
	"Rebuilding", "Snapshotting", "Terminated",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Config holds the parameters of a Solver.
type Config struct {
	// Steps is the number of Monte Carlo steps. Each step proposes one move.
	Steps int
	// NeighborInterval is the number of steps between unconditional
	// neighbor list rebuilds. Zero disables them.
	NeighborInterval int
	// SnapshotInterval is the number of steps between snapshots. Zero
	// disables them.
	SnapshotInterval int
	// ResetTemperature, if non-negative, replaces the schedule with a
	// constant temperature.
	ResetTemperature float64
	// Seed seeds the solver's random number generator.
	Seed uint64
	// Verbose logs a progress line with each snapshot.
	Verbose bool
}

// DefaultConfig returns a Config with the schedule override turned off.
func DefaultConfig() Config {
	return Config{ResetTemperature: -1, NeighborInterval: 100}
}

// Move records the outcome of a single step.
type Move struct {
	Step, Protein, From, To int
	Delta, Temperature      float64
	// NoOp is true if no protein could be moved. Delta is zero and
	// Accepted is false.
	NoOp, Accepted bool
}

// Result summarizes a finished run.
type Result struct {
	InitialEnergy, FinalEnergy float64

	Steps, Accepted, Rejected, NoOps int
	Rebuilds, Snapshots              int

	Duration  time.Duration
	Sites     []int
	Positions []r3.Vec
}

// AcceptanceRate returns the fraction of attempted moves which were
// accepted.
func (r *Result) AcceptanceRate() float64 {
	n := r.Accepted + r.Rejected
	if n == 0 {
		return 0
	}
	return float64(r.Accepted) / float64(n)
}

// Accept is the Metropolis criterion: a move changing the energy by dE at
// temperature T is accepted if u < exp(-dE / T), where u is uniform in [0, 1).
// Downhill moves are always accepted and uphill moves never are at T = 0.
func Accept(dE, T, u float64) bool {
	if dE <= 0 {
		return true
	} else if T <= 0 {
		return false
	}
	return u < math.Exp(-dE/T)
}

// Solver anneals a protein.Body by hopping single proteins between
// neighboring mesh vertices. It is the only thing which changes the Body
// while it runs.
type Solver struct {
	Config

	body  *protein.Body
	hosts *geom.HostTable
	sched *Schedule
	out   Writer
	gen   *rand.Rand

	state      State
	candidates []int
	res        Result
}

// New returns a Solver. out may be nil if no snapshots are needed. All
// parameter checks happen here, before anything about body changes.
func New(
	body *protein.Body, hosts *geom.HostTable, sched *Schedule,
	out Writer, con Config,
) (*Solver, error) {
	if err := sched.Check(); err != nil {
		return nil, err
	}

	switch {
	case con.Steps < 0:
		return nil, fmt.Errorf("%w: step count must be non-negative, but "+
			"is %d", protein.ErrOutOfRange, con.Steps)
	case con.Steps != sched.Steps:
		return nil, fmt.Errorf("%w: solver runs %d steps, but its schedule "+
			"spans %d", protein.ErrOutOfRange, con.Steps, sched.Steps)
	case con.NeighborInterval < 0:
		return nil, fmt.Errorf("%w: neighbor interval must be non-negative, "+
			"but is %d", protein.ErrOutOfRange, con.NeighborInterval)
	case con.SnapshotInterval < 0:
		return nil, fmt.Errorf("%w: snapshot interval must be non-negative, "+
			"but is %d", protein.ErrOutOfRange, con.SnapshotInterval)
	case hosts.Len() != body.Vertices():
		return nil, fmt.Errorf("%w: host table covers %d vertices, but the "+
			"body lives on %d", protein.ErrOutOfRange, hosts.Len(),
			body.Vertices())
	}

	return &Solver{
		Config: con,
		body:   body,
		hosts:  hosts,
		sched:  sched,
		out:    out,
		gen:    rand.New(rand.NewSource(con.Seed)),
		state:  Idle,
	}, nil
}

// State returns the solver's current state.
func (s *Solver) State() State { return s.state }

// Temperature returns the temperature used at the given step.
func (s *Solver) Temperature(step int) float64 {
	if s.ResetTemperature >= 0 {
		return s.ResetTemperature
	}
	return s.sched.Temperature(step)
}

// Step performs a single Monte Carlo step: propose, evaluate, and then
// accept or reject a move.
func (s *Solver) Step(step int) (Move, error) {
	s.state = ProposingMove
	mv := Move{Step: step, Protein: -1, From: -1, To: -1}
	mv.Temperature = s.Temperature(step)

	n := s.body.Len()
	if n == 0 {
		return s.noOp(mv), nil
	}

	mv.Protein = s.gen.Intn(n)
	mv.From = s.body.Site(mv.Protein)

	s.candidates = s.candidates[:0]
	for _, v := range s.hosts.Hosts(mv.From) {
		if _, ok := s.body.Occupant(v); !ok {
			s.candidates = append(s.candidates, v)
		}
	}
	if len(s.candidates) == 0 {
		return s.noOp(mv), nil
	}
	mv.To = s.candidates[s.gen.Intn(len(s.candidates))]

	s.state = EvaluatingDelta
	dE, err := s.body.Delta(mv.Protein, mv.To)
	if err != nil {
		return mv, err
	}
	mv.Delta = dE

	u := 0.0
	if dE > 0 && mv.Temperature > 0 {
		u = s.gen.Float64()
	}

	if Accept(dE, mv.Temperature, u) {
		s.state = Accepted
		if err := s.body.Move(mv.Protein, mv.To, dE); err != nil {
			return mv, err
		}
		mv.Accepted = true
		s.res.Accepted++
	} else {
		s.state = Rejected
		s.res.Rejected++
	}

	return mv, nil
}

func (s *Solver) noOp(mv Move) Move {
	s.state = Idle
	mv.NoOp = true
	s.res.NoOps++
	return mv
}

// Solve runs every step of the schedule and returns a summary of the run.
// Snapshots are written at step 0 and then every SnapshotInterval steps.
func (s *Solver) Solve() (*Result, error) {
	start := time.Now()
	s.res = Result{InitialEnergy: s.body.Energy()}
	rebuilds := s.body.Rebuilds()

	if err := s.snapshot(0); err != nil {
		return nil, err
	}

	for i := 0; i < s.Steps; i++ {
		if _, err := s.Step(i); err != nil {
			return nil, fmt.Errorf("Step %d: %w", i, err)
		}

		if s.NeighborInterval > 0 && (i+1)%s.NeighborInterval == 0 {
			s.state = Rebuilding
			s.body.Rebuild()
		}

		if err := s.snapshot(i + 1); err != nil {
			return nil, err
		}
		s.state = Idle
	}

	s.state = Terminated
	s.res.Steps = s.Steps
	s.res.FinalEnergy = s.body.Energy()
	s.res.Rebuilds = s.body.Rebuilds() - rebuilds
	s.res.Sites = s.body.Sites()
	s.res.Positions = s.body.Positions()
	s.res.Duration = time.Since(start)

	res := s.res
	return &res, nil
}

func (s *Solver) snapshot(iter int) error {
	if s.out == nil || s.SnapshotInterval == 0 || iter%s.SnapshotInterval != 0 {
		return nil
	}

	s.state = Snapshotting
	snap := &Snapshot{
		Iteration:   iter,
		Temperature: s.Temperature(iter),
		Energy:      s.body.Energy(),
		Sites:       s.body.Sites(),
		Positions:   s.body.Positions(),
	}
	if s.Verbose {
		log.Printf(
			"Iteration %d: E = %.6g, T = %.4g, accepted %d/%d",
			iter, snap.Energy, snap.Temperature,
			s.res.Accepted, s.res.Accepted+s.res.Rejected,
		)
	}
	if err := s.out.Write(snap); err != nil {
		return fmt.Errorf("Could not write snapshot %d: %w", iter, err)
	}
	s.res.Snapshots++
	return nil
}
