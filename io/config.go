package io

import (
	"fmt"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/capsid/anneal"
	"github.com/phil-mansfield/capsid/geom"
	"github.com/phil-mansfield/capsid/potential"
	"github.com/phil-mansfield/capsid/protein"
)

const ExampleMonteCarloFile = `[MonteCarlo]

#######################
# Required Parameters #
#######################

# Mesh file. The first line is a token followed by the number of points, then
# one "x y z" line per point, then a token followed by the number of
# triangles, then one "id i j k" line per triangle.
Mesh = path/to/mesh.inp
# Prefix of every output file (e.g. out/capsid_ gives out/capsid_iter100.vtk).
Output = path/to/output/prefix_

#######################
# Optional Parameters #
#######################

# Initial configuration. With SeedMode = Match, SeedFile holds x y z columns
# and a protein starts on every vertex within SeedTolerance of one of them.
# SeedFile has no header line: remove the "token count" line that older
# initial configuration files start with.
# With SeedMode = Prefix, the first N vertices are occupied, where N is the
# number of rows in SeedFile. Without a SeedFile, proteins are placed every
# 1 to NodesPerParticle vertices until there are MaxParticles of them.
# SeedFile = path/to/seeds.txt
# SeedMode = Match
# SeedTolerance = 1e-5
# MaxParticles = 10
# NodesPerParticle = 10

# Multiplies every mesh position. Use this to inflate or deflate a vessel.
# InflationFactor = 1.0

# Pair potential. Must be one of [ LennardJones | Morse ]. Shift is the
# equilibrium distance of the Morse potential and is ignored by LennardJones.
# For Morse potentials Sigma is an inverse width.
# Potential = LennardJones
# Epsilon = 1.0
# Sigma = 1.0
# Shift = 1.0

# Proteins further apart than Cutoff don't interact. Neighbor lists are built
# out to Cutoff + Skin; a negative Skin uses twice the longest mesh edge.
# NeighborMethod must be one of [ CellList | KDTree | BruteForce ].
# Cutoff = 3.0
# Skin = -1
# NeighborMethod = CellList

# Output files draw bonds between proteins closer than ConnectivityRadius.
# ConnectivityRadius = 1.0

# Annealing. The temperature starts at T01 and ends at T01 * FinalRatio, or at
# T02 if FinalRatio isn't set. Schedule must be one of
# [ Exponential | Linear | Stepwise ]. StepLength is the length of each
# Stepwise plateau and defaults to a tenth of the run.
# Steps = 1000
# T01 = 1.0
# T02 = 0.01
# FinalRatio = 0.01
# Schedule = Exponential
# StepLength = 100

# Setting ResetTemperature to a non-negative value runs the whole simulation
# at that temperature instead of annealing.
# ResetTemperature = -1

# Steps between unconditional neighbor list rebuilds and between snapshots.
# NeighborInterval = 100
# SnapshotInterval = 100

# Seed for the random number generator. Zero seeds from the clock.
# Seed = 0

# Comma-separated snapshot formats: [ VTK | JSON | SQLite ]. AsyncOutput
# writes snapshots on a background goroutine.
# Formats = VTK
# AsyncOutput = false

# Plot of energy and temperature against iteration, rendered with matplotlib.
# PlotFile = trace.png

# Output files which are useful for profiling and debugging.
# ProfileFile = prof.out
# LogFile = log.out`

// Snapshot formats.
const (
	VTKFormat    = "vtk"
	JSONFormat   = "json"
	SQLiteFormat = "sqlite"
)

type SharedConfig struct {
	// Optional
	LogFile, ProfileFile string
}

func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

type MonteCarloConfig struct {
	SharedConfig

	// Required
	Mesh, Output string

	// Optional
	SeedFile, SeedMode string
	SeedTolerance      float64
	MaxParticles       int
	NodesPerParticle   int
	InflationFactor    float64

	Potential             string
	Epsilon, Sigma, Shift float64

	Cutoff, Skin       float64
	NeighborMethod     string
	ConnectivityRadius float64

	Steps                int
	T01, T02, FinalRatio float64
	Schedule             string
	StepLength           int
	ResetTemperature     float64

	NeighborInterval, SnapshotInterval int
	Seed                               int64

	Formats     string
	AsyncOutput bool
	PlotFile    string
}

type MonteCarloWrapper struct {
	MonteCarlo MonteCarloConfig
}

func DefaultMonteCarloWrapper() *MonteCarloWrapper {
	con := MonteCarloConfig{}
	con.SeedMode = "Match"
	con.SeedTolerance = 1e-5
	con.MaxParticles = 10
	con.NodesPerParticle = 10
	con.InflationFactor = 1

	con.Potential = "LennardJones"
	con.Epsilon, con.Sigma, con.Shift = 1, 1, 1

	con.Cutoff = 3
	con.Skin = -1
	con.NeighborMethod = "CellList"
	con.ConnectivityRadius = 1

	con.Steps = 1000
	con.T01, con.T02 = 1, 0.01
	con.Schedule = "Exponential"
	con.ResetTemperature = -1

	con.NeighborInterval = 100
	con.SnapshotInterval = 100
	con.Formats = "VTK"
	return &MonteCarloWrapper{con}
}

// ReadMonteCarloConfig reads and validates a [MonteCarlo] config file.
func ReadMonteCarloConfig(fname string) (*MonteCarloConfig, error) {
	wrap := DefaultMonteCarloWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	con := &wrap.MonteCarlo
	if err := con.Validate(); err != nil {
		return nil, err
	}
	return con, nil
}

// ParseMonteCarloConfig is ReadMonteCarloConfig for a config which is
// already in memory.
func ParseMonteCarloConfig(text string) (*MonteCarloConfig, error) {
	wrap := DefaultMonteCarloWrapper()
	if err := gcfg.ReadStringInto(wrap, text); err != nil {
		return nil, err
	}
	con := &wrap.MonteCarlo
	if err := con.Validate(); err != nil {
		return nil, err
	}
	return con, nil
}

func (con *MonteCarloConfig) ValidMesh() bool {
	return con.Mesh != ""
}
func (con *MonteCarloConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *MonteCarloConfig) ValidSeedFile() bool {
	return con.SeedFile != ""
}
func (con *MonteCarloConfig) ValidSeedMode() bool {
	m := strings.ToLower(con.SeedMode)
	return m == "match" || m == "prefix"
}
func (con *MonteCarloConfig) ValidPlotFile() bool {
	return con.PlotFile != ""
}

// Validate returns an error describing the first invalid parameter. Range
// errors wrap protein.ErrOutOfRange.
func (con *MonteCarloConfig) Validate() error {
	if !con.ValidMesh() {
		return fmt.Errorf("Invalid/non-existent 'Mesh' value.")
	} else if !con.ValidOutput() {
		return fmt.Errorf("Invalid/non-existent 'Output' value.")
	} else if !con.ValidSeedMode() {
		return fmt.Errorf(
			"Invalid 'SeedMode' value '%s'. Accepted values are 'Match' "+
				"and 'Prefix'.", con.SeedMode,
		)
	}

	if _, err := potential.Parse(con.Potential); err != nil {
		return err
	} else if _, err := anneal.ParseMode(con.Schedule); err != nil {
		return err
	} else if _, err := geom.NewIndex(con.NeighborMethod); err != nil {
		return err
	} else if _, err := con.FormatList(); err != nil {
		return err
	}

	ranges := []struct {
		ok   bool
		name string
		val  interface{}
	}{
		{con.SeedTolerance > 0, "SeedTolerance", con.SeedTolerance},
		{con.MaxParticles >= 0, "MaxParticles", con.MaxParticles},
		{con.NodesPerParticle > 0, "NodesPerParticle", con.NodesPerParticle},
		{con.InflationFactor > 0, "InflationFactor", con.InflationFactor},
		{con.Cutoff > 0, "Cutoff", con.Cutoff},
		{con.ConnectivityRadius >= 0, "ConnectivityRadius", con.ConnectivityRadius},
		{con.Steps >= 0, "Steps", con.Steps},
		{con.NeighborInterval >= 0, "NeighborInterval", con.NeighborInterval},
		{con.SnapshotInterval >= 0, "SnapshotInterval", con.SnapshotInterval},
	}
	for _, r := range ranges {
		if !r.ok {
			return fmt.Errorf(
				"%w: invalid '%s' value, %v", protein.ErrOutOfRange, r.name, r.val,
			)
		}
	}

	if err := con.PotentialModel().Check(); err != nil {
		return fmt.Errorf("%w: %s", protein.ErrOutOfRange, err.Error())
	}
	sched := con.AnnealSchedule()
	return sched.Check()
}

// FormatList returns the lower-case snapshot formats listed in Formats.
func (con *MonteCarloConfig) FormatList() ([]string, error) {
	out := []string{}
	for _, f := range strings.Split(con.Formats, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case "":
			continue
		case VTKFormat, JSONFormat, SQLiteFormat:
			out = append(out, f)
		default:
			return nil, fmt.Errorf(
				"Unrecognized format '%s'. Accepted formats are 'VTK', "+
					"'JSON', and 'SQLite'.", f,
			)
		}
	}
	return out, nil
}

// PotentialModel returns the configured pair potential. Call Validate first.
func (con *MonteCarloConfig) PotentialModel() potential.Potential {
	k, _ := potential.Parse(con.Potential)
	return potential.New(k, potential.Params{
		Epsilon: con.Epsilon, Sigma: con.Sigma, Shift: con.Shift,
	})
}

// AnnealSchedule returns the configured temperature schedule.
func (con *MonteCarloConfig) AnnealSchedule() *anneal.Schedule {
	mode, _ := anneal.ParseMode(con.Schedule)
	return &anneal.Schedule{
		Mode: mode,
		T01:  con.T01, T02: con.T02, FinalRatio: con.FinalRatio,
		Steps: con.Steps, StepLength: con.StepLength,
	}
}

// BodyConfig returns the protein.Config for proteins living on m.
func (con *MonteCarloConfig) BodyConfig(m *geom.Mesh) protein.Config {
	idx, _ := geom.NewIndex(con.NeighborMethod)
	skin := con.Skin
	if skin < 0 {
		skin = 2 * m.LongestEdge()
	}
	return protein.Config{
		Potential: con.PotentialModel(),
		Cutoff:    con.Cutoff,
		Skin:      skin,
		Index:     idx,
	}
}

// SolverConfig returns the anneal.Config for this run. seed is used when the
// config doesn't set one.
func (con *MonteCarloConfig) SolverConfig(seed uint64) anneal.Config {
	if con.Seed != 0 {
		seed = uint64(con.Seed)
	}
	return anneal.Config{
		Steps:            con.Steps,
		NeighborInterval: con.NeighborInterval,
		SnapshotInterval: con.SnapshotInterval,
		ResetTemperature: con.ResetTemperature,
		Seed:             seed,
		Verbose:          true,
	}
}
