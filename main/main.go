package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"github.com/phil-mansfield/capsid/anneal"
	"github.com/phil-mansfield/capsid/geom"
	"github.com/phil-mansfield/capsid/io"
	"github.com/phil-mansfield/capsid/protein"
)

// Number of snapshots which can be queued when AsyncOutput is set.
const asyncBufLen = 16

type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var monteCarlo, exampleConfig string
	vars := map[string]*string{
		"MonteCarlo":    &monteCarlo,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&monteCarlo, "MonteCarlo", "",
		"Configuration file for [MonteCarlo] mode.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. The only accepted argument is "+
			"'MonteCarlo'.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "MonteCarlo":
		con, err := io.ReadMonteCarloConfig(monteCarlo)
		if err != nil {
			log.Fatal(err.Error())
		}
		monteCarloMain(con)
	case "ExampleConfig":
		switch exampleConfig {
		case "MonteCarlo":
			fmt.Println(io.ExampleMonteCarloFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. The only recognized " +
					"argument is 'MonteCarlo'.",
			)
		}
	default:
		panic("Impossible")
	}
}

func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but capsid "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func monteCarloMain(con *io.MonteCarloConfig) {
	fg := setupIO(con)
	defer fg.Close()

	// Geometry.

	mesh, err := io.ReadMeshFile(con.Mesh)
	if err != nil {
		log.Fatal(err.Error())
	}
	mesh.Scale(con.InflationFactor)
	log.Printf(
		"Read %d vertices and %d triangles from %s. Mean edge length: %.4g",
		len(mesh.Vertices), len(mesh.Triangles), con.Mesh, mesh.MeanEdge(),
	)
	log.Printf("Surface area: %.6g, enclosed volume: %.6g",
		mesh.Area(), mesh.Volume())

	hosts := geom.NewHostTable(len(mesh.Vertices), mesh.Triangles)
	if deg := hosts.Degenerate(); len(deg) > 0 {
		log.Printf("%d vertices belong to no triangle.", len(deg))
	}

	// Proteins.

	scon := con.SolverConfig(uint64(time.Now().UnixNano()))
	log.Printf("Random seed: %d", scon.Seed)

	sites, err := placeProteins(con, mesh, rand.New(rand.NewSource(scon.Seed)))
	if err != nil {
		log.Fatal(err.Error())
	}
	body, err := protein.New(mesh.Vertices, sites, con.BodyConfig(mesh))
	if err != nil {
		log.Fatal(err.Error())
	}
	log.Printf("Placed %d proteins. Initial energy: %.6g", body.Len(), body.Energy())

	// Annealing.

	run := uuid.NewString()
	log.Printf("Run id: %s", run)

	trace := &anneal.Trace{}
	files, err := createWriters(con, mesh, run)
	if err != nil {
		log.Fatal(err.Error())
	}
	out := anneal.Multi{trace, files}

	solver, err := anneal.New(body, hosts, con.AnnealSchedule(), out, scon)
	if err != nil {
		log.Fatal(err.Error())
	}
	res, err := solver.Solve()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Fatal(err.Error())
	}

	// Summary.

	log.Printf(
		"Finished %d steps in %s. Energy: %.6g -> %.6g",
		res.Steps, res.Duration, res.InitialEnergy, res.FinalEnergy,
	)
	log.Printf(
		"Accepted %d, rejected %d (rate %.3g), %d steps without a legal "+
			"move, %d neighbor rebuilds.",
		res.Accepted, res.Rejected, res.AcceptanceRate(), res.NoOps, res.Rebuilds,
	)
	log.Printf("Energy trace:\n%s", io.TraceSummary(trace))

	if con.ValidPlotFile() {
		io.PlotTrace(con.PlotFile, trace)
	}
}

func setupIO(con *io.MonteCarloConfig) *FileGroup {
	fg := &FileGroup{}
	var err error

	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
	}

	log.Println("Running MonteCarlo main.")

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg
}

// placeProteins returns the starting vertex of every protein.
func placeProteins(
	con *io.MonteCarloConfig, mesh *geom.Mesh, gen *rand.Rand,
) ([]int, error) {
	if !con.ValidSeedFile() {
		return protein.Sample(
			len(mesh.Vertices), con.MaxParticles, con.NodesPerParticle, gen,
		), nil
	}

	seeds, err := io.ReadSeeds(con.SeedFile)
	if err != nil {
		return nil, err
	}

	if strings.ToLower(con.SeedMode) == "prefix" {
		return protein.Prefix(len(mesh.Vertices), len(seeds)), nil
	}

	sites, unmatched := protein.Match(mesh.Vertices, seeds, con.SeedTolerance)
	if unmatched > 0 {
		log.Printf(
			"%d of %d seeds were not within %g of any vertex.",
			unmatched, len(seeds), con.SeedTolerance,
		)
	}
	return sites, nil
}

// createWriters opens every snapshot format requested by the config.
func createWriters(
	con *io.MonteCarloConfig, mesh *geom.Mesh, run string,
) (anneal.Writer, error) {
	formats, err := con.FormatList()
	if err != nil {
		return nil, err
	}

	ws := anneal.Multi{}
	for _, f := range formats {
		var w anneal.Writer
		switch f {
		case io.VTKFormat:
			w = io.NewVTKWriter(con.Output, mesh, con.ConnectivityRadius)
		case io.JSONFormat:
			w, err = io.NewJSONWriter(con.Output, run)
		case io.SQLiteFormat:
			w, err = io.NewSQLiteWriter(con.Output, run, con)
		}
		if err != nil {
			ws.Close()
			return nil, err
		}
		ws = append(ws, w)
	}

	if con.AsyncOutput {
		return anneal.NewAsyncWriter(ws, asyncBufLen), nil
	}
	return ws, nil
}
