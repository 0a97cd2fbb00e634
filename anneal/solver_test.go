package anneal

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/capsid/geom"
	"github.com/phil-mansfield/capsid/potential"
	"github.com/phil-mansfield/capsid/protein"
)

// lattice returns an n x n triangulated square lattice with unit spacing.
func lattice(n int) *geom.Mesh {
	m := &geom.Mesh{}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			m.Vertices = append(m.Vertices, r3.Vec{X: float64(x), Y: float64(y)})
		}
	}
	for y := 0; y+1 < n; y++ {
		for x := 0; x+1 < n; x++ {
			i := x + y*n
			m.Triangles = append(m.Triangles,
				[3]int{i, i + 1, i + n}, [3]int{i + 1, i + n + 1, i + n},
			)
		}
	}
	return m
}

type setup struct {
	mesh  *geom.Mesh
	hosts *geom.HostTable
	body  *protein.Body
	sched *Schedule
}

func newSetup(t *testing.T, m *geom.Mesh, sites []int, steps int) *setup {
	body, err := protein.New(m.Vertices, sites, protein.Config{
		Potential: potential.NewLennardJones(1, 1),
		Cutoff:    3,
		Skin:      1.5,
	})
	require.NoError(t, err)
	return &setup{
		mesh:  m,
		hosts: geom.NewHostTable(len(m.Vertices), m.Triangles),
		body:  body,
		sched: &Schedule{T01: 1, T02: 0.01, FinalRatio: 0.01, Steps: steps},
	}
}

func (su *setup) solver(t *testing.T, out Writer, con Config) *Solver {
	s, err := New(su.body, su.hosts, su.sched, out, con)
	require.NoError(t, err)
	return s
}

func checkOccupancy(t *testing.T, b *protein.Body) {
	seen := map[int]int{}
	for p, v := range b.Sites() {
		if q, ok := seen[v]; ok {
			t.Fatalf("Proteins %d and %d share vertex %d", q, p, v)
		}
		seen[v] = p
		if q, ok := b.Occupant(v); !ok || q != p {
			t.Fatalf("Vertex %d maps to protein %d, not %d", v, q, p)
		}
	}
	for v := 0; v < b.Vertices(); v++ {
		if q, ok := b.Occupant(v); ok && b.Site(q) != v {
			t.Fatalf("Vertex %d claims protein %d, which sits on %d", v, q, b.Site(q))
		}
	}
}

func TestMetropolis(t *testing.T) {
	assert.True(t, Accept(-1, 0, 0.99))
	assert.True(t, Accept(0, 1, 0.99))
	assert.False(t, Accept(1e-9, 0, 0))

	gen := rand.New(rand.NewSource(99))
	table := []struct{ dE, T float64 }{
		{1, 2}, {0.5, 0.25}, {3, 1}, {0.01, 5},
	}

	n := 200000
	for i, test := range table {
		hits := 0
		for k := 0; k < n; k++ {
			if Accept(test.dE, test.T, gen.Float64()) {
				hits++
			}
		}
		p := math.Exp(-test.dE / test.T)
		sigma := math.Sqrt(p * (1 - p) / float64(n))
		freq := float64(hits) / float64(n)
		if math.Abs(freq-p) > 5*sigma+1e-4 {
			t.Errorf(
				"%d) acceptance frequency %g for dE = %g, T = %g, expected %g",
				i+1, freq, test.dE, test.T, p,
			)
		}
	}
}

func TestIncrementalEnergy(t *testing.T) {
	m := lattice(10)
	sites := protein.Sample(len(m.Vertices), 30, 3, rand.New(rand.NewSource(3)))
	su := newSetup(t, m, sites, 2000)
	s := su.solver(t, nil, Config{Steps: 2000, ResetTemperature: 0.5, Seed: 5})

	accepted := 0
	for i := 0; i < s.Steps; i++ {
		before := su.body.Energy()
		mv, err := s.Step(i)
		require.NoError(t, err)
		if !mv.Accepted {
			assert.Equal(t, before, su.body.Energy())
			continue
		}
		accepted++

		checkOccupancy(t, su.body)
		assert.Equal(t, mv.To, su.body.Site(mv.Protein))
		assert.InDelta(t, before+mv.Delta, su.body.Energy(), 1e-12)
		if math.Abs(su.body.ExactEnergy()-su.body.Energy()) > 1e-8 {
			t.Fatalf(
				"Step %d: cached energy %.12g, brute force %.12g",
				i, su.body.Energy(), su.body.ExactEnergy(),
			)
		}
	}
	assert.Greater(t, accepted, 0)
}

func TestIcosahedron(t *testing.T) {
	m := geom.Icosahedron()
	// Vertices 0 and 3 are antipodal, so the two vacancies start as far
	// apart as they can be.
	sites := []int{1, 2, 4, 5, 6, 7, 8, 9, 10, 11}
	su := newSetup(t, m, sites, 1000)

	s := su.solver(t, nil, Config{Steps: 1000, ResetTemperature: -1, Seed: 11})
	res, err := s.Solve()
	require.NoError(t, err)

	assert.Equal(t, Terminated, s.State())
	assert.Equal(t, 1000, res.Steps)
	assert.Equal(t, 1000, res.Accepted+res.Rejected+res.NoOps)
	assert.LessOrEqual(t, res.FinalEnergy, res.InitialEnergy+1e-9)
	assert.InDelta(t, su.body.ExactEnergy(), res.FinalEnergy, 1e-9)
	assert.Len(t, res.Sites, 10)
	checkOccupancy(t, su.body)
}

func TestResetTemperature(t *testing.T) {
	m := lattice(6)
	for _, mode := range modes {
		su := newSetup(t, m, []int{0, 7, 14, 21, 28, 35}, 300)
		su.sched.Mode = mode
		s := su.solver(t, nil, Config{Steps: 300, ResetTemperature: 5, Seed: 1})

		for i := 0; i < s.Steps; i++ {
			mv, err := s.Step(i)
			require.NoError(t, err)
			if mv.Temperature != 5 {
				t.Fatalf("%v: step %d ran at T = %g", mode, i, mv.Temperature)
			}
		}
		assert.Equal(t, 5.0, s.Temperature(0))
		assert.Equal(t, 5.0, s.Temperature(299))
	}

	// Zero is a valid override: only downhill moves are taken.
	su := newSetup(t, m, []int{0, 7, 14, 21, 28, 35}, 300)
	s := su.solver(t, nil, Config{Steps: 300, ResetTemperature: 0, Seed: 1})
	for i := 0; i < s.Steps; i++ {
		mv, err := s.Step(i)
		require.NoError(t, err)
		if mv.Accepted {
			assert.LessOrEqual(t, mv.Delta, 0.0)
		}
	}
}

func TestZeroSteps(t *testing.T) {
	m := lattice(5)
	su := newSetup(t, m, []int{0, 1, 2, 12}, 0)
	sites := su.body.Sites()
	trace := &Trace{}
	s := su.solver(t, trace, Config{Steps: 0, SnapshotInterval: 1, ResetTemperature: -1})

	res, err := s.Solve()
	require.NoError(t, err)
	assert.Equal(t, res.InitialEnergy, res.FinalEnergy)
	assert.Equal(t, su.body.Energy(), res.FinalEnergy)
	assert.Equal(t, sites, res.Sites)
	assert.Equal(t, 0, res.Accepted+res.Rejected+res.NoOps)
	assert.Equal(t, []float64{0}, trace.Iterations)
}

func TestNoMoves(t *testing.T) {
	// No proteins at all.
	m := lattice(4)
	su := newSetup(t, m, []int{}, 50)
	s := su.solver(t, nil, Config{Steps: 50, ResetTemperature: -1})
	res, err := s.Solve()
	require.NoError(t, err)
	assert.Equal(t, 50, res.NoOps)
	assert.Equal(t, 0.0, res.FinalEnergy)

	// A protein on a vertex outside every triangle, and one boxed in by
	// occupied neighbors.
	m = &geom.Mesh{
		Vertices: []r3.Vec{
			{}, {X: 1}, {Y: 1}, {X: 10, Y: 10},
		},
		Triangles: [][3]int{{0, 1, 2}},
	}
	su = newSetup(t, m, []int{3}, 40)
	assert.Equal(t, []int{3}, su.hosts.Degenerate())
	s = su.solver(t, nil, Config{Steps: 40, ResetTemperature: -1})
	res, err = s.Solve()
	require.NoError(t, err)
	assert.Equal(t, 40, res.NoOps)
	assert.Equal(t, []int{3}, res.Sites)

	su = newSetup(t, m, []int{0, 1, 2}, 40)
	s = su.solver(t, nil, Config{Steps: 40, ResetTemperature: -1})
	res, err = s.Solve()
	require.NoError(t, err)
	assert.Equal(t, 40, res.NoOps)
	assert.Equal(t, 0.0, res.AcceptanceRate())
}

func TestSolverErrors(t *testing.T) {
	m := lattice(4)
	su := newSetup(t, m, []int{0, 5}, 10)
	sites := su.body.Sites()
	energy := su.body.Energy()

	table := []struct {
		hosts *geom.HostTable
		sched Schedule
		con   Config
	}{
		{su.hosts, *su.sched, Config{Steps: -1}},
		{su.hosts, *su.sched, Config{Steps: 11}},
		{su.hosts, *su.sched, Config{Steps: 10, NeighborInterval: -1}},
		{su.hosts, *su.sched, Config{Steps: 10, SnapshotInterval: -2}},
		{geom.NewHostTable(3, [][3]int{{0, 1, 2}}), *su.sched, Config{Steps: 10}},
		{su.hosts, Schedule{T01: -1, Steps: 10}, Config{Steps: 10}},
	}

	for i, test := range table {
		sched := test.sched
		_, err := New(su.body, test.hosts, &sched, nil, test.con)
		if !errors.Is(err, protein.ErrOutOfRange) {
			t.Errorf("%d) New() gave error %v", i+1, err)
		}
	}

	assert.Equal(t, sites, su.body.Sites())
	assert.Equal(t, energy, su.body.Energy())
}

func TestSnapshots(t *testing.T) {
	m := lattice(8)
	su := newSetup(t, m, []int{0, 9, 18, 27, 36, 45}, 95)
	trace := &Trace{}
	rec := &recorder{}
	s := su.solver(t, Multi{trace, NewAsyncWriter(rec, 2)}, Config{
		Steps: 95, SnapshotInterval: 10, NeighborInterval: 7,
		ResetTemperature: -1, Seed: 2,
	})

	res, err := s.Solve()
	require.NoError(t, err)
	require.NoError(t, s.out.Close())

	want := []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}
	assert.Equal(t, want, trace.Iterations)
	assert.Equal(t, 10, res.Snapshots)
	assert.Equal(t, res.InitialEnergy, trace.Energies[0])
	assert.Equal(t, su.sched.Temperature(0), trace.Temperatures[0])
	assert.GreaterOrEqual(t, res.Rebuilds, 95/7)

	require.Len(t, rec.iters, len(want))
	for i := range want {
		assert.Equal(t, int(want[i]), rec.iters[i])
	}
	assert.True(t, rec.closed)
}

func TestDeterministic(t *testing.T) {
	m := lattice(8)
	run := func(seed uint64) *Result {
		su := newSetup(t, m, []int{0, 3, 9, 18, 27, 36, 45, 60}, 400)
		s := su.solver(t, nil, Config{Steps: 400, ResetTemperature: -1, Seed: seed})
		res, err := s.Solve()
		require.NoError(t, err)
		return res
	}

	a, b := run(17), run(17)
	assert.Equal(t, a.Sites, b.Sites)
	assert.Equal(t, a.FinalEnergy, b.FinalEnergy)
	assert.Equal(t, a.Accepted, b.Accepted)
}

func TestAsyncWriter(t *testing.T) {
	rec := &recorder{delay: time.Millisecond}
	aw := NewAsyncWriter(rec, 4)

	sites := []int{1, 2, 3}
	for i := 0; i < 20; i++ {
		require.NoError(t, aw.Write(&Snapshot{Iteration: i, Sites: append([]int{}, sites...)}))
		sites[0]++
	}
	require.NoError(t, aw.Close())

	require.Len(t, rec.iters, 20)
	for i := range rec.iters {
		assert.Equal(t, i, rec.iters[i])
		assert.Equal(t, 1+i, rec.first[i])
	}

	assert.NotPanics(t, func() { assert.NoError(t, aw.Close()) })
	assert.True(t, rec.closed)

	bad := NewAsyncWriter(&recorder{fail: true}, 1)
	bad.Write(&Snapshot{})
	err := bad.Close()
	assert.Error(t, err)
	assert.Equal(t, err, bad.Close())
}

// recorder is a Writer which remembers the order snapshots arrived in.
type recorder struct {
	mu     sync.Mutex
	iters  []int
	first  []int
	closed bool
	delay  time.Duration
	fail   bool
}

func (r *recorder) Write(snap *Snapshot) error {
	if r.fail {
		return errors.New("disk full")
	}
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.iters = append(r.iters, snap.Iteration)
	if len(snap.Sites) > 0 {
		r.first = append(r.first, snap.Sites[0])
	}
	return nil
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func BenchmarkStep(b *testing.B) {
	m := lattice(50)
	sites := protein.Sample(len(m.Vertices), 500, 4, rand.New(rand.NewSource(1)))
	body, err := protein.New(m.Vertices, sites, protein.Config{
		Potential: potential.NewLennardJones(1, 1), Cutoff: 3, Skin: 1.5,
	})
	if err != nil {
		b.Fatal(err.Error())
	}
	hosts := geom.NewHostTable(len(m.Vertices), m.Triangles)
	sched := &Schedule{T01: 1, FinalRatio: 0.01, Steps: b.N}
	s, err := New(body, hosts, sched, nil, Config{Steps: b.N, ResetTemperature: -1})
	if err != nil {
		b.Fatal(err.Error())
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Step(i)
	}
}
