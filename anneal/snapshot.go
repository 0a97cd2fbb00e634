package anneal

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Snapshot is a copy of the configuration at some iteration. Writers may
// hold onto it; the solver never modifies a snapshot after handing it over.
type Snapshot struct {
	Iteration   int
	Temperature float64
	Energy      float64
	// Sites[i] is the vertex protein i occupies, Positions[i] its location.
	Sites     []int
	Positions []r3.Vec
}

// Writer persists snapshots.
type Writer interface {
	Write(snap *Snapshot) error
	Close() error
}

// Multi sends each snapshot to every Writer in order.
type Multi []Writer

// Write implements Writer. It stops at the first error.
func (m Multi) Write(snap *Snapshot) error {
	for _, w := range m {
		if err := w.Write(snap); err != nil {
			return err
		}
	}
	return nil
}

// Close implements Writer. Every writer is closed and the first error is
// returned.
func (m Multi) Close() error {
	var first error
	for _, w := range m {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// AsyncWriter hands snapshots to another Writer on a background goroutine
// so that slow output doesn't stall the solver. Snapshots are written in the
// order Write was called.
type AsyncWriter struct {
	w     Writer
	snaps chan *Snapshot
	done  chan struct{}

	mu  sync.Mutex
	err error

	closeOnce sync.Once
	closeErr  error
}

// NewAsyncWriter starts a goroutine writing to w. buffer is the number of
// snapshots which can be queued before Write blocks.
func NewAsyncWriter(w Writer, buffer int) *AsyncWriter {
	aw := &AsyncWriter{
		w:     w,
		snaps: make(chan *Snapshot, buffer),
		done:  make(chan struct{}),
	}
	go aw.loop()
	return aw
}

func (aw *AsyncWriter) loop() {
	defer close(aw.done)
	for snap := range aw.snaps {
		if aw.Err() != nil {
			continue
		}
		if err := aw.w.Write(snap); err != nil {
			aw.mu.Lock()
			aw.err = err
			aw.mu.Unlock()
		}
	}
}

// Err returns the first error the background writer ran into.
func (aw *AsyncWriter) Err() error {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	return aw.err
}

// Write queues a snapshot. The returned error is the first error from an
// earlier write, if there was one.
func (aw *AsyncWriter) Write(snap *Snapshot) error {
	if err := aw.Err(); err != nil {
		return err
	}
	aw.snaps <- snap
	return nil
}

// Close waits for queued snapshots to be written and closes the underlying
// Writer. Later calls return the result of the first.
func (aw *AsyncWriter) Close() error {
	aw.closeOnce.Do(func() {
		close(aw.snaps)
		<-aw.done
		aw.closeErr = aw.w.Close()
		if werr := aw.Err(); werr != nil {
			aw.closeErr = werr
		}
	})
	return aw.closeErr
}

// Trace keeps the energy and temperature at every snapshot in memory.
type Trace struct {
	Iterations, Energies, Temperatures []float64
}

// Write implements Writer.
func (t *Trace) Write(snap *Snapshot) error {
	t.Iterations = append(t.Iterations, float64(snap.Iteration))
	t.Energies = append(t.Energies, snap.Energy)
	t.Temperatures = append(t.Temperatures, snap.Temperature)
	return nil
}

// Close implements Writer.
func (t *Trace) Close() error { return nil }
