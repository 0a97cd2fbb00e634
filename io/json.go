package io

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sugawarayuuta/sonnet"

	"github.com/phil-mansfield/capsid/anneal"
)

// SnapshotRecord is the serialized form of an anneal.Snapshot.
type SnapshotRecord struct {
	Run         string       `json:"run"`
	Iteration   int          `json:"iteration"`
	Temperature float64      `json:"temperature"`
	Energy      float64      `json:"energy"`
	Sites       []int        `json:"sites"`
	Positions   [][3]float64 `json:"positions"`
}

// NewSnapshotRecord flattens snap into a record tagged with a run id.
func NewSnapshotRecord(run string, snap *anneal.Snapshot) *SnapshotRecord {
	rec := &SnapshotRecord{
		Run:         run,
		Iteration:   snap.Iteration,
		Temperature: snap.Temperature,
		Energy:      snap.Energy,
		Sites:       snap.Sites,
		Positions:   make([][3]float64, len(snap.Positions)),
	}
	for i, x := range snap.Positions {
		rec.Positions[i] = [3]float64{x.X, x.Y, x.Z}
	}
	return rec
}

// JSONWriter appends one JSON object per snapshot to <prefix>snapshots.jsonl.
type JSONWriter struct {
	run string
	f   *os.File
	buf *bufio.Writer
}

// JSONFile returns the name of the file a JSONWriter with the given prefix
// writes to.
func JSONFile(prefix string) string { return prefix + "snapshots.jsonl" }

// NewJSONWriter creates (or truncates) the output file.
func NewJSONWriter(prefix, run string) (*JSONWriter, error) {
	f, err := os.Create(JSONFile(prefix))
	if err != nil {
		return nil, err
	}
	return &JSONWriter{run: run, f: f, buf: bufio.NewWriter(f)}, nil
}

// Write implements anneal.Writer.
func (w *JSONWriter) Write(snap *anneal.Snapshot) error {
	b, err := sonnet.Marshal(NewSnapshotRecord(w.run, snap))
	if err != nil {
		return err
	}
	if _, err = w.buf.Write(b); err != nil {
		return fmt.Errorf("Could not write to '%s': %w", w.f.Name(), err)
	}
	return w.buf.WriteByte('\n')
}

// Close implements anneal.Writer.
func (w *JSONWriter) Close() error {
	err := w.buf.Flush()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}
