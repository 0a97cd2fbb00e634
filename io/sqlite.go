package io

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sugawarayuuta/sonnet"

	"github.com/phil-mansfield/capsid/anneal"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id      TEXT PRIMARY KEY,
	created TEXT NOT NULL,
	params  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
	run         TEXT NOT NULL REFERENCES runs(id),
	iteration   INTEGER NOT NULL,
	temperature REAL NOT NULL,
	energy      REAL NOT NULL,
	PRIMARY KEY (run, iteration)
);
CREATE TABLE IF NOT EXISTS sites (
	run       TEXT NOT NULL,
	iteration INTEGER NOT NULL,
	protein   INTEGER NOT NULL,
	vertex    INTEGER NOT NULL,
	x REAL NOT NULL,
	y REAL NOT NULL,
	z REAL NOT NULL,
	PRIMARY KEY (run, iteration, protein)
);`

// SQLiteWriter stores snapshots in <prefix>snapshots.db. Every run gets a row
// in the runs table holding its parameters, and repeated runs with the same
// prefix accumulate in the same database.
type SQLiteWriter struct {
	run string
	db  *sql.DB
}

// SQLiteFile returns the name of the database a SQLiteWriter with the given
// prefix writes to.
func SQLiteFile(prefix string) string { return prefix + "snapshots.db" }

// NewSQLiteWriter opens the database, creates missing tables, and records the
// run. params is stored as JSON.
func NewSQLiteWriter(prefix, run string, params interface{}) (*SQLiteWriter, error) {
	js, err := sonnet.Marshal(params)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", SQLiteFile(prefix))
	if err != nil {
		return nil, err
	}
	if _, err = db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("Could not create tables in '%s': %w",
			SQLiteFile(prefix), err)
	}
	_, err = db.Exec(
		`INSERT INTO runs (id, created, params) VALUES (?, ?, ?)`,
		run, time.Now().UTC().Format(time.RFC3339), string(js),
	)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteWriter{run: run, db: db}, nil
}

// Write implements anneal.Writer. Each snapshot is written in a single
// transaction.
func (w *SQLiteWriter) Write(snap *anneal.Snapshot) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO snapshots (run, iteration, temperature, energy)
		 VALUES (?, ?, ?, ?)`,
		w.run, snap.Iteration, snap.Temperature, snap.Energy,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO sites (run, iteration, protein, vertex, x, y, z)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for p, v := range snap.Sites {
		x := snap.Positions[p]
		if _, err = stmt.Exec(w.run, snap.Iteration, p, v, x.X, x.Y, x.Z); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close implements anneal.Writer.
func (w *SQLiteWriter) Close() error { return w.db.Close() }
