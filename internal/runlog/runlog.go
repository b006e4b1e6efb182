// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package runlog keeps a history of simulation runs in a SQLite database.
//
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started TEXT NOT NULL,
    wall_ns INTEGER NOT NULL,
    args TEXT NOT NULL, -- JSON array
    status INTEGER NOT NULL,
    cycles INTEGER NOT NULL,
    sim_time INTEGER NOT NULL,
    samples INTEGER NOT NULL,
    errors INTEGER NOT NULL,
    interrupted INTEGER NOT NULL,
    trace TEXT NOT NULL,
    message TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
`

// Run is the record of a single simulation run.
//
type Run struct {
	ID          int64
	Started     time.Time
	Wall        time.Duration
	Args        []string // plusargs
	Status      int
	Cycles      uint64
	SimTime     uint64 // ps
	Samples     uint64
	Errors      int
	Interrupted bool
	Trace       string // trace file path
	Message     string // error message, empty on success
}

// Log is a run log backed by a SQLite database.
//
type Log struct {
	db *sql.DB
}

// Open opens or creates the database at path.
//
func Open(ctx context.Context, path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "runlog: create directory")
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "runlog: open database")
	}
	db.SetMaxOpenConns(1)
	if _, err = db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "runlog: initialize schema")
	}
	return &Log{db: db}, nil
}

// Record appends r to the log and returns its ID. r.ID is ignored.
//
func (l *Log) Record(ctx context.Context, r *Run) (int64, error) {
	args, err := json.Marshal(r.Args)
	if err != nil {
		return 0, errors.Wrap(err, "runlog: encode args")
	}
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (started, wall_ns, args, status, cycles, sim_time, samples, errors, interrupted, trace, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Started.UTC().Format(time.RFC3339Nano), int64(r.Wall), string(args),
		r.Status, int64(r.Cycles), int64(r.SimTime), int64(r.Samples), r.Errors,
		r.Interrupted, r.Trace, r.Message)
	if err != nil {
		return 0, errors.Wrap(err, "runlog: insert run")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "runlog: insert run")
	}
	return id, nil
}

// Recent returns the last n runs, most recent first. If n <= 0, all runs are
// returned.
//
func (l *Log) Recent(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		n = -1
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, started, wall_ns, args, status, cycles, sim_time, samples, errors, interrupted, trace, message
		FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, errors.Wrap(err, "runlog: query runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                        Run
			started, args            string
			wall, cyc, simt, samples int64
		)
		if err = rows.Scan(&r.ID, &started, &wall, &args, &r.Status, &cyc, &simt, &samples,
			&r.Errors, &r.Interrupted, &r.Trace, &r.Message); err != nil {
			return nil, errors.Wrap(err, "runlog: scan run")
		}
		if r.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, errors.Wrapf(err, "runlog: run %d", r.ID)
		}
		r.Wall = time.Duration(wall)
		if err = json.Unmarshal([]byte(args), &r.Args); err != nil {
			return nil, errors.Wrapf(err, "runlog: run %d args", r.ID)
		}
		r.Cycles, r.SimTime, r.Samples = uint64(cyc), uint64(simt), uint64(samples)
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "runlog: read runs")
}

// Close closes the database.
//
func (l *Log) Close() error {
	return l.db.Close()
}
