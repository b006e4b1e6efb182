// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tbharness

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/db47h/tbharness/plusarg"
	"github.com/pkg/errors"
)

// SimulationError is an error raised from within the simulated design, like a
// failed assertion.
//
type SimulationError struct {
	Time uint64 // simulated time in ps
	Msg  string
}

func (e *SimulationError) Error() string {
	return "at " + strconv.FormatUint(e.Time, 10) + "ps: " + e.Msg
}

// SimContext holds the state of one simulation run: simulated time, command
// line arguments and the finish and error conditions.
//
// A SimContext is not safe for concurrent use. Designs may call Finish and
// Errorf from within Eval.
//
type SimContext struct {
	time         uint64
	args         plusarg.Args
	fatalOnError bool
	finish       bool
	errs         []error
	start        time.Time
}

// NewSimContext returns a new simulation context at time 0.
//
// Errors are fatal by default: the first call to Errorf also raises the finish
// condition. See FatalOnError.
//
func NewSimContext() *SimContext {
	return &SimContext{fatalOnError: true, start: time.Now()}
}

// CommandArgs sets the command line arguments searched by PlusMatch.
//
func (sc *SimContext) CommandArgs(args []string) {
	sc.args = append(plusarg.Args(nil), args...)
}

// PlusMatch implements plusarg.Matcher.
//
func (sc *SimContext) PlusMatch(prefix string) string {
	return sc.args.PlusMatch(prefix)
}

// Time returns the current simulated time.
//
func (sc *SimContext) Time() uint64 { return sc.time }

// TimeInc advances simulated time by d.
//
func (sc *SimContext) TimeInc(d uint64) { sc.time += d }

// FatalOnError sets the error policy. When false, errors are recorded and the
// simulation keeps going.
//
func (sc *SimContext) FatalOnError(fatal bool) { sc.fatalOnError = fatal }

// Finish raises the finish condition.
//
func (sc *SimContext) Finish() { sc.finish = true }

// GotFinish returns true once the finish condition has been raised.
//
func (sc *SimContext) GotFinish() bool { return sc.finish }

// Errorf records a SimulationError at the current simulated time.
//
func (sc *SimContext) Errorf(format string, args ...interface{}) {
	sc.errs = append(sc.errs, &SimulationError{Time: sc.time, Msg: fmt.Sprintf(format, args...)})
	if sc.fatalOnError {
		sc.finish = true
	}
}

// GotError returns true if at least one error was recorded.
//
func (sc *SimContext) GotError() bool { return len(sc.errs) > 0 }

// Errors returns the recorded errors.
//
func (sc *SimContext) Errors() []error { return sc.errs }

// Err returns nil if no error was recorded. Otherwise it returns the first
// error annotated with the total error count.
//
func (sc *SimContext) Err() error {
	switch len(sc.errs) {
	case 0:
		return nil
	case 1:
		return sc.errs[0]
	}
	return errors.Wrapf(sc.errs[0], "%d simulation errors, first one", len(sc.errs))
}

// PrintSummary writes a short report of the run to w.
//
func (sc *SimContext) PrintSummary(w io.Writer) {
	wall := time.Since(sc.start)
	var speed float64
	if s := wall.Seconds(); s > 0 {
		speed = float64(sc.time) / 1000 / s
	}
	status := "end of simulation"
	if sc.finish {
		status = "$finish"
	}
	fmt.Fprintf(w, "- S i m u l a t i o n   R e p o r t: %s at %s; walltime %.3f s; speed %.3f ns/s\n",
		status, formatTime(sc.time), wall.Seconds(), speed)
	fmt.Fprintf(w, "- errors: %d\n", len(sc.errs))
}

func formatTime(ps uint64) string {
	switch {
	case ps >= 1000000:
		return strconv.FormatFloat(float64(ps)/1e6, 'f', 3, 64) + " us"
	case ps >= 1000:
		return strconv.FormatFloat(float64(ps)/1e3, 'f', 3, 64) + " ns"
	}
	return strconv.FormatUint(ps, 10) + " ps"
}
