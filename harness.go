// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tbharness

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/db47h/tbharness/internal/logging"
	"github.com/db47h/tbharness/plusarg"
	"github.com/db47h/tbharness/trace"
	"github.com/pkg/errors"
)

// Plusarg names.
//
const (
	KeyClockPeriod = "CLOCK_PERIOD_PS_ECE411"
	KeyNoDumpAll   = "NO_DUMP_ALL_ECE411"
)

// Process exit status.
//
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Defaults for the Harness fields.
//
const (
	DefaultTracePath  = "dump.vcd"
	DefaultTraceScope = "top_tb.dut"
)

// ResetCycles is the number of full clock cycles during which reset is held.
//
const ResetCycles = 2

// State is a Harness state.
//
type State int

// Harness states, in order.
//
const (
	Configuring State = iota
	Resetting
	Running
	Terminating
)

func (s State) String() string {
	switch s {
	case Configuring:
		return "configuring"
	case Resetting:
		return "resetting"
	case Running:
		return "running"
	case Terminating:
		return "terminating"
	}
	return "unknown"
}

// Settings are the simulation settings read from plusargs.
//
type Settings struct {
	HalfPeriod uint64 // clock half period in ps
	DumpAll    bool   // record every tick, not only when the design asks for it
}

// Configure reads the simulation settings.
//
// The clock period is mandatory. The half period is the period divided by 2,
// truncated: a period of 11 yields a half period of 5. A period of 0 or 1 is
// rejected since simulated time would never advance.
//
func Configure(m plusarg.Matcher) (Settings, error) {
	period, err := plusarg.Uint(m, KeyClockPeriod)
	if err != nil {
		return Settings{}, err
	}
	s := Settings{
		HalfPeriod: period / 2,
		DumpAll:    !plusarg.Flag(m, KeyNoDumpAll),
	}
	if s.HalfPeriod == 0 {
		return Settings{}, &plusarg.ConfigError{
			Name: KeyClockPeriod,
			Arg:  m.PlusMatch(KeyClockPeriod),
			Err:  errors.Errorf("clock period must be at least 2ps, got %d", period),
		}
	}
	return s, nil
}

// Report is the outcome of a Harness run.
//
type Report struct {
	Status      int // process exit status
	Settings    Settings
	ResetCycles uint64
	Cycles      uint64 // clock cycles run after reset
	Ticks       uint64
	SimTime     uint64 // final simulated time in ps
	Samples     uint64 // trace samples
	Errors      int    // simulation errors
	Interrupted bool
	Err         error
}

// Harness runs a design from reset until it raises the finish condition.
//
type Harness struct {
	TracePath   string       // waveform file, DefaultTracePath if empty
	TraceScope  string       // dotted scope of the recorded signals, "" for all
	TraceLevels int          // scope depth limit, <= 0 for no limit
	Log         *slog.Logger // defaults to slog.Default()
	Summary     io.Writer    // summary output, defaults to os.Stdout
}

func (h *Harness) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

// Run runs a complete simulation: configuration from the plusargs in sc, reset,
// then clock cycles until the design raises the finish condition.
//
// Simulation errors do not stop the run but make it fail. Run only stops
// early if ctx is cancelled; this is checked between clock cycles and also
// fails the run. The trace file is closed on every path once opened.
//
func (h *Harness) Run(ctx context.Context, sc *SimContext, build DesignFn) (r *Report) {
	log := h.logger()
	r = &Report{Status: ExitFailure}

	log.Debug("state", "state", Configuring)
	s, err := Configure(sc)
	if err != nil {
		log.Error("TB Error: Invalid command line arg", "err", err)
		r.Err = err
		return r
	}
	r.Settings = s
	clk := Clock{HalfPeriod: s.HalfPeriod}
	sc.FatalOnError(false)

	dut, err := build(sc)
	if err != nil {
		r.Err = errors.Wrap(err, "build design")
		log.Error("design construction failed", "err", r.Err)
		return r
	}
	defer func() {
		dut.Final()
		r.SimTime = sc.Time()
		r.Errors = len(sc.Errors())
		out := h.Summary
		if out == nil {
			out = os.Stdout
		}
		sc.PrintSummary(out)
	}()

	w := trace.New("1ps")
	path := h.TracePath
	if path == "" {
		path = DefaultTracePath
	}
	w.DumpVars(h.TraceLevels, h.TraceScope)
	if err = dut.Trace(w); err != nil {
		r.Err = errors.Wrap(err, "trace registration")
		log.Error("trace setup failed", "err", r.Err)
		return r
	}
	if err = w.Open(path); err != nil {
		r.Err = err
		log.Error("trace setup failed", "err", err)
		return r
	}
	log.Info("trace opened", "path", path, "signals", w.Len())
	if w.Len() == 0 {
		log.Warn("no signal matches the trace scope", "scope", h.TraceScope, "levels", h.TraceLevels)
	}
	closed := false
	closeTrace := func() error {
		if closed {
			return nil
		}
		closed = true
		r.Samples = w.Samples()
		return w.Close()
	}
	defer closeTrace()

	log.Debug("state", "state", Resetting, "half_period", s.HalfPeriod, "dump_all", s.DumpAll)
	dut.SetClk(true)
	dut.SetReset(true)
	clk.TickN(sc, dut, w, s.DumpAll || dut.DumpOn(), ResetCycles)
	dut.SetReset(false)
	r.ResetCycles = ResetCycles
	r.Ticks = 2 * ResetCycles

	log.Debug("state", "state", Running)
	nerr := len(sc.Errors())
	for !sc.GotFinish() {
		if err = ctx.Err(); err != nil {
			r.Interrupted = true
			log.Warn("simulation interrupted", "cycles", r.Cycles, "time", sc.Time())
			break
		}
		clk.TickN(sc, dut, w, s.DumpAll || dut.DumpOn(), 1)
		r.Cycles++
		r.Ticks += 2
		log.Log(ctx, logging.LevelTrace, "cycle", "n", r.Cycles, "time", sc.Time())
		if errs := sc.Errors(); len(errs) > nerr {
			for _, e := range errs[nerr:] {
				log.Warn("simulation error", "err", e)
			}
			nerr = len(errs)
		}
	}

	log.Debug("state", "state", Terminating, "cycles", r.Cycles)
	if err = closeTrace(); err != nil {
		log.Error("trace close failed", "err", err)
		r.Err = err
		return r
	}
	log.Debug("trace closed", "path", path, "samples", r.Samples)
	switch {
	case r.Interrupted:
		r.Err = errors.Wrap(ctx.Err(), "simulation interrupted")
	case sc.GotError():
		r.Err = sc.Err()
	default:
		r.Status = ExitSuccess
	}
	return r
}
