// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tbharness

import "github.com/db47h/tbharness/trace"

// Design is an instantiated design under test.
//
type Design interface {
	// Clk returns the state of the clock input.
	Clk() bool
	// SetClk sets the clock input.
	SetClk(v bool)
	// SetReset sets the reset input.
	SetReset(v bool)
	// DumpOn returns the state of the design's "force dump" output. When
	// true, the harness records trace samples even if global dumping is off.
	DumpOn() bool
	// Eval recomputes the design state from its current inputs.
	Eval()
	// Trace registers the design signals with w. Scope and depth filtering
	// is left to w.DumpVars.
	Trace(w *trace.Writer) error
	// Final is called once at the end of the simulation.
	Final()
}

// DesignFn instantiates a design bound to a simulation context. The design
// reports finish and error conditions to sc.
//
type DesignFn func(sc *SimContext) (Design, error)
