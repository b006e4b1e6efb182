// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tbharness

import "github.com/db47h/tbharness/trace"

// Clock drives the clock input of a design.
//
// A zero HalfPeriod is accepted here, simulated time then never advances.
// Configure rejects it.
//
type Clock struct {
	HalfPeriod uint64 // in ps
}

// Tick advances simulated time by one half period, toggles the clock, evaluates
// the design and, if dump is true, takes a trace sample at the new time.
//
// Two ticks make a full clock cycle.
//
func (k Clock) Tick(sc *SimContext, dut Design, d trace.Dumper, dump bool) {
	sc.TimeInc(k.HalfPeriod)
	dut.SetClk(!dut.Clk())
	dut.Eval()
	if dump {
		d.Dump(sc.Time())
	}
}

// TickN runs the given number of full clock cycles, that is 2*cycles ticks.
//
func (k Clock) TickN(sc *SimContext, dut Design, d trace.Dumper, dump bool, cycles int) {
	for i := 0; i < cycles*2; i++ {
		k.Tick(sc, dut, d, dump)
	}
}
