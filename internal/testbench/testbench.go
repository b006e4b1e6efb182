// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package testbench provides the design simulated by the tbharness command.
//
// The top level instance, top_tb, contains a gate level cycle counter (dut)
// and a behavioral monitor. Once out of reset the counter increments on every
// raising clock edge. The monitor ends the simulation when the counter reaches
// a given value, can report an assertion failure on the way and drives the
// dump_on signal that forces waveform recording.
//
package testbench

import (
	"math/bits"
	"strconv"

	"github.com/db47h/tbharness/hwsim"
	"github.com/db47h/tbharness/hwsim/hwlib"
	"github.com/db47h/tbharness/trace"
	"github.com/pkg/errors"
)

// settle covers the longest combinational path: counter register, adder, mux,
// then monitor and output probe.
const settle = 6

// Control receives the finish and error conditions raised by the monitor.
// *tbharness.SimContext implements it.
//
type Control interface {
	Finish()
	Errorf(format string, args ...interface{})
}

// Options configures the test bench.
//
type Options struct {
	Cycles   uint64 // finish when the counter reaches this value
	DumpFrom uint64 // raise dump_on once the counter reaches this value, 0 for never
	ErrorAt  uint64 // report an assertion failure at this count, 0 for never
	Workers  int    // simulation goroutines, <= 0 for GOMAXPROCS
}

// TopTB is an instance of the test bench.
//
type TopTB struct {
	c      *hwsim.Circuit
	rst    bool
	dumpOn bool
	count  uint64
}

// Counter returns an n-bits counter chip with synchronous reset.
//
//	Inputs: rst
//	Outputs: count[bits]
//	Function: count(t) = rst(t-1) ? 0 : count(t-1) + 1
//
func Counter(n int) (hwsim.NewPartFn, error) {
	b := strconv.Itoa(n)
	r := "[0.." + strconv.Itoa(n-1) + "]"
	return hwsim.Chip("Counter", "rst", "count["+b+"]",
		hwlib.AdderN(n)("a"+r+"=count"+r+", b[0]=true, out"+r+"=inc"+r),
		hwlib.MuxN(n)("a"+r+"=inc"+r+", b"+r+"=false, sel=rst, out"+r+"=next"+r),
		hwlib.DFFN(n)("in"+r+"=next"+r+", out"+r+"=count"+r),
	)
}

func monitor(ctl Control, n int, o Options) *hwsim.PartSpec {
	return &hwsim.PartSpec{
		Name:    "Monitor",
		Inputs:  append(hwsim.IO("count["+strconv.Itoa(n)+"]"), "rst"),
		Outputs: []string{"dump_on"},
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			count, rst, dumpOn := s.Bus("count", n), s.Pin("rst"), s.Pin("dump_on")
			scope := s.Scope()
			var finished, failed bool
			return []hwsim.Component{func(c *hwsim.Circuit) {
				if c.Get(rst) {
					c.Set(dumpOn, false)
					return
				}
				v := hwlib.Uint64(c, count)
				c.Set(dumpOn, o.DumpFrom > 0 && v >= o.DumpFrom)
				if o.ErrorAt > 0 && v == o.ErrorAt && !failed {
					failed = true
					ctl.Errorf("%s: assertion failed: count = %d", scope, v)
				}
				if v == o.Cycles && !finished {
					finished = true
					ctl.Finish()
				}
			}}
		},
	}
}

// New returns a new test bench reporting to ctl.
//
func New(ctl Control, o Options) (*TopTB, error) {
	if o.Cycles == 0 {
		return nil, errors.New("testbench: cycle count must be positive")
	}
	n := bits.Len64(o.Cycles)
	r := "[0.." + strconv.Itoa(n-1) + "]"
	cnt, err := Counter(n)
	if err != nil {
		return nil, errors.Wrap(err, "testbench")
	}
	d := new(TopTB)
	c, err := hwsim.NewCircuit("top_tb", o.Workers, settle,
		hwlib.Input(func() bool { return d.rst })("out=rst"),
		cnt("rst=rst, count"+r+"=count"+r).Named("dut"),
		monitor(ctl, n, o).NewPart("rst=rst, count"+r+"=count"+r+", dump_on=dump_on").Named("monitor"),
		hwlib.Output(func(v bool) { d.dumpOn = v })("in=dump_on"),
		hwlib.OutputN(n, func(v uint64) { d.count = v })("in"+r+"=count"+r),
	)
	if err != nil {
		return nil, errors.Wrap(err, "testbench")
	}
	d.c = c
	return d, nil
}

// Clk returns the clock input.
//
func (d *TopTB) Clk() bool { return d.c.Clk() }

// SetClk sets the clock input.
//
func (d *TopTB) SetClk(v bool) { d.c.SetClk(v) }

// SetReset sets the reset input.
//
func (d *TopTB) SetReset(v bool) { d.rst = v }

// DumpOn returns the state of dump_on.
//
func (d *TopTB) DumpOn() bool { return d.dumpOn }

// Count returns the current counter value.
//
func (d *TopTB) Count() uint64 { return d.count }

// Eval lets the circuit settle.
//
func (d *TopTB) Eval() { d.c.Eval() }

// Trace registers the test bench signals with w.
//
func (d *TopTB) Trace(w *trace.Writer) error { return d.c.Trace(w) }

// Final releases the simulation resources.
//
func (d *TopTB) Final() { d.c.Dispose() }
