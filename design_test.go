// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tbharness_test

import (
	"github.com/db47h/tbharness"
	"github.com/db47h/tbharness/trace"
)

// counter is a behavioral design counting raising clock edges out of reset.
type counter struct {
	sc       *tbharness.SimContext
	clk      bool
	prev     bool
	rst      bool
	dumpOn   bool
	count    uint64
	finishAt uint64
	errorAt  uint64
	evals    int
	final    bool
}

func (d *counter) Clk() bool { return d.clk }
func (d *counter) SetClk(v bool) { d.clk = v }
func (d *counter) SetReset(v bool) { d.rst = v }
func (d *counter) DumpOn() bool { return d.dumpOn }
func (d *counter) Final() { d.final = true }

func (d *counter) Eval() {
	d.evals++
	if d.clk && !d.prev {
		if d.rst {
			d.count = 0
		} else {
			d.count++
			if d.count == d.errorAt {
				d.sc.Errorf("count reached %d", d.count)
			}
			if d.count == d.finishAt {
				d.sc.Finish()
			}
		}
	}
	d.prev = d.clk
}

func (d *counter) Trace(w *trace.Writer) error {
	if _, err := w.Add("top_tb", "clk", 1, func() uint64 {
		if d.clk {
			return 1
		}
		return 0
	}); err != nil {
		return err
	}
	_, err := w.Add("top_tb.dut", "count", 16, func() uint64 { return d.count })
	return err
}
