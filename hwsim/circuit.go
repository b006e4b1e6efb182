// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"runtime"
	"sync"

	"github.com/db47h/tbharness/trace"
	"github.com/pkg/errors"
)

type probe struct {
	scope string
	name  string
	pins  []int // lsb first
}

// Circuit is a runnable circuit simulation.
//
type Circuit struct {
	name   string
	s0     []bool // wire states frame #0
	s1     []bool // wire states frame #1
	cs     []Component
	count  int  // wire count
	settle uint // steps per Eval
	steps  uint

	clk  bool
	prev bool // clk at the end of the previous Eval
	pos  bool
	neg  bool

	probes []probe

	wc []chan struct{}
	wg sync.WaitGroup
}

// NewCircuit builds a new circuit based on the given parts. The parts are
// wrapped into a top level chip whose instance name is name.
//
// workers is the number of goroutines used to update the state of the Circuit
// each step of the simulation. If less or equal to 0, the value of GOMAXPROCS
// will be used.
//
// settle is the number of simulation steps run by Eval. It must be large
// enough for signals to propagate through the longest combinational path (a
// built-in gate takes one step to update its output).
//
// Callers must make sure to call Dispose() once the circuit is no longer needed
// in order to release allocated resources.
//
func NewCircuit(name string, workers int, settle uint, parts ...Part) (*Circuit, error) {
	if len(parts) == 0 {
		return nil, errors.New("empty part list")
	}
	if settle == 0 {
		settle = 1
	}

	// new circuit with room for constant value pins.
	cc := &Circuit{name: name, count: cstCount, settle: settle}
	wrap, err := Chip(name, "", "", parts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create chip wrapper")
	}
	ups := wrap("").Mount(newSocket(cc, name))
	ups = append(ups, checkConstants)
	cc.cs = ups
	cc.s0 = make([]bool, cc.count)
	cc.s1 = make([]bool, cc.count)
	cc.s0[cstTrue] = true
	cc.s1[cstTrue] = true

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers <= 0 {
		workers = 1
	}
	for len(ups) > 0 {
		size := len(ups) / workers
		if size*workers < len(ups) {
			size++
		}
		wc := make(chan struct{}, 1)
		cc.wc = append(cc.wc, wc)
		go worker(cc, ups[:size], wc)
		ups = ups[size:]
	}

	return cc, nil
}

func checkConstants(c *Circuit) {
	if c.s0[cstFalse] || !c.s0[cstTrue] {
		panic("true or false constants have been overwritten")
	}
	c.s1[cstClk] = c.clk
}

// Dispose releases all resources allocated for a circuit and stops
// worker goroutines. Calling Dispose more than once has no effect.
//
func (c *Circuit) Dispose() {
	if c.wc == nil {
		return
	}
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		close(wc)
	}
	c.wg.Wait()
	c.wc = nil
}

func worker(c *Circuit, cs []Component, wc <-chan struct{}) {
	for {
		_, ok := <-wc
		if !ok {
			c.wg.Done()
			return
		}
		for _, f := range cs {
			f(c)
		}
		c.wg.Done()
	}
}

// alloc allocates a pin and returns its number.
//
func (c *Circuit) allocPin() int {
	cnt := c.count
	c.count++
	return cnt
}

// Name returns the instance name of the top level chip.
//
func (c *Circuit) Name() string { return c.name }

// Steps returns the value of the step counter.
//
func (c *Circuit) Steps() uint {
	return c.steps
}

// Size returns the component count in the circuit.
//
func (c *Circuit) Size() int { return len(c.cs) }

// Clk returns the state of the clock input.
//
func (c *Circuit) Clk() bool { return c.clk }

// SetClk sets the clock input. The new value is seen by components on the
// next call to Eval.
//
func (c *Circuit) SetClk(v bool) { c.clk = v }

// Posedge returns true during the first step of an Eval following a raising
// edge of the clock.
//
func (c *Circuit) Posedge() bool { return c.pos }

// Negedge returns true during the first step of an Eval following a falling
// edge of the clock.
//
func (c *Circuit) Negedge() bool { return c.neg }

// Get returns the state of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Get(n int) bool {
	return c.s0[n]
}

// Set sets the state s of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Set(n int, s bool) {
	c.s1[n] = s
}

// Step advances the simulation by one step.
//
func (c *Circuit) Step() {
	c.s0[cstClk] = c.clk
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		wc <- struct{}{}
	}

	c.wg.Wait()
	c.steps++
	c.s0, c.s1 = c.s1, c.s0
}

// Eval runs the simulation for the configured number of steps, letting the
// circuit settle after a change of its inputs or clock.
//
func (c *Circuit) Eval() {
	c.pos = c.clk && !c.prev
	c.neg = !c.clk && c.prev
	for i := uint(0); i < c.settle; i++ {
		c.Step()
		c.pos, c.neg = false, false
	}
	c.prev = c.clk
}

func (c *Circuit) value(pins []int) uint64 {
	var v uint64
	for bit, p := range pins {
		if c.s0[p] {
			v |= 1 << uint(bit)
		}
	}
	return v
}

// Trace registers the clock and every chip pin or wire with w. Each chip
// instance is a scope; w.DumpVars selects which scopes are recorded.
//
// Buses are registered as a single signal and must not be wider than 64 bits.
//
func (c *Circuit) Trace(w *trace.Writer) error {
	if _, err := w.Add(c.name, Clk, 1, func() uint64 { return c.value([]int{cstClk}) }); err != nil {
		return err
	}
	for _, p := range c.probes {
		pins := p.pins
		if _, err := w.Add(p.scope, p.name, len(pins), func() uint64 { return c.value(pins) }); err != nil {
			return errors.Wrapf(err, "circuit %s", c.name)
		}
	}
	return nil
}
