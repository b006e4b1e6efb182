// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing circuits.
//
package hwtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/tbharness/hwsim"
	"github.com/db47h/tbharness/hwsim/hwlib"
)

// settle is generous enough for any part built from a few levels of gates.
const settle = 16

func connString(pins ...[]string) string {
	var b strings.Builder
	for _, ps := range pins {
		for _, n := range ps {
			if b.Len() > 0 {
				b.WriteRune(',')
			}
			b.WriteString(n)
			b.WriteRune('=')
			b.WriteString(n)
		}
	}
	return b.String()
}

func randBool(r *rand.Rand) bool {
	return r.Int63()&(1<<62) != 0
}

// Cycle runs one full clock cycle on c: a falling edge then a raising edge,
// each followed by Eval.
//
func Cycle(c *hwsim.Circuit) {
	c.SetClk(false)
	c.Eval()
	c.SetClk(true)
	c.Eval()
}

// ComparePart takes two parts and compares their outputs given the same inputs.
// Both parts must have the same Input/Output interface.
//
func ComparePart(t *testing.T, part1 hwsim.NewPartFn, part2 hwsim.NewPartFn) {
	t.Helper()

	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	ps1, ps2 := part1(""), part2("")

	// compare specs
	if len(ps1.Inputs) != len(ps2.Inputs) {
		t.Fatal("len(ps1.Inputs) != len(ps2.Inputs)")
	}
	if len(ps1.Outputs) != len(ps2.Outputs) {
		t.Fatal("len(ps1.Outputs) != len(ps2.Outputs)")
	}
	for i := range ps1.Inputs {
		if ps1.Inputs[i] != ps2.Inputs[i] {
			t.Fatalf("ps1.Inputs[i] = %q != ps2.Inputs[i] = %q", ps1.Inputs[i], ps2.Inputs[i])
		}
	}
	for i := range ps1.Outputs {
		if ps1.Outputs[i] != ps2.Outputs[i] {
			t.Fatalf("ps1.Outputs[i] = %q != ps2.Outputs[i] = %q", ps1.Outputs[i], ps2.Outputs[i])
		}
	}

	inputs := make([]bool, len(ps1.Inputs))
	outputs := make([][2]bool, len(ps1.Outputs))

	var parts hwsim.Parts
	for i, n := range ps1.Inputs {
		k := i
		parts = append(parts, hwlib.Input(func() bool { return inputs[k] })("out="+n))
	}
	// each part gets its own set of output wires.
	conns1, conns2 := connString(ps1.Inputs), connString(ps1.Inputs)
	for i, o := range ps1.Outputs {
		n := i
		w1, w2 := "p1_"+wireName(o), "p2_"+wireName(o)
		conns1 += "," + o + "=" + w1
		conns2 += "," + o + "=" + w2
		parts = append(parts,
			hwlib.Output(func(b bool) { outputs[n][0] = b })("in="+w1),
			hwlib.Output(func(b bool) { outputs[n][1] = b })("in="+w2))
	}
	parts = append(parts, part1(strings.TrimPrefix(conns1, ",")), part2(strings.TrimPrefix(conns2, ",")))

	c, err := hwsim.NewCircuit("compare", 0, settle, parts...)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	errString := func(oname string, ex, got bool) string {
		var b strings.Builder
		for i, n := range ps1.Inputs {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", n, inputs[i])
		}
		return fmt.Sprintf("\nExpected %s => %s=%v\nGot %v", b.String(), oname, ex, got)
	}
	check := func() {
		t.Helper()
		for o, out := range outputs {
			if out[0] != out[1] {
				t.Fatal(errString(ps1.Outputs[o], out[0], out[1]))
			}
		}
	}

	iter := len(ps1.Inputs)
	if iter > 12 {
		iter = 12
	}
	iter = 1 << uint(iter)

	start := time.Now()

	// try all 0
	Cycle(c)
	check()

	// try all 1
	for in := range inputs {
		inputs[in] = true
	}
	Cycle(c)
	check()

	for i := 0; i < iter; i++ {
		for in := range inputs {
			inputs[in] = randBool(r)
		}
		Cycle(c)
		check()
	}

	elapsed := time.Since(start)
	t.Logf("%d components. %d steps in %v.", c.Size(), c.Steps(), elapsed)
}

// wireName turns a bus pin name like "out[3]" into a plain wire name.
//
func wireName(pin string) string {
	return strings.NewReplacer("[", "_", "]", "").Replace(pin)
}
