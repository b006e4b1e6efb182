// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest_test

import (
	"testing"

	"github.com/db47h/tbharness/hwsim"
	"github.com/db47h/tbharness/hwsim/hwlib"
	"github.com/db47h/tbharness/hwsim/hwtest"
)

func TestComparePart(t *testing.T) {
	or, err := hwsim.Chip("custom_or", "a,b", "out",
		hwlib.Nand("a=a, b=a, out=notA"),
		hwlib.Nand("a=b, b=b, out=notB"),
		hwlib.Nand("a=notA, b=notB, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	hwtest.ComparePart(t, hwlib.Or, or)
}

func TestCycle(t *testing.T) {
	var q bool
	c, err := hwsim.NewCircuit("top", 1, 4,
		hwlib.DFF("in=true, out=q"),
		hwlib.Output(func(v bool) { q = v })("in=q"),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()
	if q {
		t.Fatal("q set before first cycle")
	}
	hwtest.Cycle(c)
	if !q {
		t.Fatal("q not latched after a cycle")
	}
}
