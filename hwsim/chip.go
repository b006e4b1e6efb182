// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"sort"

	"github.com/pkg/errors"
)

type chip struct {
	PartSpec
	parts []Part
	// wires lists the chip's pins and internal wires in declaration order.
	wires []string
}

func (c *chip) mount(s *Socket) []Component {
	var updaters []Component

	for i := range c.parts {
		p := &c.parts[i]
		sub := newSocket(s.c, s.scope+"."+p.instance(i))
		for _, cn := range p.Conns {
			sub.m[cn.PP] = s.PinOrNew(cn.CP)
		}
		// unconnected inputs are wired to False, unconnected outputs
		// to a fresh pin.
		for _, in := range p.Inputs {
			if _, ok := sub.m[in]; !ok {
				sub.m[in] = cstFalse
			}
		}
		for _, o := range p.Outputs {
			if _, ok := sub.m[o]; !ok {
				sub.m[o] = s.c.allocPin()
			}
		}
		updaters = append(updaters, p.Mount(sub)...)
	}
	for _, w := range c.wires {
		s.PinOrNew(w)
	}
	s.probe(c.wires)
	return updaters
}

// Chip composes existing parts into a new part packaged into a chip.
// The pin names specified as inputs and outputs will be the inputs
// and outputs of the chip.
//
// An Xor gate could be created like this:
//
//	xor, err := Chip("XOR", "a, b", "out",
//		hwlib.Nand("a=a, b=b, out=nandAB"),
//		hwlib.Nand("a=a, b=nandAB, out=w0"),
//		hwlib.Nand("a=b, b=nandAB, out=w1"),
//		hwlib.Nand("a=w0, b=w1, out=out"),
//	)
//
// The returned value is a NewPartFn that can be used to compose the new part
// with others into other chips:
//
//	xnor, err := Chip("XNOR", "a, b", "out",
//		xor("a=a, b=b, out=xorAB"),
//		hwlib.Not("in=xorAB, out=out"),
//	)
//
// Chip checks that every part pin exists, that no wire is driven by more than
// one output, that outputs do not drive constants or chip inputs and that every
// wire read by a part is driven.
//
func Chip(name string, inputs string, outputs string, parts ...Part) (NewPartFn, error) {
	ins, err := ParseIO(inputs)
	if err != nil {
		return nil, errors.Wrapf(err, "chip %s inputs", name)
	}
	outs, err := ParseIO(outputs)
	if err != nil {
		return nil, errors.Wrapf(err, "chip %s outputs", name)
	}

	wires := make([]string, 0, len(ins)+len(outs))
	wires = append(wires, ins...)
	wires = append(wires, outs...)
	known := make(map[string]bool, len(wires))
	for _, w := range wires {
		known[w] = true
	}
	driven := make(map[string]string)
	for _, in := range ins {
		driven[in] = ""
	}
	read := make(map[string]string)

	for _, p := range parts {
		seen := make(map[string]bool, len(p.Conns))
		for _, cn := range p.Conns {
			pn := p.Name + "." + cn.PP
			if seen[cn.PP] {
				return nil, errors.Errorf("%s: pin connected more than once", pn)
			}
			seen[cn.PP] = true
			switch {
			case p.isInput(cn.PP):
				if _, ok := read[cn.CP]; !ok {
					read[cn.CP] = pn
				}
			case p.isOutput(cn.PP):
				switch cn.CP {
				case True, False, Clk:
					return nil, errors.Errorf("%s:%s: output pin connected to constant %s input", pn, cn.CP, cn.CP)
				}
				if d, ok := driven[cn.CP]; ok {
					if d == "" {
						return nil, errors.Errorf("%s:%s: chip input pin used as output", pn, cn.CP)
					}
					return nil, errors.Errorf("%s:%s: output pin already used as output", pn, cn.CP)
				}
				driven[cn.CP] = pn
			default:
				return nil, errors.Errorf("invalid pin name %s for part %s", cn.PP, p.Name)
			}
			if cn.CP != True && cn.CP != False && cn.CP != Clk && !known[cn.CP] {
				known[cn.CP] = true
				wires = append(wires, cn.CP)
			}
		}
	}

	var undriven []string
	for w := range read {
		switch w {
		case True, False, Clk:
			continue
		}
		if _, ok := driven[w]; !ok {
			undriven = append(undriven, w)
		}
	}
	if len(undriven) > 0 {
		sort.Strings(undriven)
		return nil, errors.Errorf("%s: pin %s not connected to any output", read[undriven[0]], undriven[0])
	}

	c := &chip{
		PartSpec: PartSpec{
			Name:    name,
			Inputs:  ins,
			Outputs: outs,
		},
		parts: parts,
		wires: wires,
	}
	c.PartSpec.Mount = c.mount
	return c.PartSpec.NewPart, nil
}
