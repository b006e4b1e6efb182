// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import "strconv"

// Constant input pin names.
//
var (
	True  = "true"
	False = "false"
	Clk   = "clk"
)

const (
	cstFalse = iota
	cstTrue
	cstClk
	cstCount
)

// A Socket maps a part's pin names to pin numbers in a circuit.
//
type Socket struct {
	m     map[string]int
	c     *Circuit
	scope string
}

func newSocket(c *Circuit, scope string) *Socket {
	return &Socket{
		m:     map[string]int{False: cstFalse, True: cstTrue, Clk: cstClk},
		c:     c,
		scope: scope,
	}
}

// Scope returns the dotted instance path of the socket.
//
func (s *Socket) Scope() string { return s.scope }

// Pin returns the pin number allocated to the given pin name.
// This function panics if the pin does not exist.
//
func (s *Socket) Pin(name string) int {
	n, ok := s.m[name]
	if !ok {
		panic("pin " + name + " does not exist")
	}
	return n
}

// PinOrNew returns the pin number allocated to the given pin name.
// If no such pin exists a new one is allocated.
//
func (s *Socket) PinOrNew(name string) int {
	n, ok := s.m[name]
	if !ok {
		n = s.c.allocPin()
		s.m[name] = n
	}
	return n
}

// Bus returns the pin numbers allocated to the given bus name.
// This function panics if any of the bus pins does not exist.
//
func (s *Socket) Bus(name string, bits int) []int {
	out := make([]int, bits)
	for i := range out {
		out[i] = s.Pin(BusPinName(name, i))
	}
	return out
}

// probe registers the named wires of the socket for tracing. Bus pins are
// grouped into a single signal.
//
func (s *Socket) probe(names []string) {
	type bus struct {
		name string
		bits map[int]int
		max  int
	}
	var order []*bus
	buses := make(map[string]*bus)
	for _, n := range names {
		name, idx, ok := splitBusPin(n)
		if !ok {
			s.c.probes = append(s.c.probes, probe{scope: s.scope, name: n, pins: []int{s.m[n]}})
			continue
		}
		b := buses[name]
		if b == nil {
			b = &bus{name: name, bits: make(map[int]int)}
			buses[name] = b
			order = append(order, b)
		}
		b.bits[idx] = s.m[n]
		if idx > b.max {
			b.max = idx
		}
	}
	for _, b := range order {
		pins := make([]int, b.max+1)
		for i := range pins {
			if p, ok := b.bits[i]; ok {
				pins[i] = p
			} else {
				pins[i] = cstFalse
			}
		}
		s.c.probes = append(s.c.probes, probe{scope: s.scope, name: b.name, pins: pins})
	}
}

// BusPinName returns the pin name for the n-th bit of the named bus.
//
func BusPinName(bus string, bit int) string {
	return bus + "[" + strconv.Itoa(bit) + "]"
}
