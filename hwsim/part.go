// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"strconv"
	"strings"
)

// A Component is a component in a circuit that can Get and Set states.
//
type Component func(c *Circuit)

// A MountFn mounts a part into socket s. MountFn's should query
// the socket for assigned pin numbers and return closures around
// these pin numbers.
//
// For example, a Not gate can be defined like this:
//
//	not := &PartSpec{
//		Name: "Not",
//		Inputs: IO("in"),
//		Outputs: IO("out"),
//		Mount: func (s *Socket) []Component {
//			in, out := s.Pin("in"), s.Pin("out")
//			return []Component{
//				func (c *Circuit) { c.Set(out, !c.Get(in)) }
//			}
//		}}
//
type MountFn func(s *Socket) []Component

// A PartSpec wraps a part specification (its blueprint).
//
type PartSpec struct {
	// Part name.
	Name string
	// Input pin names. Use IO to expand "a, b, bus[2]" to
	// []string{"a", "b", "bus[0]", "bus[1]"}.
	Inputs []string
	// Output pin names.
	Outputs []string
	// Mount function (see MountFn).
	Mount MountFn
}

// NewPart is a NewPartFn that wraps p with the given connections into a Part.
// It panics if the connection string cannot be parsed.
//
func (p *PartSpec) NewPart(connections string) Part {
	cs, err := ParseConnections(connections)
	if err != nil {
		panic(err)
	}
	return Part{PartSpec: p, Conns: cs}
}

func (p *PartSpec) isInput(name string) bool  { return contains(p.Inputs, name) }
func (p *PartSpec) isOutput(name string) bool { return contains(p.Outputs, name) }

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// A NewPartFn is a function that takes a connection configuration and returns a
// new Part. See ParseConnections for the syntax of the connection configuration
// string.
//
type NewPartFn func(c string) Part

// A Part wraps a part specification together with its connections within a host
// chip.
//
type Part struct {
	*PartSpec
	Instance string // instance name, see Named
	Conns    []Connection
}

// Named returns a copy of p with the given instance name. The instance name
// of a chip is its scope name in traces.
//
func (p Part) Named(instance string) Part {
	p.Instance = instance
	return p
}

func (p *Part) instance(i int) string {
	if p.Instance != "" {
		return p.Instance
	}
	return strings.ToLower(p.Name) + strconv.Itoa(i)
}

// Parts is a convenience wrapper for []Part.
//
type Parts []Part
