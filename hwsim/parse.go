// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// A Connection connects a part pin (PP) to a wire in its host chip (CP).
//
type Connection struct {
	PP string
	CP string
}

// ParseConnections parses a connection configuration string of the form
//
//	"a=x, b=y, out=z"
//
// where the left hand side of each assignment is a pin of the part and the
// right hand side a wire in the host chip. Bus ranges are expanded:
//
//	"in[0..3]=bus[4..7]" // 4 connections, in[0]=bus[4] ... in[3]=bus[7]
//	"in[0..3]=false"     // connects all 4 pins to false
//
func ParseConnections(c string) ([]Connection, error) {
	var out []Connection
	if strings.TrimSpace(c) == "" {
		return nil, nil
	}
	for _, a := range strings.Split(c, ",") {
		a = strings.TrimSpace(a)
		i := strings.IndexRune(a, '=')
		if i < 0 {
			return nil, parseError(c, a, "expected pin=wire")
		}
		l, r := strings.TrimSpace(a[:i]), strings.TrimSpace(a[i+1:])
		ls, err := expandRange(l)
		if err != nil {
			return nil, errors.Wrapf(err, "in %q", c)
		}
		rs, err := expandRange(r)
		if err != nil {
			return nil, errors.Wrapf(err, "in %q", c)
		}
		switch {
		case len(ls) == len(rs):
			for i := range ls {
				out = append(out, Connection{ls[i], rs[i]})
			}
		case len(rs) == 1:
			for i := range ls {
				out = append(out, Connection{ls[i], rs[0]})
			}
		default:
			return nil, parseError(c, a, "pin count mismatch")
		}
	}
	return out, nil
}

func parseError(in, at, msg string) error {
	return errors.Errorf("in %q at %q: %s", in, at, msg)
}

// IO expands a comma separated list of pin names and bus declarations into
// individual pin names. It panics on malformed input, see ParseIO.
//
//	IO("a, b, bus[2]") // returns []string{"a", "b", "bus[0]", "bus[1]"}
//
func IO(spec string) []string {
	out, err := ParseIO(spec)
	if err != nil {
		panic(err)
	}
	return out
}

// ParseIO is like IO but returns an error instead of panicking.
//
func ParseIO(spec string) ([]string, error) {
	var out []string
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	for _, n := range strings.Split(spec, ",") {
		n = strings.TrimSpace(n)
		i := strings.IndexRune(n, '[')
		if i < 0 {
			if !isIdent(n) {
				return nil, parseError(spec, n, "invalid pin name")
			}
			out = append(out, n)
			continue
		}
		name := n[:i]
		if !isIdent(name) || !strings.HasSuffix(n, "]") {
			return nil, parseError(spec, n, "invalid bus declaration")
		}
		size, err := strconv.Atoi(n[i+1 : len(n)-1])
		if err != nil || size < 1 {
			return nil, parseError(spec, n, "invalid bus size")
		}
		for b := 0; b < size; b++ {
			out = append(out, BusPinName(name, b))
		}
	}
	return out, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// expandRange expands name[start..end] to individual bus pin names.
// Other names are returned as is.
//
func expandRange(name string) ([]string, error) {
	i := strings.IndexRune(name, '[')
	if i < 0 {
		if !isIdent(name) {
			return nil, errors.Errorf("invalid pin name %q", name)
		}
		return []string{name}, nil
	}
	bus := name[:i]
	if bus == "" {
		return nil, errors.New("empty bus name")
	}
	if !strings.HasSuffix(name, "]") {
		return nil, errors.New("no terminating ] in bus range")
	}
	n := name[i+1 : len(name)-1]
	i = strings.Index(n, "..")
	if i < 0 {
		if _, err := strconv.Atoi(n); err != nil {
			return nil, errors.Errorf("invalid bus index in %q", name)
		}
		return []string{name}, nil
	}
	start, err := strconv.Atoi(n[:i])
	if err != nil {
		return nil, errors.Wrapf(err, "bus range %q", name)
	}
	end, err := strconv.Atoi(n[i+2:])
	if err != nil {
		return nil, errors.Wrapf(err, "bus range %q", name)
	}
	if end < start {
		return nil, errors.Errorf("empty bus range %q", name)
	}
	r := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		r = append(r, BusPinName(bus, i))
	}
	return r, nil
}

// splitBusPin splits "name[idx]" into name and idx.
//
func splitBusPin(n string) (string, int, bool) {
	i := strings.IndexRune(n, '[')
	if i < 0 || !strings.HasSuffix(n, "]") {
		return n, 0, false
	}
	idx, err := strconv.Atoi(n[i+1 : len(n)-1])
	if err != nil {
		return n, 0, false
	}
	return n[:i], idx, true
}
