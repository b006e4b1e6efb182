// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package trace records waveforms in the Value Change Dump (VCD) format.
//
// Signals are registered with Add before the dump file is opened. Each call to
// Dump then samples every registered signal and writes the ones that changed
// since the previous sample.
//
package trace

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Dumper takes a waveform sample at simulated time t.
//
type Dumper interface {
	Dump(t uint64)
}

type variable struct {
	scope []string
	name  string
	width int
	id    string
	value func() uint64
	last  uint64
}

// Writer is a VCD waveform writer.
//
type Writer struct {
	timescale string
	scope     []string // DumpVars scope
	levels    int      // DumpVars levels

	vars []*variable

	wc      io.WriteCloser
	w       *bufio.Writer
	open    bool
	closed  bool
	started bool
	stamp   uint64
	samples uint64
	err     error
}

// New returns a new Writer. The timescale is written as is in the VCD header,
// for example "1ps".
//
func New(timescale string) *Writer {
	if timescale == "" {
		timescale = "1ps"
	}
	return &Writer{timescale: timescale}
}

// DumpVars restricts the signals accepted by Add to those in the given dotted
// scope (or one of its children), at most levels deep. A scope of "" matches
// everything and levels <= 0 means no depth limit.
//
// With levels = 1, only the signals directly in scope are recorded.
//
func (w *Writer) DumpVars(levels int, scope string) {
	w.levels = levels
	w.scope = splitScope(scope)
}

func splitScope(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

func (w *Writer) accept(scope []string) bool {
	if len(scope) < len(w.scope) {
		return false
	}
	for i, s := range w.scope {
		if scope[i] != s {
			return false
		}
	}
	return w.levels <= 0 || len(scope)-len(w.scope) < w.levels
}

// Add registers a signal of the given bit width in a dotted scope. The value
// function is called on every Dump; only the low width bits of its result are
// recorded.
//
// Add returns true if the signal was accepted by the DumpVars filter.
//
func (w *Writer) Add(scope string, name string, width int, value func() uint64) (bool, error) {
	if w.open || w.closed {
		return false, errors.Errorf("trace: signal %s.%s registered after open", scope, name)
	}
	if width < 1 || width > 64 {
		return false, errors.Errorf("trace: signal %s.%s: invalid width %d", scope, name, width)
	}
	sc := splitScope(scope)
	if !w.accept(sc) {
		return false, nil
	}
	w.vars = append(w.vars, &variable{
		scope: sc,
		name:  name,
		width: width,
		id:    identifier(len(w.vars)),
		value: value,
	})
	return true, nil
}

// Len returns the number of registered signals.
//
func (w *Writer) Len() int { return len(w.vars) }

// identifier returns the VCD short identifier for the n-th variable, using the
// printable characters '!' to '~'.
//
func identifier(n int) string {
	const base = '~' - '!' + 1
	var b []byte
	for {
		b = append(b, byte('!'+n%base))
		n /= base
		if n == 0 {
			break
		}
		n--
	}
	return string(b)
}

// Open creates the named file and writes the VCD header.
//
func (w *Writer) Open(name string) error {
	if w.open || w.closed {
		return errors.New("trace: already opened")
	}
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "trace: open")
	}
	return w.OpenWriter(f)
}

// OpenWriter is like Open but writes to wc. wc is closed by Close.
//
func (w *Writer) OpenWriter(wc io.WriteCloser) error {
	if w.open || w.closed {
		return errors.New("trace: already opened")
	}
	w.wc = wc
	w.w = bufio.NewWriter(wc)
	w.open = true
	w.header()
	return w.err
}

// IsOpen returns true between a successful Open and Close.
//
func (w *Writer) IsOpen() bool { return w.open }

func (w *Writer) write(s ...string) {
	if w.err != nil {
		return
	}
	for _, v := range s {
		if _, err := w.w.WriteString(v); err != nil {
			w.err = errors.Wrap(err, "trace: write")
			return
		}
	}
}

type scopeNode struct {
	name     string
	vars     []*variable
	children []*scopeNode
}

func (n *scopeNode) child(name string) *scopeNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	c := &scopeNode{name: name}
	n.children = append(n.children, c)
	return c
}

func (w *Writer) header() {
	root := &scopeNode{}
	for _, v := range w.vars {
		n := root
		for _, s := range v.scope {
			n = n.child(s)
		}
		n.vars = append(n.vars, v)
	}
	w.write("$version tbharness $end\n",
		"$timescale ", w.timescale, " $end\n")
	w.writeScope(root)
	w.write("$enddefinitions $end\n")
}

func (w *Writer) writeScope(n *scopeNode) {
	for _, v := range n.vars {
		w.write("$var wire ", strconv.Itoa(v.width), " ", v.id, " ", v.name, " $end\n")
	}
	for _, c := range n.children {
		w.write("$scope module ", c.name, " $end\n")
		w.writeScope(c)
		w.write("$upscope $end\n")
	}
}

func (w *Writer) writeValue(v *variable, val uint64) {
	if v.width == 1 {
		w.write(strconv.FormatUint(val, 2), v.id, "\n")
		return
	}
	w.write("b", strconv.FormatUint(val, 2), " ", v.id, "\n")
}

func (v *variable) sample() uint64 {
	val := v.value()
	if v.width < 64 {
		val &= 1<<uint(v.width) - 1
	}
	return val
}

// Dump samples all registered signals at time t. It does nothing if the
// writer is not open.
//
func (w *Writer) Dump(t uint64) {
	if !w.open {
		return
	}
	w.samples++
	if !w.started {
		w.started = true
		w.stamp = t
		w.write("#", strconv.FormatUint(t, 10), "\n$dumpvars\n")
		for _, v := range w.vars {
			v.last = v.sample()
			w.writeValue(v, v.last)
		}
		w.write("$end\n")
		return
	}
	for _, v := range w.vars {
		val := v.sample()
		if val == v.last {
			continue
		}
		if t != w.stamp {
			w.stamp = t
			w.write("#", strconv.FormatUint(t, 10), "\n")
		}
		v.last = val
		w.writeValue(v, val)
	}
}

// Samples returns the number of samples taken while open.
//
func (w *Writer) Samples() uint64 { return w.samples }

// Err returns the first write error, if any.
//
func (w *Writer) Err() error { return w.err }

// Close flushes pending output and closes the underlying file. Only the first
// call has any effect. It returns the first error encountered while writing.
//
func (w *Writer) Close() error {
	if !w.open {
		return nil
	}
	w.open = false
	w.closed = true
	if w.err == nil {
		if err := w.w.Flush(); err != nil {
			w.err = errors.Wrap(err, "trace: flush")
		}
	}
	if err := w.wc.Close(); err != nil && w.err == nil {
		w.err = errors.Wrap(err, "trace: close")
	}
	return w.err
}
