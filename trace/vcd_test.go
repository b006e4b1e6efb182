// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package trace_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/tbharness/trace"
	"github.com/pkg/errors"
)

type nopCloser struct {
	bytes.Buffer
	closed int
}

func (b *nopCloser) Close() error { b.closed++; return nil }

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }
func (failWriter) Close() error                { return nil }

func TestWriter_dump(t *testing.T) {
	var clk, cnt uint64
	w := trace.New("1ps")
	if _, err := w.Add("top", "clk", 1, func() uint64 { return clk }); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Add("top.dut", "count", 4, func() uint64 { return cnt }); err != nil {
		t.Fatal(err)
	}
	var out nopCloser
	if err := w.OpenWriter(&out); err != nil {
		t.Fatal(err)
	}
	w.Dump(0)
	clk = 1
	cnt = 0x13 // truncated to 4 bits
	w.Dump(5)
	w.Dump(10) // no change
	clk = 0
	w.Dump(15)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if out.closed != 1 {
		t.Fatalf("underlying writer closed %d times", out.closed)
	}
	if w.Samples() != 4 {
		t.Errorf("expected 4 samples, got %d", w.Samples())
	}

	exp := `$version tbharness $end
$timescale 1ps $end
$scope module top $end
$var wire 1 ! clk $end
$scope module dut $end
$var wire 4 " count $end
$upscope $end
$upscope $end
$enddefinitions $end
#0
$dumpvars
0!
b0 "
$end
#5
1!
b11 "
#15
0!
`
	if got := out.String(); got != exp {
		t.Errorf("unexpected output:\n%s\nexpected:\n%s", got, exp)
	}
}

func TestWriter_dumpVars(t *testing.T) {
	td := []struct {
		name   string
		levels int
		scope  string
		want   []string
	}{
		{"all", 0, "", []string{"a", "b", "c", "d"}},
		{"scope", 0, "top.dut", []string{"b", "c"}},
		{"one_level", 1, "top.dut", []string{"b"}},
		{"two_levels", 2, "top", []string{"a", "b"}},
		{"no_match", 0, "other", nil},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			w := trace.New("")
			w.DumpVars(d.levels, d.scope)
			var got []string
			for _, v := range []struct{ scope, name string }{
				{"top", "a"},
				{"top.dut", "b"},
				{"top.dut.sub", "c"},
				{"tb", "d"},
			} {
				ok, err := w.Add(v.scope, v.name, 1, func() uint64 { return 0 })
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					got = append(got, v.name)
				}
			}
			if strings.Join(got, ",") != strings.Join(d.want, ",") {
				t.Errorf("got %v, want %v", got, d.want)
			}
			if w.Len() != len(d.want) {
				t.Errorf("Len() = %d, want %d", w.Len(), len(d.want))
			}
		})
	}
}

func TestWriter_file(t *testing.T) {
	name := filepath.Join(t.TempDir(), "dump.vcd")
	var v uint64
	w := trace.New("1ps")
	if _, err := w.Add("top", "v", 1, func() uint64 { return v }); err != nil {
		t.Fatal(err)
	}
	if err := w.Open(name); err != nil {
		t.Fatal(err)
	}
	if !w.IsOpen() {
		t.Fatal("writer not open")
	}
	if _, err := w.Add("top", "late", 1, func() uint64 { return 0 }); err == nil {
		t.Error("expected error when adding a signal after open")
	}
	if err := w.Open(name); err == nil {
		t.Error("expected error on second open")
	}
	for i := uint64(0); i < 10; i++ {
		v = i & 1
		w.Dump(i)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if w.IsOpen() {
		t.Fatal("writer still open")
	}
	w.Dump(11) // ignored
	if w.Samples() != 10 {
		t.Errorf("expected 10 samples, got %d", w.Samples())
	}
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(b, []byte("#9\n1!\n")) {
		t.Errorf("unexpected file tail: %q", b[len(b)-10:])
	}
	if err := w.Open(name); err == nil {
		t.Error("expected error when reopening a closed writer")
	}
	os.Remove(name)
}

func TestWriter_writeError(t *testing.T) {
	w := trace.New("1ns")
	if _, err := w.Add("top", "v", 1, func() uint64 { return 1 }); err != nil {
		t.Fatal(err)
	}
	// the header fits in the buffer, the error shows up on flush.
	if err := w.OpenWriter(failWriter{}); err != nil {
		t.Fatal(err)
	}
	w.Dump(0)
	if err := w.Close(); err == nil {
		t.Fatal("expected a write error")
	}
	if w.Err() == nil {
		t.Fatal("Err() returned nil")
	}
}

func TestWriter_manySignals(t *testing.T) {
	w := trace.New("")
	ids := make(map[string]bool)
	var out nopCloser
	for i := 0; i < 200; i++ {
		if _, err := w.Add("top", "s", 1, func() uint64 { return 0 }); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.OpenWriter(&out); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	for _, l := range strings.Split(out.String(), "\n") {
		if !strings.HasPrefix(l, "$var") {
			continue
		}
		id := strings.Fields(l)[3]
		if ids[id] {
			t.Fatalf("duplicate identifier %q", id)
		}
		ids[id] = true
	}
	if len(ids) != 200 {
		t.Fatalf("expected 200 identifiers, got %d", len(ids))
	}
}
