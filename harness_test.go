// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tbharness_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/tbharness"
	"github.com/db47h/tbharness/plusarg"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	td := []struct {
		args []string
		s    tbharness.Settings
		err  string
	}{
		{[]string{"+CLOCK_PERIOD_PS_ECE411=10"}, tbharness.Settings{HalfPeriod: 5, DumpAll: true}, ""},
		{[]string{"+CLOCK_PERIOD_PS_ECE411=11", "+NO_DUMP_ALL_ECE411"}, tbharness.Settings{HalfPeriod: 5}, ""},
		{[]string{"+CLOCK_PERIOD_PS_ECE411", "10"}, tbharness.Settings{}, "): no value"},
		{nil, tbharness.Settings{}, "+CLOCK_PERIOD_PS_ECE411: missing"},
		{[]string{"+CLOCK_PERIOD_PS_ECE411=1"}, tbharness.Settings{}, "clock period must be at least 2ps, got 1"},
		{[]string{"+CLOCK_PERIOD_PS_ECE411=-4"}, tbharness.Settings{}, "invalid value"},
	}
	for _, d := range td {
		s, err := tbharness.Configure(plusarg.Args(d.args))
		if d.err != "" {
			require.Error(t, err, "%v", d.args)
			assert.True(t, plusarg.IsConfigError(err), "%v: not a ConfigError: %v", d.args, err)
			assert.Contains(t, err.Error(), d.err, "%v", d.args)
			continue
		}
		require.NoError(t, err, "%v", d.args)
		assert.Equal(t, d.s, s, "%v", d.args)
	}
}

type run struct {
	r       *tbharness.Report
	d       *counter
	path    string
	summary string
}

func (r *run) trace(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(r.path)
	require.NoError(t, err)
	return string(b)
}

func runHarness(t *testing.T, ctx context.Context, d *counter, args ...string) *run {
	t.Helper()
	var sum bytes.Buffer
	rr := &run{d: d, path: filepath.Join(t.TempDir(), "dump.vcd")}
	h := &tbharness.Harness{
		TracePath: rr.path,
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Summary:   &sum,
	}
	sc := tbharness.NewSimContext()
	sc.CommandArgs(args)
	rr.r = h.Run(ctx, sc, func(sc *tbharness.SimContext) (tbharness.Design, error) {
		d.sc = sc
		return d, nil
	})
	rr.summary = sum.String()
	return rr
}

func TestHarness_Run(t *testing.T) {
	rr := runHarness(t, context.Background(), &counter{finishAt: 100}, "+CLOCK_PERIOD_PS_ECE411=10")
	r := rr.r
	require.NoError(t, r.Err)
	assert.Equal(t, tbharness.ExitSuccess, r.Status)
	assert.Equal(t, tbharness.Settings{HalfPeriod: 5, DumpAll: true}, r.Settings)
	assert.Equal(t, uint64(tbharness.ResetCycles), r.ResetCycles)
	assert.Equal(t, uint64(100), r.Cycles)
	assert.Equal(t, uint64(204), r.Ticks)
	assert.Equal(t, uint64(1020), r.SimTime)
	assert.Equal(t, r.Ticks, r.Samples)
	assert.Equal(t, 0, r.Errors)
	assert.False(t, r.Interrupted)
	assert.True(t, rr.d.final)
	assert.False(t, rr.d.rst)
	assert.Equal(t, uint64(100), rr.d.count)

	vcd := rr.trace(t)
	assert.True(t, strings.HasPrefix(vcd, "$version tbharness $end\n"))
	assert.Contains(t, vcd, "$timescale 1ps $end\n")
	assert.Contains(t, vcd, "$scope module dut $end\n")
	assert.Contains(t, vcd, "#5\n")
	assert.Contains(t, vcd, "#1020\n")
	assert.Contains(t, rr.summary, "$finish at 1.020 ns")
	assert.Contains(t, rr.summary, "- errors: 0\n")
}

func TestHarness_RunDumpOn(t *testing.T) {
	rr := runHarness(t, context.Background(), &counter{finishAt: 10},
		"+CLOCK_PERIOD_PS_ECE411=10", "+NO_DUMP_ALL_ECE411")
	assert.Equal(t, tbharness.ExitSuccess, rr.r.Status)
	assert.Equal(t, uint64(0), rr.r.Samples)
	assert.NotContains(t, rr.trace(t), "#")

	rr = runHarness(t, context.Background(), &counter{finishAt: 10, dumpOn: true},
		"+CLOCK_PERIOD_PS_ECE411=10", "+NO_DUMP_ALL_ECE411")
	assert.Equal(t, tbharness.ExitSuccess, rr.r.Status)
	assert.Equal(t, rr.r.Ticks, rr.r.Samples)
}

func TestHarness_RunConfigError(t *testing.T) {
	d := &counter{finishAt: 10}
	rr := runHarness(t, context.Background(), d)
	assert.Equal(t, tbharness.ExitFailure, rr.r.Status)
	assert.True(t, plusarg.IsConfigError(rr.r.Err))
	assert.Nil(t, d.sc, "design built despite configuration error")
	_, err := os.Stat(rr.path)
	assert.True(t, os.IsNotExist(err), "trace file created")
	assert.Empty(t, rr.summary)
}

func TestHarness_RunSimulationError(t *testing.T) {
	rr := runHarness(t, context.Background(), &counter{finishAt: 20, errorAt: 5}, "+CLOCK_PERIOD_PS_ECE411=10")
	r := rr.r
	assert.Equal(t, tbharness.ExitFailure, r.Status)
	assert.Equal(t, uint64(20), r.Cycles, "errors must not stop the simulation")
	assert.Equal(t, 1, r.Errors)
	assert.EqualError(t, r.Err, "at 70ps: count reached 5")
	assert.NotEmpty(t, rr.trace(t))
	assert.Contains(t, rr.summary, "- errors: 1\n")
}

func TestHarness_RunInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rr := runHarness(t, ctx, &counter{finishAt: 20}, "+CLOCK_PERIOD_PS_ECE411=10")
	r := rr.r
	assert.Equal(t, tbharness.ExitFailure, r.Status)
	assert.True(t, r.Interrupted)
	assert.Equal(t, uint64(0), r.Cycles)
	assert.True(t, errors.Is(r.Err, context.Canceled))
	assert.True(t, rr.d.final)
	assert.Contains(t, rr.trace(t), "#20\n", "reset ticks are recorded")
}

func TestHarness_RunBuildError(t *testing.T) {
	h := &tbharness.Harness{
		TracePath: filepath.Join(t.TempDir(), "dump.vcd"),
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Summary:   io.Discard,
	}
	sc := tbharness.NewSimContext()
	sc.CommandArgs([]string{"+CLOCK_PERIOD_PS_ECE411=10"})
	r := h.Run(context.Background(), sc, func(*tbharness.SimContext) (tbharness.Design, error) {
		return nil, errors.New("no such design")
	})
	assert.Equal(t, tbharness.ExitFailure, r.Status)
	assert.EqualError(t, r.Err, "build design: no such design")
}

func TestHarness_RunTraceError(t *testing.T) {
	d := &counter{finishAt: 10}
	h := &tbharness.Harness{
		TracePath: filepath.Join(t.TempDir(), "missing", "dump.vcd"),
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Summary:   io.Discard,
	}
	sc := tbharness.NewSimContext()
	sc.CommandArgs([]string{"+CLOCK_PERIOD_PS_ECE411=10"})
	r := h.Run(context.Background(), sc, func(*tbharness.SimContext) (tbharness.Design, error) {
		d.sc = sc
		return d, nil
	})
	assert.Equal(t, tbharness.ExitFailure, r.Status)
	assert.Error(t, r.Err)
	assert.True(t, d.final)
	assert.Equal(t, 0, d.evals)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "configuring", tbharness.Configuring.String())
	assert.Equal(t, "terminating", tbharness.Terminating.String())
	assert.Equal(t, "unknown", tbharness.State(42).String())
}
