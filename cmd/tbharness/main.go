// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command tbharness runs the bundled test bench from reset until it finishes
// and records its waveform as a VCD file.
//
// Usage:
//
//	tbharness [flags] +CLOCK_PERIOD_PS_ECE411=<ps> [+NO_DUMP_ALL_ECE411]
//	tbharness history [--limit n]
//
// The exit status is 0 if the simulation finished without error, 1 otherwise.
//
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/db47h/tbharness"
	"github.com/db47h/tbharness/internal/config"
	"github.com/db47h/tbharness/internal/logging"
	"github.com/db47h/tbharness/internal/runlog"
	"github.com/db47h/tbharness/internal/testbench"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	status int
}

// execute runs the command line args and returns the process exit status.
//
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, status: tbharness.ExitFailure}
	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "tbharness:", err)
		return tbharness.ExitFailure
	}
	return a.status
}

func (a *app) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tbharness [flags] [+PLUSARG...]",
		Short: "Clock-driving test harness for gate level simulations",
		Long: `tbharness drives the clock of the top_tb test bench: it holds reset for
two cycles then runs clock cycles until the design raises $finish.

Simulation settings are passed as plusargs:

  +CLOCK_PERIOD_PS_ECE411=<ps>  clock period in picoseconds (required)
  +NO_DUMP_ALL_ECE411           only record the waveform while the design
                                raises dump_on`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runSim,
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "YAML configuration file")
	pf.String("log-level", "", "log level: error, warn, info, debug or trace")
	pf.String("results-db", "", "SQLite run log, empty to disable")

	f := cmd.Flags()
	f.String("trace", "", "waveform output file (default \"dump.vcd\")")
	f.String("scope", "", "dotted scope of the recorded signals (default \"top_tb.dut\")")
	f.Int("levels", 0, "scope depth limit, 0 for none")
	f.Uint64("cycles", 0, "cycle count after which the test bench finishes (default 100)")
	f.Uint64("dump-from", 0, "count from which the test bench raises dump_on, 0 for never")
	f.Uint64("error-at", 0, "count at which the test bench reports an assertion failure, 0 for never")
	f.Int("workers", 0, "simulation goroutines, 0 for GOMAXPROCS")

	cmd.AddCommand(a.newHistoryCmd(), a.newVersionCmd())
	return cmd
}

// loadConfig loads the configuration file then applies the flags that were
// explicitly set.
//
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	fs := cmd.Flags()
	if fs.Changed("log-level") {
		c.Logging.Level, _ = fs.GetString("log-level")
	}
	if fs.Changed("results-db") {
		c.Results.Database, _ = fs.GetString("results-db")
	}
	if fs.Lookup("trace") != nil {
		if fs.Changed("trace") {
			c.Trace.Path, _ = fs.GetString("trace")
		}
		if fs.Changed("scope") {
			c.Trace.Scope, _ = fs.GetString("scope")
		}
		if fs.Changed("levels") {
			c.Trace.Levels, _ = fs.GetInt("levels")
		}
		if fs.Changed("cycles") {
			c.Design.Cycles, _ = fs.GetUint64("cycles")
		}
		if fs.Changed("dump-from") {
			c.Design.DumpFrom, _ = fs.GetUint64("dump-from")
		}
		if fs.Changed("error-at") {
			c.Design.ErrorAt, _ = fs.GetUint64("error-at")
		}
		if fs.Changed("workers") {
			c.Design.Workers, _ = fs.GetInt("workers")
		}
	}
	if err = c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return c, nil
}

func (a *app) runSim(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logging.NewLogger(cfg.Logging.Level, a.stderr)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sig := make(chan os.Signal, 1)
	notifySignals(sig)
	defer signal.Stop(sig)
	go func() {
		select {
		case s := <-sig:
			log.Warn("received signal, stopping simulation", "signal", s)
			cancel()
		case <-ctx.Done():
		}
	}()

	sc := tbharness.NewSimContext()
	sc.CommandArgs(args)
	h := &tbharness.Harness{
		TracePath:   cfg.Trace.Path,
		TraceScope:  cfg.Trace.Scope,
		TraceLevels: cfg.Trace.Levels,
		Log:         log,
		Summary:     a.stdout,
	}
	opts := testbench.Options{
		Cycles:   cfg.Design.Cycles,
		DumpFrom: cfg.Design.DumpFrom,
		ErrorAt:  cfg.Design.ErrorAt,
		Workers:  cfg.Design.Workers,
	}
	started := time.Now()
	r := h.Run(ctx, sc, func(sc *tbharness.SimContext) (tbharness.Design, error) {
		return testbench.New(sc, opts)
	})
	a.status = r.Status
	if r.Err != nil {
		log.Error("simulation failed", "err", r.Err)
	}

	if cfg.Results.Database != "" {
		a.record(cmd.Context(), log, cfg, &runlog.Run{
			Started:     started,
			Wall:        time.Since(started),
			Args:        args,
			Status:      r.Status,
			Cycles:      r.Cycles,
			SimTime:     r.SimTime,
			Samples:     r.Samples,
			Errors:      r.Errors,
			Interrupted: r.Interrupted,
			Trace:       cfg.Trace.Path,
			Message:     errString(r.Err),
		})
	}
	return nil
}

// record stores a run in the run log. Failures are logged and do not change
// the exit status.
//
func (a *app) record(ctx context.Context, log *slog.Logger, cfg *config.Config, run *runlog.Run) {
	l, err := runlog.Open(ctx, cfg.Results.Database)
	if err != nil {
		log.Error("run log unavailable", "err", err)
		return
	}
	defer l.Close()
	id, err := l.Record(ctx, run)
	if err != nil {
		log.Error("run not recorded", "err", err)
		return
	}
	log.Debug("run recorded", "id", id, "database", cfg.Results.Database)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (a *app) newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded simulation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Results.Database == "" {
				return errors.New("no run log configured, use --results-db or results.database")
			}
			limit, _ := cmd.Flags().GetInt("limit")
			l, err := runlog.Open(cmd.Context(), cfg.Results.Database)
			if err != nil {
				return err
			}
			defer l.Close()
			runs, err := l.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRuns(a.stdout, runs)
			a.status = tbharness.ExitSuccess
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "number of runs to list, 0 for all")
	return cmd
}

func printRuns(w io.Writer, runs []runlog.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tCYCLES\tSIM TIME\tERRORS\tMESSAGE")
	for _, r := range runs {
		status := "pass"
		switch {
		case r.Interrupted:
			status = "interrupted"
		case r.Status != tbharness.ExitSuccess:
			status = "fail"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%dps\t%d\t%s\n",
			r.ID, r.Started.Local().Format("2006-01-02 15:04:05"), status, r.Cycles, r.SimTime, r.Errors, r.Message)
	}
	tw.Flush()
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "tbharness version %s\n", version)
			a.status = tbharness.ExitSuccess
		},
	}
}
