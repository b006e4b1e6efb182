// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads the tbharness configuration file.
//
// The file only holds harness and test bench settings. The simulation
// tunables (clock period, global dump switch) are always read from plusargs.
//
// Load order: Default, then the YAML file if any, then environment variables.
// Command line flags are applied last by the caller.
//
package config

import (
	"os"
	"strings"

	"github.com/db47h/tbharness/internal/logging"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file settings.
//
const (
	EnvLogLevel = "TBHARNESS_LOG_LEVEL"
	EnvTrace    = "TBHARNESS_TRACE"
)

// Config holds all tbharness settings.
//
type Config struct {
	Trace   Trace   `yaml:"trace"`
	Logging Logging `yaml:"logging"`
	Design  Design  `yaml:"design"`
	Results Results `yaml:"results"`
}

// Trace configures waveform recording.
//
type Trace struct {
	Path   string `yaml:"path"`
	Scope  string `yaml:"scope"`  // dotted scope of recorded signals
	Levels int    `yaml:"levels"` // scope depth limit, 0 for none
}

// Logging configures the operational log on stderr.
//
type Logging struct {
	Level string `yaml:"level"`
}

// Design configures the bundled test bench.
//
type Design struct {
	Cycles   uint64 `yaml:"cycles"`
	DumpFrom uint64 `yaml:"dump_from"`
	ErrorAt  uint64 `yaml:"error_at"`
	Workers  int    `yaml:"workers"`
}

// Results configures the run log.
//
type Results struct {
	Database string `yaml:"database"` // empty to disable
}

// Default returns the default configuration.
//
func Default() *Config {
	return &Config{
		Trace: Trace{
			Path:  "dump.vcd",
			Scope: "top_tb.dut",
		},
		Logging: Logging{Level: "info"},
		Design:  Design{Cycles: 100},
	}
}

// Load returns the configuration read from path with environment overrides
// applied. An empty path skips the file.
//
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading config file")
		}
		if err = yaml.Unmarshal(data, c); err != nil {
			return nil, errors.Wrapf(err, "parsing config file %s", path)
		}
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvTrace); v != "" {
		c.Trace.Path = v
	}
}

// Validate checks the configuration.
//
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Trace.Path) == "" {
		return errors.New("trace.path must not be empty")
	}
	if c.Trace.Levels < 0 {
		return errors.Errorf("trace.levels must be non-negative, got %d", c.Trace.Levels)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return errors.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace)", c.Logging.Level)
	}
	if c.Design.Cycles == 0 {
		return errors.New("design.cycles must be positive")
	}
	return nil
}
