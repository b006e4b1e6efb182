// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tbharness.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestLoad_defaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvTrace, "")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.NoError(t, c.Validate())
}

func TestLoad_file(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvTrace, "")
	path := writeFile(t, `
trace:
  path: out/wave.vcd
  levels: 2
logging:
  level: debug
design:
  cycles: 500
  dump_from: 400
  workers: 2
results:
  database: runs.db
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "out/wave.vcd", c.Trace.Path)
	assert.Equal(t, "top_tb.dut", c.Trace.Scope, "unset keys keep their default")
	assert.Equal(t, 2, c.Trace.Levels)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, Design{Cycles: 500, DumpFrom: 400, Workers: 2}, c.Design)
	assert.Equal(t, "runs.db", c.Results.Database)
	assert.NoError(t, c.Validate())
}

func TestLoad_env(t *testing.T) {
	t.Setenv(EnvLogLevel, "trace")
	t.Setenv(EnvTrace, "env.vcd")
	c, err := Load(writeFile(t, "trace:\n  path: file.vcd\n"))
	require.NoError(t, err)
	assert.Equal(t, "trace", c.Logging.Level)
	assert.Equal(t, "env.vcd", c.Trace.Path)
}

func TestLoad_errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	_, err = Load(writeFile(t, "design: [1, 2"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	td := []struct {
		name string
		mod  func(c *Config)
		err  string
	}{
		{"empty trace path", func(c *Config) { c.Trace.Path = " " }, "trace.path must not be empty"},
		{"negative levels", func(c *Config) { c.Trace.Levels = -1 }, "trace.levels must be non-negative, got -1"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level: loud"},
		{"zero cycles", func(c *Config) { c.Design.Cycles = 0 }, "design.cycles must be positive"},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			c := Default()
			d.mod(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), d.err)
		})
	}
}
