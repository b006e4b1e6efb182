// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package logging builds the leveled logger used by the tbharness command.
//
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// LevelTrace is below Debug. At this level the simulation controller also
// logs every clock cycle.
//
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a level name to a slog.Level: "error", "warn", "info",
// "debug" or "trace", case-insensitive. Unknown names map to info.
//
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "error":
		return slog.LevelError
	case "warn":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// ValidLevel returns true if s is a level name known to ParseLevel. The empty
// string is valid and means info.
//
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "", "error", "warn", "info", "debug", "trace":
		return true
	}
	return false
}

// NewLogger returns a text logger writing to w.
//
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
