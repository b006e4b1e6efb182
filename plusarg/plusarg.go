// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package plusarg reads simulation settings passed on the command line as
// plusargs, that is arguments of the form +NAME or +NAME=VALUE.
//
// Settings are pulled lazily: callers ask for exactly the keys they need and
// nothing is parsed up front.
//
package plusarg

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Matcher looks up plusargs.
//
// PlusMatch returns the first argument that starts with "+" followed by
// prefix, or an empty string if there is none. The whole argument is
// returned, leading "+" included.
//
type Matcher interface {
	PlusMatch(prefix string) string
}

// Args is a raw command line argument list. It implements Matcher.
//
type Args []string

// PlusMatch implements Matcher.
//
func (a Args) PlusMatch(prefix string) string {
	p := "+" + prefix
	for _, arg := range a {
		if strings.HasPrefix(arg, p) {
			return arg
		}
	}
	return ""
}

// ConfigError is returned when a required plusarg is missing or cannot be
// parsed.
//
type ConfigError struct {
	Name string // plusarg name, without the leading "+"
	Arg  string // matched argument, empty if missing
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Arg == "" {
		return "plusarg +" + e.Name + ": " + e.Err.Error()
	}
	return "plusarg +" + e.Name + " (" + strconv.Quote(e.Arg) + "): " + e.Err.Error()
}

// Cause returns the underlying error.
//
func (e *ConfigError) Cause() error { return e.Err }

// Unwrap returns the underlying error.
//
func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is, or wraps, a *ConfigError.
//
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Flag returns true if an argument starting with +name is present.
//
// Matching is done on the prefix only, so +NAME=0 or +NAMEX both count as
// present.
//
func Flag(m Matcher, name string) bool {
	return m.PlusMatch(name) != ""
}

// Uint returns the unsigned value of the +name=<value> plusarg.
//
// Every "=" in the argument is treated as a separator. The first field must be
// exactly +name and the second field must be a base 10 unsigned integer.
//
func Uint(m Matcher, name string) (uint64, error) {
	arg := m.PlusMatch(name)
	if arg == "" {
		return 0, &ConfigError{Name: name, Err: errors.New("missing")}
	}
	fs := strings.Fields(strings.Replace(arg, "=", " ", -1))
	if len(fs) == 0 || fs[0] != "+"+name {
		return 0, &ConfigError{Name: name, Arg: arg, Err: errors.New("malformed")}
	}
	if len(fs) < 2 {
		return 0, &ConfigError{Name: name, Arg: arg, Err: errors.New("no value")}
	}
	v, err := strconv.ParseUint(fs[1], 10, 64)
	if err != nil {
		return 0, &ConfigError{Name: name, Arg: arg, Err: errors.Wrap(err, "invalid value")}
	}
	return v, nil
}
