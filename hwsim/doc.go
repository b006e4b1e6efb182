// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package hwsim is a naive cycle based hardware simulator where circuits are
built in Go.

Parts (logic gates, flip flops, etc.) are composed into chips which are in turn
composed into a Circuit. Unlike a free running simulation, the clock of a
Circuit is an input: the caller sets it with SetClk and calls Eval to let the
circuit settle after each clock edge. This makes a Circuit usable as the
design under test of a tbharness.Harness.

Every chip instance is a scope named after its instance name. Chip pins and
internal wires can be registered with a trace.Writer for waveform dumps.

*/
package hwsim
