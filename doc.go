// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package tbharness drives a cycle based simulation of a hardware design from
power-on reset until the design itself requests the end of the simulation.

The harness reads its timing from plusargs, holds the design in reset for a
couple of clock cycles, then toggles the clock one half period at a time,
evaluating the design after every edge and optionally sampling a waveform
trace. The process exit status reflects whether any error was recorded by the
simulation.

The design and the engine that evaluates it are collaborators reached through
the Design interface; package hwsim provides one such engine.

*/
package tbharness
