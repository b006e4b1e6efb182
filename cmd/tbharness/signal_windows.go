// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

//go:build windows

package main

import (
	"os"
	"os/signal"
)

// notifySignals relays Ctrl+C to ch. There is no SIGTERM on Windows.
//
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
