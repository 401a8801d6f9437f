//go:build !windows

package main

import (
	"os"
	"syscall"
)

// interruptSignals end a running command.
var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
