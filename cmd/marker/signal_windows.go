//go:build windows

package main

import "os"

// interruptSignals end a running command. SIGTERM does not exist on Windows.
var interruptSignals = []os.Signal{os.Interrupt}
