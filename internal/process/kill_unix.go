//go:build !windows

// Package process manages external converter processes.
package process

import (
	"os/exec"
	"syscall"
)

// Isolate starts cmd in its own process group so that KillGroup can reach
// helper processes the converter spawns (pandoc may run a PDF engine or filters).
func Isolate(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// KillGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
