//go:build !windows

package main

import (
	"os/exec"
	"syscall"
)

// configureDaemonProc detaches the daemon into a new session so it survives
// the terminal that started it.
func configureDaemonProc(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
