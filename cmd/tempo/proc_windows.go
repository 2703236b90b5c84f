//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// configureDaemonProc puts the daemon in its own process group so Ctrl+C in
// the launching console does not reach it.
func configureDaemonProc(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}
