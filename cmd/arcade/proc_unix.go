//go:build unix

package main

import (
	"os/exec"
	"syscall"
)

// configureDaemonProcess puts arcaded in its own process group so it
// outlives the CLI and ignores the terminal's Ctrl+C
func configureDaemonProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
