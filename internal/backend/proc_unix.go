//go:build !windows

package backend

import (
	"os/exec"
	"syscall"
)

// setProcAttr places the backend in its own process group so that
// signals sent to slumber (e.g. Ctrl+C) are not relayed to the child.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// interruptProcess sends SIGTERM to the backend's process group.
func interruptProcess(cmd *exec.Cmd) error {
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
}
