//go:build windows

package backend

import "os/exec"

// setProcAttr is a no-op on Windows; process groups and SIGTERM have no
// equivalent, which is why config.Validate requires RCON there.
func setProcAttr(cmd *exec.Cmd) {}

// interruptProcess forcibly kills the backend, since Windows has no
// graceful terminal signal equivalent to SIGTERM for console apps
// started this way. RCON's "stop" command is the supported graceful
// path and should always succeed before this is ever reached.
func interruptProcess(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
