//go:build windows

package backend

import "fmt"

// freezeSupported is false on Windows: there is no SIGSTOP/SIGCONT
// equivalent for an arbitrary console process, so config.Validate
// rejects server.freeze_process = true on this platform.
const freezeSupported = false

func freeze(pid int) error {
	return fmt.Errorf("freeze: not supported on windows")
}

func thaw(pid int) error {
	return fmt.Errorf("thaw: not supported on windows")
}
