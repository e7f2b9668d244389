//go:build !windows

package backend

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// freezeSupported reports whether server.freeze_process is usable on
// this platform. SIGSTOP/SIGCONT are POSIX signals, unavailable on
// Windows, which is why config.Validate rejects freeze_process there.
const freezeSupported = true

// freeze suspends the backend process in place with SIGSTOP rather than
// stopping it, so resuming is near-instant. Lifecycle reflects this as
// state.Frozen, a variant of Started the idle monitor treats specially.
func freeze(pid int) error {
	if err := unix.Kill(pid, unix.SIGSTOP); err != nil {
		return fmt.Errorf("freeze: sigstop pid %d: %w", pid, err)
	}
	return nil
}

// thaw resumes a process previously suspended by freeze.
func thaw(pid int) error {
	if err := unix.Kill(pid, unix.SIGCONT); err != nil {
		return fmt.Errorf("thaw: sigcont pid %d: %w", pid, err)
	}
	return nil
}
