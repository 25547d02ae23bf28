package game

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// ProcessRunning reports whether a process with the given PID is alive.
// Signal 0 delivers nothing but still performs the existence check.
func ProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// KillProcess terminates the process with the given PID.
func KillProcess(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return errors.Wrapf(err, "finding process %d", pid)
	}
	if err := proc.Kill(); err != nil {
		return errors.Wrapf(err, "killing process %d", pid)
	}
	return nil
}
