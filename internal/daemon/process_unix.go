//go:build !windows

package daemon

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// IsRunning reports the recorded PID and whether that process is alive.
func IsRunning() (int, bool) {
	pid, err := ReadPid()
	if err != nil {
		return 0, false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}
	// Signal 0 checks if process exists without actually signaling it.
	err = proc.Signal(syscall.Signal(0))
	return pid, err == nil
}

// Stop sends SIGTERM to the background server.
func Stop() error {
	pid, running := IsRunning()
	if !running {
		RemovePid()
		return ErrNotRunning
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return errors.Wrapf(err, "stop server (PID %d)", pid)
	}
	RemovePid()
	return nil
}

// SysProcAttr detaches the child into its own session.
func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
