package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// IsRunning reports the recorded PID and whether that process is alive.
func IsRunning() (int, bool) {
	pid, err := ReadPid()
	if err != nil {
		return 0, false
	}
	// FindProcess always succeeds on Windows, so ask tasklist.
	out, err := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/NH").Output()
	if err != nil {
		return 0, false
	}
	if strings.Contains(string(out), fmt.Sprintf(" %d ", pid)) {
		return pid, true
	}
	return 0, false
}

// Stop terminates the background server.
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
	if err := proc.Kill(); err != nil {
		return errors.Wrapf(err, "stop server (PID %d)", pid)
	}
	RemovePid()
	return nil
}

const createNewProcessGroup = 0x00000200

// SysProcAttr detaches the child into its own process group.
func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}
