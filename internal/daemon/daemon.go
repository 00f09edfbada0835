// Package daemon manages the background `staticenv serve` process: its PID
// file, detaching, and installation as a per-user system service.
package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dopejs/staticenv/internal/config"
)

// ChildEnv is set in the environment of a detached server process.
const ChildEnv = "STATICENV_SERVE_DAEMON"

// ServiceName names the installed service on every platform.
const ServiceName = "staticenv-serve"

// ErrNotRunning is returned when stopping a server that is not running.
var ErrNotRunning = errors.New("server is not running")

// PidPath returns the path to the PID file.
func PidPath() string {
	return filepath.Join(config.ConfigDirPath(), config.PidFile)
}

// IsChild reports whether this process was started by Start.
func IsChild() bool {
	return os.Getenv(ChildEnv) == "1"
}

// WritePid writes the given PID to the PID file atomically with 0600 permissions.
func WritePid(pid int) error {
	if err := os.MkdirAll(config.ConfigDirPath(), 0755); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	tmp := PidPath() + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(pid)+"\n"), 0600); err != nil {
		return errors.Wrap(err, "write pid file")
	}
	return errors.Wrap(os.Rename(tmp, PidPath()), "write pid file")
}

// ReadPid reads the PID from the PID file.
func ReadPid() (int, error) {
	data, err := os.ReadFile(PidPath())
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, errors.Errorf("invalid PID file %s", PidPath())
	}
	return pid, nil
}

// RemovePid removes the PID file.
func RemovePid() {
	os.Remove(PidPath())
}
