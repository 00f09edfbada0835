package daemon

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/pkg/errors"
)

func systemdUnitPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "systemd", "user", ServiceName+".service")
}

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=staticenv variables API
After=network.target

[Service]
Type=simple
ExecStart={{.Executable}} serve
Environment={{.ChildEnv}}=1
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`))

func writeUnit(w io.Writer, exe string) error {
	return unitTemplate.Execute(w, struct {
		Executable string
		ChildEnv   string
	}{exe, ChildEnv})
}

// EnableService installs and starts a systemd user unit.
func EnableService() error {
	exe, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "cannot determine executable path")
	}

	unitPath := systemdUnitPath()
	if err := os.MkdirAll(filepath.Dir(unitPath), 0755); err != nil {
		return err
	}
	f, err := os.Create(unitPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := writeUnit(f, exe); err != nil {
		return err
	}

	if out, err := exec.Command("systemctl", "--user", "daemon-reload").CombinedOutput(); err != nil {
		return errors.Wrapf(err, "systemctl daemon-reload failed: %s", out)
	}
	if out, err := exec.Command("systemctl", "--user", "enable", "--now", ServiceName+".service").CombinedOutput(); err != nil {
		return errors.Wrapf(err, "systemctl enable failed: %s", out)
	}
	return nil
}

// DisableService stops and removes the systemd user unit.
func DisableService() error {
	exec.Command("systemctl", "--user", "stop", ServiceName+".service").Run()
	exec.Command("systemctl", "--user", "disable", ServiceName+".service").Run()

	if err := os.Remove(systemdUnitPath()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove unit file")
	}
	exec.Command("systemctl", "--user", "daemon-reload").Run()
	return nil
}
