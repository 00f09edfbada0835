package daemon

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

func writeUnit(w io.Writer, exe string) error {
	_, err := fmt.Fprintf(w, `"%s" serve`, exe)
	return err
}

// EnableService creates a scheduled task that starts the server at logon.
func EnableService() error {
	exe, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "cannot determine executable path")
	}

	out, err := exec.Command("schtasks", "/create",
		"/tn", ServiceName,
		"/sc", "onlogon",
		"/tr", fmt.Sprintf(`"%s" serve`, exe),
		"/f",
	).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "schtasks create failed: %s", out)
	}
	return nil
}

// DisableService removes the scheduled task.
func DisableService() error {
	out, err := exec.Command("schtasks", "/delete", "/tn", ServiceName, "/f").CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "schtasks delete failed: %s", out)
	}
	return nil
}
