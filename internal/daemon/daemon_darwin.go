package daemon

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/pkg/errors"

	"github.com/dopejs/staticenv/internal/config"
)

const launchdLabel = "com.dopejs." + ServiceName

func launchdPlistPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "LaunchAgents", launchdLabel+".plist")
}

var plistTemplate = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN"
  "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
  <key>Label</key>
  <string>{{.Label}}</string>
  <key>ProgramArguments</key>
  <array>
    <string>{{.Executable}}</string>
    <string>serve</string>
  </array>
  <key>RunAtLoad</key>
  <true/>
  <key>KeepAlive</key>
  <true/>
  <key>StandardOutPath</key>
  <string>{{.LogPath}}</string>
  <key>StandardErrorPath</key>
  <string>{{.LogPath}}</string>
  <key>EnvironmentVariables</key>
  <dict>
    <key>{{.ChildEnv}}</key>
    <string>1</string>
  </dict>
</dict>
</plist>
`))

func writeUnit(w io.Writer, exe string) error {
	return plistTemplate.Execute(w, struct {
		Label      string
		Executable string
		LogPath    string
		ChildEnv   string
	}{launchdLabel, exe, config.LogPath(), ChildEnv})
}

// EnableService installs and loads a launchd agent.
func EnableService() error {
	exe, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "cannot determine executable path")
	}

	plistPath := launchdPlistPath()
	if err := os.MkdirAll(filepath.Dir(plistPath), 0755); err != nil {
		return err
	}
	f, err := os.Create(plistPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := writeUnit(f, exe); err != nil {
		return err
	}

	if out, err := exec.Command("launchctl", "load", plistPath).CombinedOutput(); err != nil {
		return errors.Wrapf(err, "launchctl load failed: %s", out)
	}
	return nil
}

// DisableService unloads and removes the launchd agent.
func DisableService() error {
	plistPath := launchdPlistPath()

	// not loaded is fine
	exec.Command("launchctl", "unload", plistPath).Run()

	if err := os.Remove(plistPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove plist")
	}
	return nil
}
