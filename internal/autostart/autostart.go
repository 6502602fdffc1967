// Package autostart registers the widget host to start at login
package autostart

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	appName        = "nightscout-widget"
	appDisplayName = "Nightscout Widget"

	// OS constants
	osLinux   = "linux"
	osWindows = "windows"
	osDarwin  = "darwin"
)

// ServeArgs are the arguments the login entry passes to the executable
var ServeArgs = []string{"serve"}

// Launcher describes the login entry for one platform. The zero value targets the
// running platform and executable.
type Launcher struct {
	GOOS       string
	Executable string
	Home       string
	ConfigHome string
}

// Default returns a launcher for the running platform
func Default() Launcher {
	return Launcher{}
}

func (l Launcher) goos() string {
	if l.GOOS != "" {
		return l.GOOS
	}
	return runtime.GOOS
}

func (l Launcher) executable() (string, error) {
	if l.Executable != "" {
		return l.Executable, nil
	}
	return os.Executable()
}

func (l Launcher) home() (string, error) {
	if l.Home != "" {
		return l.Home, nil
	}
	return os.UserHomeDir()
}

// command returns the full command line run at login
func (l Launcher) command() (string, error) {
	execPath, err := l.executable()
	if err != nil {
		return "", fmt.Errorf("resolving executable: %w", err)
	}
	return strings.Join(append([]string{quote(execPath)}, ServeArgs...), " "), nil
}

func quote(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}

// IsEnabled checks if the login entry exists
func (l Launcher) IsEnabled() (bool, error) {
	switch l.goos() {
	case osLinux:
		return l.isEnabledLinux()
	case osWindows:
		return isEnabledWindows()
	case osDarwin:
		return l.isEnabledMacOS()
	default:
		return false, fmt.Errorf("unsupported platform: %s", l.goos())
	}
}

// Enable creates the login entry
func (l Launcher) Enable() error {
	switch l.goos() {
	case osLinux:
		return l.enableLinux()
	case osWindows:
		return l.enableWindows()
	case osDarwin:
		return l.enableMacOS()
	default:
		return fmt.Errorf("unsupported platform: %s", l.goos())
	}
}

// Disable removes the login entry. Removing a missing entry is not an error.
func (l Launcher) Disable() error {
	switch l.goos() {
	case osLinux:
		return l.disableLinux()
	case osWindows:
		return disableWindows()
	case osDarwin:
		return l.disableMacOS()
	default:
		return fmt.Errorf("unsupported platform: %s", l.goos())
	}
}

// Path returns the file backing the login entry, empty on Windows where it lives in the registry
func (l Launcher) Path() (string, error) {
	switch l.goos() {
	case osLinux:
		return l.linuxAutostartPath()
	case osDarwin:
		return l.macOSLaunchAgentPath()
	default:
		return "", nil
	}
}

// Linux implementation using XDG autostart
func (l Launcher) linuxAutostartPath() (string, error) {
	configDir := l.ConfigHome
	if configDir == "" {
		configDir = os.Getenv("XDG_CONFIG_HOME")
	}
	if configDir == "" {
		home, err := l.home()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "autostart", appName+".desktop"), nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (l Launcher) isEnabledLinux() (bool, error) {
	path, err := l.linuxAutostartPath()
	if err != nil {
		return false, err
	}
	return exists(path)
}

func (l Launcher) enableLinux() error {
	path, err := l.linuxAutostartPath()
	if err != nil {
		return err
	}
	cmd, err := l.command()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	content := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Exec=%s
Comment=Nightscout glucose widget host
Categories=Utility;
Terminal=false
NoDisplay=true
StartupNotify=false
X-GNOME-Autostart-enabled=true
`, appDisplayName, cmd)

	return os.WriteFile(path, []byte(content), 0600)
}

func (l Launcher) disableLinux() error {
	path, err := l.linuxAutostartPath()
	if err != nil {
		return err
	}
	return removeIfExists(path)
}

// Windows implementation using registry
const runKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

func isEnabledWindows() (bool, error) {
	cmd := exec.Command("reg", "query", runKey, "/v", appName)
	err := cmd.Run()
	return err == nil, nil
}

func (l Launcher) enableWindows() error {
	command, err := l.command()
	if err != nil {
		return err
	}

	//nolint:gosec // G204: command is built from os.Executable(), not user input
	cmd := exec.Command("reg", "add", runKey,
		"/v", appName,
		"/t", "REG_SZ",
		"/d", command,
		"/f")
	return cmd.Run()
}

func disableWindows() error {
	cmd := exec.Command("reg", "delete", runKey, "/v", appName, "/f")
	err := cmd.Run()
	if err != nil && strings.Contains(err.Error(), "not exist") {
		return nil
	}
	return err
}

// macOS implementation using LaunchAgents
func (l Launcher) macOSLaunchAgentPath() (string, error) {
	home, err := l.home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "LaunchAgents", "io.github.mrcode."+appName+".plist"), nil
}

func (l Launcher) isEnabledMacOS() (bool, error) {
	path, err := l.macOSLaunchAgentPath()
	if err != nil {
		return false, err
	}
	return exists(path)
}

func (l Launcher) enableMacOS() error {
	path, err := l.macOSLaunchAgentPath()
	if err != nil {
		return err
	}
	execPath, err := l.executable()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	var args strings.Builder
	for _, a := range append([]string{execPath}, ServeArgs...) {
		fmt.Fprintf(&args, "        <string>%s</string>\n", a)
	}

	content := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>io.github.mrcode.%s</string>
    <key>ProgramArguments</key>
    <array>
%s    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`, appName, args.String())

	return os.WriteFile(path, []byte(content), 0600)
}

func (l Launcher) disableMacOS() error {
	path, err := l.macOSLaunchAgentPath()
	if err != nil {
		return err
	}

	// Unload first; the agent may not be loaded
	if l.goos() == runtime.GOOS {
		//nolint:gosec // G204: path is derived from the home directory, not user input
		_ = exec.Command("launchctl", "unload", path).Run()
	}

	return removeIfExists(path)
}
