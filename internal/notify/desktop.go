package notify

import (
	"os/exec"
	"runtime"
	"strings"
)

// DesktopNotifier sends desktop notifications
type DesktopNotifier struct {
	enabled bool
	run     func(name string, args ...string) error
}

// NewDesktopNotifier creates a new desktop notifier
func NewDesktopNotifier(enabled bool) *DesktopNotifier {
	return &DesktopNotifier{enabled: enabled, run: runCommand}
}

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Send sends a desktop notification
func (d *DesktopNotifier) Send(n Notification) error {
	if !d.enabled {
		return nil
	}

	switch runtime.GOOS {
	case "darwin":
		return d.sendMacOS(n)
	case "linux":
		return d.sendLinux(n)
	default:
		return nil // Unsupported
	}
}

func (d *DesktopNotifier) sendMacOS(n Notification) error {
	script := `display notification "` + appleScriptQuote(n.Message) + `" with title "` + appleScriptQuote(n.Title) + `"`
	return d.run("osascript", "-e", script)
}

func (d *DesktopNotifier) sendLinux(n Notification) error {
	return d.run("notify-send", "--icon", IconForLevel(n.Level), n.Title, n.Message)
}

func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// IconForLevel returns an icon name for the notification level
func IconForLevel(l Level) string {
	switch l {
	case LevelSuccess:
		return "dialog-positive"
	case LevelWarning:
		return "dialog-warning"
	default:
		return "dialog-information"
	}
}
