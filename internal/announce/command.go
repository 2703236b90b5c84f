package announce

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// allowedSpeechCommands is the strict allowlist of text-to-speech binaries.
var allowedSpeechCommands = map[string]bool{
	"say":       true,
	"espeak":    true,
	"espeak-ng": true,
	"spd-say":   true,
}

// IsAllowed reports whether cmd may be used as a speech command.
func IsAllowed(cmd string) bool {
	return allowedSpeechCommands[cmd]
}

// CommandSpeaker speaks by running a local text-to-speech binary with the
// announcement as its last argument.
type CommandSpeaker struct {
	cmd  string
	args []string
}

// NewCommandSpeaker creates a speaker for an allowlisted command.
func NewCommandSpeaker(cmd string, args []string) (*CommandSpeaker, error) {
	if !IsAllowed(cmd) {
		return nil, fmt.Errorf("speech command not allowed: %s", cmd)
	}
	return &CommandSpeaker{cmd: cmd, args: append([]string(nil), args...)}, nil
}

// Argv returns the full command line used to speak text.
func (s *CommandSpeaker) Argv(text string) []string {
	argv := make([]string, 0, len(s.args)+2)
	argv = append(argv, s.cmd)
	argv = append(argv, s.args...)
	return append(argv, text)
}

// Speak runs the speech command and waits for it to finish.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	argv := s.Argv(text)
	return run(ctx, argv)
}

// CommandDucker lowers and restores ambient audio with user-configured
// commands, for example a media player's volume control.
type CommandDucker struct {
	duck    []string
	restore []string
}

// NewCommandDucker creates a ducker. Both command lines must be non-empty.
func NewCommandDucker(duck, restore []string) (*CommandDucker, error) {
	if len(duck) == 0 || len(restore) == 0 {
		return nil, fmt.Errorf("duck and restore commands are both required")
	}
	return &CommandDucker{duck: duck, restore: restore}, nil
}

func (d *CommandDucker) Duck(ctx context.Context) error    { return run(ctx, d.duck) }
func (d *CommandDucker) Restore(ctx context.Context) error { return run(ctx, d.restore) }

// NoopDucker leaves ambient audio alone.
type NoopDucker struct{}

func (NoopDucker) Duck(context.Context) error    { return nil }
func (NoopDucker) Restore(context.Context) error { return nil }

// NoopSpeaker discards announcements (voice disabled).
type NoopSpeaker struct{}

func (NoopSpeaker) Speak(context.Context, string) error { return nil }

func run(ctx context.Context, argv []string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", argv[0], err, msg)
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}
