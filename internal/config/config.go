// Package config loads Tempo's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Daemon        DaemonConfig        `yaml:"daemon"`
	Timers        TimersConfig        `yaml:"timers"`
	Voice         VoiceConfig         `yaml:"voice"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Log           LogConfig           `yaml:"log"`
}

// DaemonConfig configures the background daemon.
type DaemonConfig struct {
	// Listen is the HTTP API address.
	Listen string `yaml:"listen"`
	// DBPath is the SQLite database holding templates and the live run.
	DBPath string `yaml:"db_path"`
}

// TimersConfig configures announcement intervals and the host tick.
type TimersConfig struct {
	// MilestoneIntervalMin announces every N elapsed minutes of a task.
	MilestoneIntervalMin int `yaml:"milestone_interval_min"`
	// OvertimeIntervalMin announces every N minutes a task runs over.
	OvertimeIntervalMin int `yaml:"overtime_interval_min"`
	// TickInterval is how often the host re-reads the timer.
	TickInterval time.Duration `yaml:"tick_interval"`
}

// VoiceConfig configures spoken announcements.
type VoiceConfig struct {
	Enabled bool `yaml:"enabled"`
	// Command is the text-to-speech binary; the announcement text is appended to Args.
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	// DuckCommand and RestoreCommand lower and restore ambient audio around
	// each announcement. Both empty disables ducking.
	DuckCommand    []string `yaml:"duck_command,omitempty"`
	RestoreCommand []string `yaml:"restore_command,omitempty"`
}

// NotificationsConfig configures platform notifications.
type NotificationsConfig struct {
	Desktop bool `yaml:"desktop"`
	// WebhookURL receives a Slack-compatible JSON payload per notification.
	WebhookURL string `yaml:"webhook_url,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Mode is "dev" or "prod".
	Mode string `yaml:"mode"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Daemon: DaemonConfig{
			Listen: "127.0.0.1:7474",
			DBPath: filepath.Join(HomeDir(), "tempo.db"),
		},
		Timers: TimersConfig{
			MilestoneIntervalMin: 5,
			OvertimeIntervalMin:  5,
			TickInterval:         time.Second,
		},
		Voice: VoiceConfig{
			Enabled: true,
			Command: defaultSpeechCommand(),
		},
		Notifications: NotificationsConfig{
			Desktop: true,
		},
		Log: LogConfig{
			Mode: "dev",
		},
	}
}

func defaultSpeechCommand() string {
	if runtime.GOOS == "darwin" {
		return "say"
	}
	return "espeak"
}

// HomeDir returns Tempo's state directory (~/.tempo).
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".tempo")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(HomeDir(), "config.yaml")
}

// Load reads configuration from path over the defaults. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Daemon.DBPath = ExpandPath(cfg.Daemon.DBPath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Timers.MilestoneIntervalMin <= 0 {
		return fmt.Errorf("timers.milestone_interval_min must be positive, got %d", c.Timers.MilestoneIntervalMin)
	}
	if c.Timers.OvertimeIntervalMin <= 0 {
		return fmt.Errorf("timers.overtime_interval_min must be positive, got %d", c.Timers.OvertimeIntervalMin)
	}
	if c.Timers.TickInterval <= 0 {
		return fmt.Errorf("timers.tick_interval must be positive, got %s", c.Timers.TickInterval)
	}
	if c.Daemon.Listen == "" {
		return fmt.Errorf("daemon.listen is required")
	}
	if c.Voice.Enabled && c.Voice.Command == "" {
		return fmt.Errorf("voice.command is required when voice is enabled")
	}
	if (len(c.Voice.DuckCommand) == 0) != (len(c.Voice.RestoreCommand) == 0) {
		return fmt.Errorf("voice.duck_command and voice.restore_command must be set together")
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
