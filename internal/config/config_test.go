package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Timers.MilestoneIntervalMin != 5 || cfg.Timers.OvertimeIntervalMin != 5 {
		t.Errorf("unexpected interval defaults: %+v", cfg.Timers)
	}
	if cfg.Timers.TickInterval != time.Second {
		t.Errorf("TickInterval = %s, want 1s", cfg.Timers.TickInterval)
	}
	if cfg.Daemon.Listen != "127.0.0.1:7474" {
		t.Errorf("Listen = %s", cfg.Daemon.Listen)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
daemon:
  listen: 127.0.0.1:9999
  db_path: ~/routines/tempo.db
timers:
  milestone_interval_min: 1
  tick_interval: 500ms
voice:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Daemon.Listen != "127.0.0.1:9999" {
		t.Errorf("Listen = %s", cfg.Daemon.Listen)
	}
	if cfg.Timers.MilestoneIntervalMin != 1 {
		t.Errorf("MilestoneIntervalMin = %d, want 1", cfg.Timers.MilestoneIntervalMin)
	}
	// Unset keys keep their defaults.
	if cfg.Timers.OvertimeIntervalMin != 5 {
		t.Errorf("OvertimeIntervalMin = %d, want 5", cfg.Timers.OvertimeIntervalMin)
	}
	if cfg.Timers.TickInterval != 500*time.Millisecond {
		t.Errorf("TickInterval = %s", cfg.Timers.TickInterval)
	}
	if cfg.Voice.Enabled {
		t.Error("voice should be disabled")
	}
	if strings.HasPrefix(cfg.Daemon.DBPath, "~") {
		t.Errorf("DBPath not expanded: %s", cfg.Daemon.DBPath)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero milestone", "timers:\n  milestone_interval_min: 0\n"},
		{"negative overtime", "timers:\n  overtime_interval_min: -5\n"},
		{"duck without restore", "voice:\n  duck_command: [pactl, set-sink-volume, '@DEFAULT_SINK@', '30%']\n"},
		{"bad yaml", "timers: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Timers.OvertimeIntervalMin = 2

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Timers.OvertimeIntervalMin != 2 {
		t.Errorf("OvertimeIntervalMin = %d, want 2", loaded.Timers.OvertimeIntervalMin)
	}
}
