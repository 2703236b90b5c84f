package host

import (
	"time"

	"github.com/fentz26/tempo/internal/engine"
)

// Config defines the host configuration.
type Config struct {
	// TickInterval is how often the active timer is re-read.
	TickInterval time.Duration `yaml:"tick_interval"`
	// MilestoneIntervalMin announces every N elapsed minutes of a task.
	MilestoneIntervalMin int `yaml:"milestone_interval_min"`
	// OvertimeIntervalMin announces every N minutes a task runs over.
	OvertimeIntervalMin int `yaml:"overtime_interval_min"`
}

// DefaultConfig returns the default host configuration.
func DefaultConfig() *Config {
	return &Config{
		TickInterval:         time.Second,
		MilestoneIntervalMin: 5,
		OvertimeIntervalMin:  5,
	}
}

// Announce returns the trigger intervals handed to the engine on each tick.
func (c *Config) Announce() engine.AnnounceConfig {
	return engine.AnnounceConfig{
		MilestoneIntervalMin: c.MilestoneIntervalMin,
		OvertimeIntervalMin:  c.OvertimeIntervalMin,
	}
}
