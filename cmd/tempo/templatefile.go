package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/tempo/internal/models"
	"gopkg.in/yaml.v3"
)

// templateFile is the on-disk YAML form of a routine template.
type templateFile struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Tasks       []templateStep `yaml:"tasks"`
}

type templateStep struct {
	models.TemplateTask `yaml:",inline"`
	// Duration is a Go duration ("90s", "1h15m") or a bare number of minutes.
	Duration string `yaml:"duration"`
}

// loadTemplateFile reads and converts a YAML template file.
func loadTemplateFile(path string) (*templateFile, []models.TemplateTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read template file: %w", err)
	}
	return parseTemplateFile(data)
}

func parseTemplateFile(data []byte) (*templateFile, []models.TemplateTask, error) {
	var tf templateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, nil, fmt.Errorf("parse template file: %w", err)
	}
	if strings.TrimSpace(tf.Name) == "" {
		return nil, nil, fmt.Errorf("template file has no name")
	}

	tasks := make([]models.TemplateTask, 0, len(tf.Tasks))
	for i, step := range tf.Tasks {
		d, err := parseStepDuration(step.Duration)
		if err != nil {
			return nil, nil, fmt.Errorf("task %d (%s): %w", i+1, step.Name, err)
		}
		t := step.TemplateTask
		t.DurationMs = d.Milliseconds()
		tasks = append(tasks, t)
	}
	return &tf, tasks, nil
}

func parseStepDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing duration")
	}
	if m, err := strconv.ParseFloat(s, 64); err == nil {
		if m <= 0 {
			return 0, fmt.Errorf("duration must be positive")
		}
		return time.Duration(m * float64(time.Minute)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return d, nil
}
