// Package controlplane provides the HTTP API and service layer for Tempo.
package controlplane

import (
	"fmt"
	"strings"

	"github.com/fentz26/tempo/internal/engine"
	"github.com/fentz26/tempo/internal/host"
	"github.com/fentz26/tempo/internal/models"
	"github.com/fentz26/tempo/internal/store"
)

// Service provides the control plane business logic.
type Service struct {
	store *store.Store
	host  *host.Host
}

// NewService creates a new control plane service.
func NewService(s *store.Store, h *host.Host) *Service {
	return &Service{
		store: s,
		host:  h,
	}
}

// --- Template Operations ---

// CreateTemplate validates and stores a new template.
func (s *Service) CreateTemplate(name, description string, tasks []models.TemplateTask) (*models.Template, error) {
	if err := ValidateTemplate(name, tasks); err != nil {
		return nil, err
	}
	return s.store.CreateTemplate(strings.TrimSpace(name), description, tasks)
}

// ValidateTemplate checks a template definition before it is stored.
func ValidateTemplate(name string, tasks []models.TemplateTask) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if len(tasks) == 0 {
		return fmt.Errorf("%w: at least one task is required", ErrInvalidTemplate)
	}
	seen := make(map[string]bool, len(tasks))
	for i, t := range tasks {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: task %d has no name", ErrInvalidTemplate, i+1)
		}
		if t.DurationMs < 0 {
			return fmt.Errorf("%w: task %q has a negative duration", ErrInvalidTemplate, t.Name)
		}
		if t.ID != "" {
			if seen[t.ID] {
				return fmt.Errorf("%w: duplicate task id %q", ErrInvalidTemplate, t.ID)
			}
			seen[t.ID] = true
		}
	}
	return nil
}

// GetTemplate retrieves a template by ID.
func (s *Service) GetTemplate(id string) (*models.Template, error) {
	tpl, err := s.store.GetTemplate(id)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrTemplateNotFound
	}
	return tpl, nil
}

// ListTemplates returns all templates.
func (s *Service) ListTemplates() ([]models.Template, error) {
	return s.store.ListTemplates()
}

// DeleteTemplate removes a template.
func (s *Service) DeleteTemplate(id string) error {
	deleted, err := s.store.DeleteTemplate(id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTemplateNotFound
	}
	return nil
}

// --- Run Operations ---

// CurrentRun returns the live run.
func (s *Service) CurrentRun() (*host.Snapshot, error) {
	return s.host.Current()
}

// BeginRun creates a run from a template, or a single-task run when
// templateID is empty.
func (s *Service) BeginRun(templateID string, pace models.Pace, name string, durationMs int64) (*host.Snapshot, error) {
	if templateID != "" {
		return s.host.Begin(templateID, pace)
	}
	return s.host.BeginAdHoc(name, durationMs)
}

// Dispatch applies an action to the live run.
func (s *Service) Dispatch(a engine.Action) (*host.Snapshot, bool, error) {
	return s.host.Dispatch(a)
}

// DiscardRun forgets the live run.
func (s *Service) DiscardRun() error {
	return s.host.Discard()
}

// Journal returns the live run's journal.
func (s *Service) Journal() ([]models.JournalEntry, error) {
	return s.host.Journal()
}

// Subscribe registers for live run events.
func (s *Service) Subscribe() (<-chan host.Event, func()) {
	return s.host.Subscribe()
}
