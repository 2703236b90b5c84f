package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fentz26/tempo/internal/models"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestTemplateCRUD(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	tasks := []models.TemplateTask{
		{Name: "Make bed", DurationMs: 120000, LowIncluded: true},
		{ID: "stretch", Name: "Stretch", DurationMs: 300000, FlowIncluded: true, AutoAdvance: true,
			Subtasks: []models.TemplateSubtask{{ID: "neck", Text: "Neck rolls"}}},
	}

	// Create
	tpl, err := s.CreateTemplate("Morning", "Start the day", tasks)
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	if tpl.ID == "" {
		t.Error("Template ID should not be empty")
	}
	if tpl.Tasks[0].ID == "" {
		t.Error("Missing task IDs should be assigned")
	}
	if tpl.Tasks[1].ID != "stretch" {
		t.Errorf("Existing task ID replaced: %s", tpl.Tasks[1].ID)
	}
	if tasks[0].ID != "" {
		t.Error("CreateTemplate mutated the caller's tasks")
	}

	// Get
	got, err := s.GetTemplate(tpl.ID)
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	if got.Name != "Morning" || got.Description != "Start the day" {
		t.Errorf("Unexpected template: %+v", got)
	}
	if len(got.Tasks) != 2 || !got.Tasks[1].AutoAdvance || got.Tasks[1].Subtasks[0].Text != "Neck rolls" {
		t.Errorf("Tasks not round-tripped: %+v", got.Tasks)
	}

	// Missing
	missing, err := s.GetTemplate("nope")
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing template")
	}

	// List
	if _, err := s.CreateTemplate("Evening", "", nil); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	list, err := s.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("Expected 2 templates, got %d", len(list))
	}

	// Delete
	deleted, err := s.DeleteTemplate(tpl.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteTemplate = %v, %v", deleted, err)
	}
	deleted, err = s.DeleteTemplate(tpl.ID)
	if err != nil || deleted {
		t.Errorf("Second DeleteTemplate = %v, %v", deleted, err)
	}
}

func TestRunPersistence(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	none, err := s.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if none != nil {
		t.Error("Expected no run in empty store")
	}

	started, end := int64(1000), int64(301000)
	active := "a"
	run := models.RoutineRun{
		ID:           "run-1",
		TemplateID:   "tpl",
		TemplateName: "Morning",
		Pace:         models.PaceLow,
		Status:       models.RunStatusRunning,
		ActiveTaskID: &active,
		StartedAt:    &started,
		Tasks: []models.RunTask{{
			ID:                        "a",
			Name:                      "Make bed",
			DurationMs:                300000,
			Status:                    models.TaskStatusActive,
			StartedAt:                 &started,
			PlannedEndAt:              &end,
			MilestoneAnnouncedMinutes: models.MinuteSet{1, 2},
		}},
	}

	if err := s.SaveRun(run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := s.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if got == nil || got.ID != "run-1" {
		t.Fatalf("LatestRun = %+v", got)
	}
	if *got.ActiveTaskID != "a" || *got.Tasks[0].PlannedEndAt != 301000 {
		t.Errorf("Run state not round-tripped: %+v", got)
	}
	if !got.Tasks[0].MilestoneAnnouncedMinutes.Contains(2) {
		t.Error("Announced minutes lost")
	}

	// Upsert replaces state.
	run.Status = models.RunStatusPaused
	if err := s.SaveRun(run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	got, _ = s.GetRun("run-1")
	if got.Status != models.RunStatusPaused {
		t.Errorf("Expected paused, got %s", got.Status)
	}

	// Delete
	if err := s.DeleteRun("run-1"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	got, _ = s.GetRun("run-1")
	if got != nil {
		t.Error("Run should be deleted")
	}
}

func TestJournal(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if _, err := s.WriteJournal("run-1", "start", "hash1", "applied", ""); err != nil {
		t.Fatalf("WriteJournal failed: %v", err)
	}
	if _, err := s.WriteJournal("run-1", "pause", "hash2", "noop", "run not running"); err != nil {
		t.Fatalf("WriteJournal failed: %v", err)
	}
	if _, err := s.WriteJournal("run-2", "start", "hash3", "applied", ""); err != nil {
		t.Fatalf("WriteJournal failed: %v", err)
	}

	entries, err := s.ListJournal("run-1")
	if err != nil {
		t.Fatalf("ListJournal failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != "start" || entries[1].Outcome != "noop" || entries[1].Details != "run not running" {
		t.Errorf("Unexpected entries: %+v", entries)
	}

	if err := s.DeleteRun("run-1"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	entries, _ = s.ListJournal("run-1")
	if len(entries) != 0 {
		t.Error("Journal should be removed with its run")
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.Ping(ctx)
	if err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func newTestStore(t *testing.T) *Store {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return s
}
