package engine

import (
	"reflect"
	"testing"

	"github.com/fentz26/tempo/internal/models"
)

func TestDeriveVisibleTasks(t *testing.T) {
	tasks := []models.TemplateTask{
		{ID: "A", LowIncluded: true},
		{ID: "B", FlowIncluded: true},
		{ID: "C", LowIncluded: true, FlowIncluded: true},
		{ID: "D"},
	}

	tests := []struct {
		pace models.Pace
		want []string
	}{
		{models.PaceLow, []string{"A", "C"}},
		{models.PaceSteady, []string{"A", "C", "D"}},
		{models.PaceFlow, []string{"A", "B", "C", "D"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.pace), func(t *testing.T) {
			var got []string
			for _, task := range DeriveVisibleTasks(tasks, tt.pace) {
				got = append(got, task.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DeriveVisibleTasks(%s) = %v, want %v", tt.pace, got, tt.want)
			}
		})
	}
}

func TestDeriveVisibleTasks_LegacyFlags(t *testing.T) {
	tasks := []models.TemplateTask{
		{ID: "A", LowSafe: true},
		{ID: "B", FlowExtra: true},
	}
	low := DeriveVisibleTasks(tasks, models.PaceLow)
	if len(low) != 1 || low[0].ID != "A" {
		t.Errorf("low = %+v, want [A]", low)
	}
	steady := DeriveVisibleTasks(tasks, models.PaceSteady)
	if len(steady) != 1 || steady[0].ID != "A" {
		t.Errorf("steady = %+v, want [A]", steady)
	}
}

func TestNewRun(t *testing.T) {
	tpl := models.Template{
		ID:   "tpl",
		Name: "Evening",
		Tasks: []models.TemplateTask{
			{ID: "a", Name: "Dishes", DurationMs: 10 * minute, AutoAdvance: true,
				Subtasks: []models.TemplateSubtask{{Text: "Rinse"}, {ID: "dry", Text: "Dry"}}},
			{ID: "b", Name: "Stretch", DurationMs: 5 * minute, FlowIncluded: true},
			{ID: "c", Name: "Read", DurationMs: 20 * minute},
		},
	}

	run := NewRun(tpl, models.PaceSteady, "run-9")

	if run.Status != models.RunStatusNotStarted {
		t.Errorf("Status = %s, want notStarted", run.Status)
	}
	if got := queueIDs(run); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("queue = %v, want [a c]", got)
	}
	a := taskByID(t, run, "a")
	if !a.AutoAdvance || a.DurationMs != 10*minute {
		t.Errorf("task a not copied from template: %+v", a)
	}
	if len(a.Subtasks) != 2 || a.Subtasks[0].ID != "a-1" || a.Subtasks[1].ID != "dry" {
		t.Errorf("subtasks = %+v", a.Subtasks)
	}
	if run.ActiveTaskID != nil || a.StartedAt != nil {
		t.Error("new run should have no active task or timestamps")
	}
	mustValid(t, run)

	// Template untouched.
	if len(tpl.Tasks) != 3 || tpl.Tasks[0].Subtasks[0].ID != "" {
		t.Error("NewRun mutated the template")
	}
}

func TestNewAdHocRun(t *testing.T) {
	run := NewAdHocRun("run", "task", "  Call mum ", 15*minute)
	if len(run.Tasks) != 1 || run.Tasks[0].Name != "Call mum" {
		t.Fatalf("unexpected tasks: %+v", run.Tasks)
	}
	run = Start(run, 0)
	if run.Status != models.RunStatusRunning {
		t.Errorf("Status = %s, want running", run.Status)
	}
	mustValid(t, run)
}
