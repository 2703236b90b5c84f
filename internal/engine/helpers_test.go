package engine

import (
	"fmt"
	"sort"
	"testing"

	"github.com/fentz26/tempo/internal/models"
)

const minute = int64(60_000)

// newTestRun builds a not-started run with tasks t1..tN of the given durations.
func newTestRun(durations ...int64) models.RoutineRun {
	tpl := models.Template{ID: "tpl", Name: "Morning"}
	for i, d := range durations {
		tpl.Tasks = append(tpl.Tasks, models.TemplateTask{
			ID:         fmt.Sprintf("t%d", i+1),
			Name:       fmt.Sprintf("Task %d", i+1),
			DurationMs: d,
		})
	}
	return NewRun(tpl, models.PaceFlow, "run-1")
}

// queueIDs returns pending and active task ids sorted by order.
func queueIDs(run models.RoutineRun) []string {
	var queued []models.RunTask
	for _, t := range run.Tasks {
		if t.Status.Queued() {
			queued = append(queued, t)
		}
	}
	sort.Slice(queued, func(i, j int) bool { return queued[i].Order < queued[j].Order })
	ids := make([]string, len(queued))
	for i, t := range queued {
		ids[i] = t.ID
	}
	return ids
}

func taskByID(t *testing.T, run models.RoutineRun, id string) models.RunTask {
	t.Helper()
	i := run.TaskIndex(id)
	if i < 0 {
		t.Fatalf("task %s not found", id)
	}
	return run.Tasks[i]
}

func mustValid(t *testing.T, run models.RoutineRun) {
	t.Helper()
	if err := Validate(run); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
}
