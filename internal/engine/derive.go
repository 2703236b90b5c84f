package engine

import (
	"fmt"
	"strings"

	"github.com/fentz26/tempo/internal/models"
)

// DeriveVisibleTasks filters a template's tasks to those shown at pace,
// preserving their relative order.
//
//   - low: only tasks included at low.
//   - steady: everything except flow-only extras. A task tagged both low and
//     flow is still shown.
//   - flow: everything.
//
// Unknown paces are treated as steady.
func DeriveVisibleTasks(tasks []models.TemplateTask, pace models.Pace) []models.TemplateTask {
	out := make([]models.TemplateTask, 0, len(tasks))
	for _, t := range tasks {
		if visibleAt(&t, pace) {
			out = append(out, t)
		}
	}
	return out
}

func visibleAt(t *models.TemplateTask, pace models.Pace) bool {
	switch pace {
	case models.PaceLow:
		return t.IncludedAtLow()
	case models.PaceFlow:
		return true
	default:
		return !t.FlowOnlyExtra() || t.IncludedAtLow()
	}
}

// NewRun materializes a not-started run from a template at the given pace.
// Tasks get contiguous orders from 0 in template order.
func NewRun(tpl models.Template, pace models.Pace, runID string) models.RoutineRun {
	visible := DeriveVisibleTasks(tpl.Tasks, pace)
	run := models.RoutineRun{
		ID:           runID,
		TemplateID:   tpl.ID,
		TemplateName: tpl.Name,
		Pace:         pace,
		Status:       models.RunStatusNotStarted,
		Tasks:        make([]models.RunTask, 0, len(visible)),
	}
	for i, t := range visible {
		id := t.ID
		if id == "" {
			id = fmt.Sprintf("task-%d", i+1)
		}
		task := models.RunTask{
			ID:          id,
			Name:        t.Name,
			Order:       i,
			DurationMs:  t.DurationMs,
			Status:      models.TaskStatusPending,
			AutoAdvance: t.AutoAdvance,
		}
		for j, st := range t.Subtasks {
			sid := st.ID
			if sid == "" {
				sid = fmt.Sprintf("%s-%d", id, j+1)
			}
			task.Subtasks = append(task.Subtasks, models.Subtask{ID: sid, Text: st.Text, Order: j})
		}
		run.Tasks = append(run.Tasks, task)
	}
	return run
}

// NewAdHocRun materializes a run holding a single ad-hoc task.
func NewAdHocRun(runID, taskID, name string, durationMs int64) models.RoutineRun {
	name = strings.TrimSpace(name)
	if durationMs < 0 {
		durationMs = 0
	}
	return models.RoutineRun{
		ID:           runID,
		TemplateName: name,
		Pace:         models.PaceSteady,
		Status:       models.RunStatusNotStarted,
		Tasks: []models.RunTask{{
			ID:         taskID,
			Name:       name,
			DurationMs: durationMs,
			Status:     models.TaskStatusPending,
		}},
	}
}
