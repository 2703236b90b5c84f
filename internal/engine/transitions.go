package engine

import (
	"strings"

	"github.com/fentz26/tempo/internal/models"
)

// Start activates the lowest-order pending task of a not-started run.
func Start(run models.RoutineRun, now int64) models.RoutineRun {
	next, _ := start(run, now)
	return next
}

// Pause freezes a running run at now. Task timestamps are untouched.
func Pause(run models.RoutineRun, now int64) models.RoutineRun {
	next, _ := pause(run, now)
	return next
}

// Resume continues a paused run, shifting the active task's timestamps by the
// paused gap so its remaining time is preserved.
func Resume(run models.RoutineRun, now int64) models.RoutineRun {
	next, _ := resume(run, now)
	return next
}

// End abandons a non-terminal run.
func End(run models.RoutineRun, now int64) models.RoutineRun {
	next, _ := end(run, now)
	return next
}

// AdvanceToNextTask completes the active task and activates the next pending
// one, or completes the run when the queue is empty.
func AdvanceToNextTask(run models.RoutineRun, now int64) models.RoutineRun {
	next, _ := advance(run, now)
	return next
}

// SkipTask marks a pending or active task skipped. Skipping the active task
// progresses the queue like AdvanceToNextTask.
func SkipTask(run models.RoutineRun, id string, now int64) models.RoutineRun {
	next, _ := skip(run, id, now)
	return next
}

// ExtendTask adds deltaMs (possibly negative) to a task's extension. The
// planned total never drops below zero. An active task's planned end is
// recomputed immediately.
func ExtendTask(run models.RoutineRun, id string, deltaMs int64) models.RoutineRun {
	next, _ := extend(run, id, deltaMs)
	return next
}

// MoveTask repositions a pending task in the queue and renumbers the queue.
func MoveTask(run models.RoutineRun, id string, pos Position) models.RoutineRun {
	next, _ := moveTask(run, id, pos)
	return next
}

// AddQuickTask appends a pending task at the end of the queue.
func AddQuickTask(run models.RoutineRun, id, name string, durationMs int64) models.RoutineRun {
	next, _ := addQuickTask(run, id, name, durationMs)
	return next
}

// ToggleSubtask flips a subtask's checked flag.
func ToggleSubtask(run models.RoutineRun, taskID, subtaskID string) models.RoutineRun {
	next, _ := toggleSubtask(run, taskID, subtaskID)
	return next
}

// ToggleAutoAdvance flips a task's auto-advance flag.
func ToggleAutoAdvance(run models.RoutineRun, taskID string) models.RoutineRun {
	next, _ := toggleAutoAdvance(run, taskID)
	return next
}

func start(run models.RoutineRun, now int64) (models.RoutineRun, bool) {
	if run.Status != models.RunStatusNotStarted {
		return run, false
	}
	if nextPending(&run) < 0 {
		return run, false
	}
	next := run.Clone()
	activate(&next, nextPending(&next), now)
	next.Status = models.RunStatusRunning
	next.StartedAt = ptr(now)
	renumber(&next)
	return next, true
}

func pause(run models.RoutineRun, now int64) (models.RoutineRun, bool) {
	if run.Status != models.RunStatusRunning {
		return run, false
	}
	next := run.Clone()
	next.Status = models.RunStatusPaused
	next.PausedAt = ptr(now)
	return next, true
}

func resume(run models.RoutineRun, now int64) (models.RoutineRun, bool) {
	if run.Status != models.RunStatusPaused {
		return run, false
	}
	next := run.Clone()
	var delta int64
	if next.PausedAt != nil && now > *next.PausedAt {
		delta = now - *next.PausedAt
	}
	if t := next.ActiveTask(); t != nil && t.StartedAt != nil {
		t.StartedAt = ptr(*t.StartedAt + delta)
		t.PlannedEndAt = plannedEnd(t)
	}
	next.PausedAt = nil
	next.Status = models.RunStatusRunning
	return next, true
}

func end(run models.RoutineRun, now int64) (models.RoutineRun, bool) {
	if run.Status.Terminal() {
		return run, false
	}
	next := run.Clone()
	// The in-progress task goes back to the queue rather than counting as done.
	if t := next.ActiveTask(); t != nil {
		t.Status = models.TaskStatusPending
		t.StartedAt = nil
		t.PlannedEndAt = nil
	}
	next.ActiveTaskID = nil
	next.PausedAt = nil
	next.Status = models.RunStatusAbandoned
	next.EndedAt = ptr(now)
	renumber(&next)
	return next, true
}

func advance(run models.RoutineRun, now int64) (models.RoutineRun, bool) {
	if run.Status.Terminal() || run.ActiveTask() == nil {
		return run, false
	}
	next := run.Clone()
	next.ActiveTask().Status = models.TaskStatusCompleted
	progressQueue(&next, now)
	return next, true
}

func skip(run models.RoutineRun, id string, now int64) (models.RoutineRun, bool) {
	if run.Status.Terminal() {
		return run, false
	}
	i := run.TaskIndex(id)
	if i < 0 {
		return run, false
	}
	switch run.Tasks[i].Status {
	case models.TaskStatusPending:
		next := run.Clone()
		next.Tasks[i].Status = models.TaskStatusSkipped
		renumber(&next)
		return next, true
	case models.TaskStatusActive:
		next := run.Clone()
		next.Tasks[i].Status = models.TaskStatusSkipped
		progressQueue(&next, now)
		return next, true
	}
	return run, false
}

// progressQueue runs after the active task left the active status: it
// activates the next pending task or completes the run.
func progressQueue(run *models.RoutineRun, now int64) {
	run.ActiveTaskID = nil
	i := nextPending(run)
	if i < 0 {
		run.Status = models.RunStatusCompleted
		run.PausedAt = nil
		run.EndedAt = ptr(now)
		renumber(run)
		return
	}
	// A task started during a pause begins at pausedAt so that the following
	// resume hands it its full duration.
	activate(run, i, Clock(run, now))
	renumber(run)
}

func activate(run *models.RoutineRun, i int, at int64) {
	t := &run.Tasks[i]
	t.Status = models.TaskStatusActive
	t.StartedAt = ptr(at)
	t.PlannedEndAt = plannedEnd(t)
	run.ActiveTaskID = ptr(t.ID)
}

func extend(run models.RoutineRun, id string, deltaMs int64) (models.RoutineRun, bool) {
	if run.Status.Terminal() || deltaMs == 0 {
		return run, false
	}
	i := run.TaskIndex(id)
	if i < 0 {
		return run, false
	}
	next := run.Clone()
	t := &next.Tasks[i]
	t.ExtensionMs += deltaMs
	if t.DurationMs+t.ExtensionMs < 0 {
		t.ExtensionMs = -t.DurationMs
	}
	if t.ExtensionMs == run.Tasks[i].ExtensionMs {
		return run, false
	}
	if t.Status == models.TaskStatusActive {
		t.PlannedEndAt = plannedEnd(t)
	}
	return next, true
}

func addQuickTask(run models.RoutineRun, id, name string, durationMs int64) (models.RoutineRun, bool) {
	name = strings.TrimSpace(name)
	if run.Status.Terminal() || id == "" || name == "" || durationMs < 0 {
		return run, false
	}
	if run.TaskIndex(id) >= 0 {
		return run, false
	}
	next := run.Clone()
	next.Tasks = append(next.Tasks, models.RunTask{
		ID:         id,
		Name:       name,
		Order:      queuedCount(&run),
		DurationMs: durationMs,
		Status:     models.TaskStatusPending,
	})
	renumber(&next)
	return next, true
}

func toggleSubtask(run models.RoutineRun, taskID, subtaskID string) (models.RoutineRun, bool) {
	if run.Status.Terminal() {
		return run, false
	}
	i := run.TaskIndex(taskID)
	if i < 0 {
		return run, false
	}
	for j := range run.Tasks[i].Subtasks {
		if run.Tasks[i].Subtasks[j].ID == subtaskID {
			next := run.Clone()
			st := &next.Tasks[i].Subtasks[j]
			st.Checked = !st.Checked
			return next, true
		}
	}
	return run, false
}

func toggleAutoAdvance(run models.RoutineRun, taskID string) (models.RoutineRun, bool) {
	if run.Status.Terminal() {
		return run, false
	}
	i := run.TaskIndex(taskID)
	if i < 0 {
		return run, false
	}
	next := run.Clone()
	next.Tasks[i].AutoAdvance = !next.Tasks[i].AutoAdvance
	return next, true
}
