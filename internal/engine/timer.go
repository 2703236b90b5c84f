package engine

import "github.com/fentz26/tempo/internal/models"

// Reading is a snapshot of a task's timer at a given instant.
type Reading struct {
	RemainingMs    int64 `json:"remainingMs"`
	IsOvertime     bool  `json:"isOvertime"`
	OvertimeMs     int64 `json:"overtimeMs"`
	ElapsedMs      int64 `json:"elapsedMs"`
	TotalPlannedMs int64 `json:"totalPlannedMs"`
}

// ComputeRemaining reads the task's timer at the given instant. It returns nil
// when the task has not been started.
//
// The result is derived from absolute timestamps only, so it is correct no
// matter how long the caller slept between calls. While the run is paused,
// pass the run's pausedAt as at (see Clock) to freeze the display.
func ComputeRemaining(task *models.RunTask, at int64) *Reading {
	if task == nil || task.StartedAt == nil || task.PlannedEndAt == nil {
		return nil
	}
	started, end := *task.StartedAt, *task.PlannedEndAt
	remaining := end - at
	r := &Reading{
		RemainingMs:    remaining,
		IsOvertime:     remaining < 0,
		ElapsedMs:      at - started,
		TotalPlannedMs: end - started,
	}
	if remaining < 0 {
		r.OvertimeMs = -remaining
	}
	return r
}

// Clock returns the instant timers of run should be read at: pausedAt while
// the run is paused, now otherwise.
func Clock(run *models.RoutineRun, now int64) int64 {
	if run.Status == models.RunStatusPaused && run.PausedAt != nil {
		return *run.PausedAt
	}
	return now
}

// ReadActive reads the active task's timer, honouring pause. Nil when there is
// no active task.
func ReadActive(run *models.RoutineRun, now int64) *Reading {
	return ComputeRemaining(run.ActiveTask(), Clock(run, now))
}

func plannedEnd(task *models.RunTask) *int64 {
	if task.StartedAt == nil {
		return nil
	}
	return ptr(*task.StartedAt + task.PlannedTotalMs())
}

func ptr[T any](v T) *T {
	return &v
}
