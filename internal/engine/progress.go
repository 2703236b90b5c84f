package engine

import (
	"fmt"
	"sort"

	"github.com/fentz26/tempo/internal/models"
)

// Summary counts a run's tasks by outcome.
type Summary struct {
	Total              int   `json:"total"`
	Completed          int   `json:"completed"`
	Skipped            int   `json:"skipped"`
	Remaining          int   `json:"remaining"`
	RemainingPlannedMs int64 `json:"remainingPlannedMs"`
}

// Progress summarizes run. RemainingPlannedMs counts pending tasks in full
// and the active task's unexpired time as of now.
func Progress(run models.RoutineRun, now int64) Summary {
	s := Summary{Total: len(run.Tasks)}
	for i := range run.Tasks {
		t := &run.Tasks[i]
		switch t.Status {
		case models.TaskStatusCompleted:
			s.Completed++
		case models.TaskStatusSkipped:
			s.Skipped++
		case models.TaskStatusPending:
			s.Remaining++
			s.RemainingPlannedMs += t.PlannedTotalMs()
		case models.TaskStatusActive:
			s.Remaining++
			if r := ComputeRemaining(t, Clock(&run, now)); r != nil && r.RemainingMs > 0 {
				s.RemainingPlannedMs += r.RemainingMs
			}
		}
	}
	return s
}

// Validate checks the structural invariants of a run: a single active task
// consistent with ActiveTaskID, active tasks only in running or paused runs,
// and contiguous queue orders from zero.
func Validate(run models.RoutineRun) error {
	var active []string
	seen := make(map[string]bool, len(run.Tasks))
	var orders []int
	for _, t := range run.Tasks {
		if seen[t.ID] {
			return fmt.Errorf("duplicate task id %q", t.ID)
		}
		seen[t.ID] = true
		if t.Status == models.TaskStatusActive {
			active = append(active, t.ID)
		}
		if t.Status.Queued() {
			orders = append(orders, t.Order)
		}
	}

	if len(active) > 1 {
		return fmt.Errorf("%d active tasks", len(active))
	}
	switch {
	case len(active) == 1 && (run.ActiveTaskID == nil || *run.ActiveTaskID != active[0]):
		return fmt.Errorf("active task %q not referenced by activeTaskId", active[0])
	case len(active) == 0 && run.ActiveTaskID != nil:
		return fmt.Errorf("activeTaskId %q references no active task", *run.ActiveTaskID)
	}
	if len(active) == 1 && run.Status != models.RunStatusRunning && run.Status != models.RunStatusPaused {
		return fmt.Errorf("active task in %s run", run.Status)
	}

	sort.Ints(orders)
	for i, o := range orders {
		if o != i {
			return fmt.Errorf("queue orders not contiguous: %v", orders)
		}
	}
	if a := run.ActiveTask(); a != nil && a.Order != 0 {
		return fmt.Errorf("active task has order %d", a.Order)
	}
	return nil
}
