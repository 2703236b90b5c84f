package engine

import "github.com/fentz26/tempo/internal/models"

// ActionKind names a run transition.
type ActionKind string

const (
	ActionStart             ActionKind = "start"
	ActionPause             ActionKind = "pause"
	ActionResume            ActionKind = "resume"
	ActionEnd               ActionKind = "end"
	ActionAdvance           ActionKind = "advance"
	ActionSkip              ActionKind = "skip"
	ActionExtend            ActionKind = "extend"
	ActionMove              ActionKind = "move"
	ActionAddQuickTask      ActionKind = "add_quick_task"
	ActionToggleSubtask     ActionKind = "toggle_subtask"
	ActionToggleAutoAdvance ActionKind = "toggle_auto_advance"

	ActionMarkAutoAdvanceWarning ActionKind = "mark_auto_advance_warning"
	ActionMarkTimeUp             ActionKind = "mark_time_up"
	ActionMarkMilestone          ActionKind = "mark_milestone"
	ActionMarkOvertime           ActionKind = "mark_overtime"
)

var knownActions = map[ActionKind]bool{
	ActionStart:                  true,
	ActionPause:                  true,
	ActionResume:                 true,
	ActionEnd:                    true,
	ActionAdvance:                true,
	ActionSkip:                   true,
	ActionExtend:                 true,
	ActionMove:                   true,
	ActionAddQuickTask:           true,
	ActionToggleSubtask:          true,
	ActionToggleAutoAdvance:      true,
	ActionMarkAutoAdvanceWarning: true,
	ActionMarkTimeUp:             true,
	ActionMarkMilestone:          true,
	ActionMarkOvertime:           true,
}

// Known reports whether k is a recognised action.
func (k ActionKind) Known() bool {
	return knownActions[k]
}

// Action is a serializable transition request. Only the fields relevant to
// Kind are read; for add_quick_task TaskID is the id of the new task.
type Action struct {
	Kind       ActionKind `json:"kind"`
	TaskID     string     `json:"task_id,omitempty"`
	SubtaskID  string     `json:"subtask_id,omitempty"`
	DeltaMs    int64      `json:"delta_ms,omitempty"`
	Position   Position   `json:"position,omitempty"`
	Name       string     `json:"name,omitempty"`
	DurationMs int64      `json:"duration_ms,omitempty"`
	Minute     int        `json:"minute,omitempty"`
}

// Apply is the run reducer. It returns the next run and whether the action
// changed anything; unknown actions and unmet preconditions are no-ops.
func Apply(run models.RoutineRun, a Action, now int64) (models.RoutineRun, bool) {
	switch a.Kind {
	case ActionStart:
		return start(run, now)
	case ActionPause:
		return pause(run, now)
	case ActionResume:
		return resume(run, now)
	case ActionEnd:
		return end(run, now)
	case ActionAdvance:
		return advance(run, now)
	case ActionSkip:
		return skip(run, a.TaskID, now)
	case ActionExtend:
		return extend(run, a.TaskID, a.DeltaMs)
	case ActionMove:
		return moveTask(run, a.TaskID, a.Position)
	case ActionAddQuickTask:
		return addQuickTask(run, a.TaskID, a.Name, a.DurationMs)
	case ActionToggleSubtask:
		return toggleSubtask(run, a.TaskID, a.SubtaskID)
	case ActionToggleAutoAdvance:
		return toggleAutoAdvance(run, a.TaskID)
	case ActionMarkAutoAdvanceWarning:
		return markAutoAdvanceWarning(run, a.TaskID)
	case ActionMarkTimeUp:
		return markTimeUp(run, a.TaskID)
	case ActionMarkMilestone:
		return markMilestone(run, a.TaskID, a.Minute)
	case ActionMarkOvertime:
		return markOvertime(run, a.TaskID, a.Minute)
	}
	return run, false
}
