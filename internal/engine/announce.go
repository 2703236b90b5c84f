package engine

import "github.com/fentz26/tempo/internal/models"

const (
	// AutoAdvanceWarningMs is how long before time-zero the auto-advance warning fires.
	AutoAdvanceWarningMs int64 = 60_000
	// MinElapsedForTimeUpMs keeps a task that starts already past zero from
	// announcing time-up on its first tick.
	MinElapsedForTimeUpMs int64 = 1_000

	minuteMs int64 = 60_000
)

// AnnounceConfig holds the host-supplied announcement intervals in minutes.
// Non-positive intervals disable the corresponding trigger.
type AnnounceConfig struct {
	MilestoneIntervalMin int `json:"milestone_interval_min"`
	OvertimeIntervalMin  int `json:"overtime_interval_min"`
}

// TickState carries the previous timer reading between ticks. Zero-crossing
// is an edge, so the caller must keep the last reading and feed it back.
type TickState struct {
	TaskID      string `json:"task_id"`
	RemainingMs int64  `json:"remaining_ms"`
	Valid       bool   `json:"valid"`
}

// Previous returns the last remaining time observed for taskID.
func (s TickState) Previous(taskID string) (int64, bool) {
	if !s.Valid || s.TaskID != taskID {
		return 0, false
	}
	return s.RemainingMs, true
}

// Observe returns the state after seeing r for taskID. A nil reading clears it.
func (s TickState) Observe(taskID string, r *Reading) TickState {
	if r == nil {
		return TickState{}
	}
	return TickState{TaskID: taskID, RemainingMs: r.RemainingMs, Valid: true}
}

// TriggerKind identifies an announcement decision.
type TriggerKind string

const (
	TriggerAutoAdvanceWarning TriggerKind = "auto_advance_warning"
	TriggerAutoAdvance        TriggerKind = "auto_advance"
	TriggerTimeUp             TriggerKind = "time_up"
	TriggerMilestone          TriggerKind = "milestone"
	TriggerOvertime           TriggerKind = "overtime"
)

// Trigger is a decision to announce (and for auto-advance, to transition).
// Minute is set for milestone and overtime triggers.
type Trigger struct {
	Kind   TriggerKind `json:"kind"`
	TaskID string      `json:"task_id"`
	Minute int         `json:"minute,omitempty"`
}

// ShouldWarnAutoAdvance reports whether the one-minute auto-advance warning is due.
func ShouldWarnAutoAdvance(task *models.RunTask, r Reading) bool {
	return task.AutoAdvance && !task.AutoAdvanceWarningAnnounced &&
		r.RemainingMs > 0 && r.RemainingMs <= AutoAdvanceWarningMs
}

// ZeroCrossed reports whether remaining time went from positive to zero or
// below between the previous and the current reading.
func ZeroCrossed(prevRemainingMs int64, hasPrev bool, r Reading) bool {
	return hasPrev && prevRemainingMs > 0 && r.RemainingMs <= 0 && r.ElapsedMs >= MinElapsedForTimeUpMs
}

// DueMilestone returns the elapsed-minute milestone to announce, if any.
func DueMilestone(task *models.RunTask, r Reading, intervalMin int) (int, bool) {
	if intervalMin <= 0 || r.ElapsedMs < 0 {
		return 0, false
	}
	elapsedMin := int(r.ElapsedMs / minuteMs)
	boundary := elapsedMin / intervalMin * intervalMin
	if boundary < intervalMin || elapsedMin < boundary || task.MilestoneAnnouncedMinutes.Contains(boundary) {
		return 0, false
	}
	return boundary, true
}

// DueOvertime returns the overtime-minute mark to announce, if any.
func DueOvertime(task *models.RunTask, r Reading, intervalMin int) (int, bool) {
	if intervalMin <= 0 || !r.IsOvertime {
		return 0, false
	}
	overMin := int(r.OvertimeMs / minuteMs)
	boundary := overMin / intervalMin * intervalMin
	if boundary < intervalMin || task.OvertimeAnnouncedMinutes.Contains(boundary) {
		return 0, false
	}
	return boundary, true
}

// Evaluate returns the triggers due for the run's active task given the
// current reading and the previous tick. It decides only; callers apply each
// trigger with ApplyTrigger and deliver the announcement themselves.
//
// Nothing fires unless the run is running.
func Evaluate(run models.RoutineRun, tick TickState, r *Reading, cfg AnnounceConfig) []Trigger {
	task := run.ActiveTask()
	if run.Status != models.RunStatusRunning || task == nil || r == nil {
		return nil
	}

	var out []Trigger
	if ShouldWarnAutoAdvance(task, *r) {
		out = append(out, Trigger{Kind: TriggerAutoAdvanceWarning, TaskID: task.ID})
	}
	prev, ok := tick.Previous(task.ID)
	if ZeroCrossed(prev, ok, *r) {
		if task.AutoAdvance {
			// The task is completed by the advance; later triggers would be stale.
			return append(out, Trigger{Kind: TriggerAutoAdvance, TaskID: task.ID})
		}
		if !task.TimeUpAnnounced {
			out = append(out, Trigger{Kind: TriggerTimeUp, TaskID: task.ID})
		}
	}
	if m, ok := DueMilestone(task, *r, cfg.MilestoneIntervalMin); ok {
		out = append(out, Trigger{Kind: TriggerMilestone, TaskID: task.ID, Minute: m})
	}
	if m, ok := DueOvertime(task, *r, cfg.OvertimeIntervalMin); ok {
		out = append(out, Trigger{Kind: TriggerOvertime, TaskID: task.ID, Minute: m})
	}
	return out
}

// ActionFor maps a trigger to the transition that records it.
func ActionFor(t Trigger) Action {
	switch t.Kind {
	case TriggerAutoAdvanceWarning:
		return Action{Kind: ActionMarkAutoAdvanceWarning, TaskID: t.TaskID}
	case TriggerAutoAdvance:
		return Action{Kind: ActionAdvance, TaskID: t.TaskID}
	case TriggerTimeUp:
		return Action{Kind: ActionMarkTimeUp, TaskID: t.TaskID}
	case TriggerMilestone:
		return Action{Kind: ActionMarkMilestone, TaskID: t.TaskID, Minute: t.Minute}
	case TriggerOvertime:
		return Action{Kind: ActionMarkOvertime, TaskID: t.TaskID, Minute: t.Minute}
	}
	return Action{}
}

// ApplyTrigger records a trigger in the run. An auto-advance only applies
// while its task is still the active one.
func ApplyTrigger(run models.RoutineRun, t Trigger, now int64) (models.RoutineRun, bool) {
	if t.Kind == TriggerAutoAdvance {
		if a := run.ActiveTask(); a == nil || a.ID != t.TaskID {
			return run, false
		}
	}
	return Apply(run, ActionFor(t), now)
}

// MarkAutoAdvanceWarning records that the auto-advance warning was announced.
func MarkAutoAdvanceWarning(run models.RoutineRun, taskID string) models.RoutineRun {
	next, _ := markAutoAdvanceWarning(run, taskID)
	return next
}

// MarkTimeUp records that time-up was announced.
func MarkTimeUp(run models.RoutineRun, taskID string) models.RoutineRun {
	next, _ := markTimeUp(run, taskID)
	return next
}

// MarkMilestone records an announced elapsed-minute milestone.
func MarkMilestone(run models.RoutineRun, taskID string, minute int) models.RoutineRun {
	next, _ := markMilestone(run, taskID, minute)
	return next
}

// MarkOvertime records an announced overtime-minute mark.
func MarkOvertime(run models.RoutineRun, taskID string, minute int) models.RoutineRun {
	next, _ := markOvertime(run, taskID, minute)
	return next
}

// markTask applies set to a copy of the task when it would change something.
func markTask(run models.RoutineRun, taskID string, done func(*models.RunTask) bool, set func(*models.RunTask)) (models.RoutineRun, bool) {
	if run.Status.Terminal() {
		return run, false
	}
	i := run.TaskIndex(taskID)
	if i < 0 || done(&run.Tasks[i]) {
		return run, false
	}
	next := run.Clone()
	set(&next.Tasks[i])
	return next, true
}

func markAutoAdvanceWarning(run models.RoutineRun, taskID string) (models.RoutineRun, bool) {
	return markTask(run, taskID,
		func(t *models.RunTask) bool { return t.AutoAdvanceWarningAnnounced },
		func(t *models.RunTask) { t.AutoAdvanceWarningAnnounced = true })
}

func markTimeUp(run models.RoutineRun, taskID string) (models.RoutineRun, bool) {
	return markTask(run, taskID,
		func(t *models.RunTask) bool { return t.TimeUpAnnounced },
		func(t *models.RunTask) { t.TimeUpAnnounced = true })
}

func markMilestone(run models.RoutineRun, taskID string, minute int) (models.RoutineRun, bool) {
	if minute <= 0 {
		return run, false
	}
	return markTask(run, taskID,
		func(t *models.RunTask) bool { return t.MilestoneAnnouncedMinutes.Contains(minute) },
		func(t *models.RunTask) { t.MilestoneAnnouncedMinutes = t.MilestoneAnnouncedMinutes.With(minute) })
}

func markOvertime(run models.RoutineRun, taskID string, minute int) (models.RoutineRun, bool) {
	if minute <= 0 {
		return run, false
	}
	return markTask(run, taskID,
		func(t *models.RunTask) bool { return t.OvertimeAnnouncedMinutes.Contains(minute) },
		func(t *models.RunTask) { t.OvertimeAnnouncedMinutes = t.OvertimeAnnouncedMinutes.With(minute) })
}
