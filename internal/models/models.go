// Package models defines the core domain types for Tempo.
package models

import "time"

// Pace is the energy level a run was started under.
type Pace string

const (
	PaceLow    Pace = "low"
	PaceSteady Pace = "steady"
	PaceFlow   Pace = "flow"
)

// Valid reports whether p is one of the known paces.
func (p Pace) Valid() bool {
	switch p {
	case PaceLow, PaceSteady, PaceFlow:
		return true
	}
	return false
}

// RunStatus represents the lifecycle state of a routine run.
type RunStatus string

const (
	RunStatusNotStarted RunStatus = "notStarted"
	RunStatusRunning    RunStatus = "running"
	RunStatusPaused     RunStatus = "paused"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusAbandoned  RunStatus = "abandoned"
)

// Terminal reports whether no further transitions apply.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusAbandoned
}

// TaskStatus represents the state of a task within a run.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusActive    TaskStatus = "active"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusSkipped   TaskStatus = "skipped"
)

// Queued reports whether the task still takes part in queue ordering.
func (s TaskStatus) Queued() bool {
	return s == TaskStatusPending || s == TaskStatusActive
}

// Subtask is a checklist step local to a run.
type Subtask struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Order   int    `json:"order"`
	Checked bool   `json:"checked"`
}

// RunTask is a single timed task inside a run. All timestamps are epoch milliseconds.
type RunTask struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`

	DurationMs int64 `json:"durationMs"`
	// ExtensionMs may be negative when time is given back.
	ExtensionMs  int64      `json:"extensionMs"`
	Status       TaskStatus `json:"status"`
	StartedAt    *int64     `json:"startedAt,omitempty"`
	PlannedEndAt *int64     `json:"plannedEndAt,omitempty"`
	AutoAdvance  bool       `json:"autoAdvance"`

	AutoAdvanceWarningAnnounced bool      `json:"autoAdvanceWarningAnnounced"`
	TimeUpAnnounced             bool      `json:"timeUpAnnounced"`
	OvertimeAnnouncedMinutes    MinuteSet `json:"overtimeAnnouncedMinutes"`
	MilestoneAnnouncedMinutes   MinuteSet `json:"milestoneAnnouncedMinutes"`

	Subtasks []Subtask `json:"subtasks,omitempty"`
}

// PlannedTotalMs returns durationMs + extensionMs, never below zero.
func (t *RunTask) PlannedTotalMs() int64 {
	total := t.DurationMs + t.ExtensionMs
	if total < 0 {
		return 0
	}
	return total
}

// Clone returns a deep copy of the task.
func (t RunTask) Clone() RunTask {
	out := t
	out.StartedAt = cloneInt64(t.StartedAt)
	out.PlannedEndAt = cloneInt64(t.PlannedEndAt)
	out.OvertimeAnnouncedMinutes = t.OvertimeAnnouncedMinutes.Clone()
	out.MilestoneAnnouncedMinutes = t.MilestoneAnnouncedMinutes.Clone()
	if t.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(t.Subtasks))
		copy(out.Subtasks, t.Subtasks)
	}
	return out
}

// RoutineRun is the live instance of executing a routine. There is a single live run at a time.
type RoutineRun struct {
	ID           string    `json:"id"`
	TemplateID   string    `json:"templateId"`
	TemplateName string    `json:"templateName"`
	Pace         Pace      `json:"pace"`
	Status       RunStatus `json:"status"`
	Tasks        []RunTask `json:"tasks"`
	ActiveTaskID *string   `json:"activeTaskId"`
	StartedAt    *int64    `json:"startedAt,omitempty"`
	PausedAt     *int64    `json:"pausedAt,omitempty"`
	EndedAt      *int64    `json:"endedAt,omitempty"`
}

// Clone returns a deep copy of the run.
func (r RoutineRun) Clone() RoutineRun {
	out := r
	if r.Tasks != nil {
		out.Tasks = make([]RunTask, len(r.Tasks))
		for i, t := range r.Tasks {
			out.Tasks[i] = t.Clone()
		}
	}
	out.ActiveTaskID = cloneString(r.ActiveTaskID)
	out.StartedAt = cloneInt64(r.StartedAt)
	out.PausedAt = cloneInt64(r.PausedAt)
	out.EndedAt = cloneInt64(r.EndedAt)
	return out
}

// TaskIndex returns the index of the task with the given id, or -1.
func (r *RoutineRun) TaskIndex(id string) int {
	for i := range r.Tasks {
		if r.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// ActiveTask returns the active task, or nil.
func (r *RoutineRun) ActiveTask() *RunTask {
	if r.ActiveTaskID == nil {
		return nil
	}
	if i := r.TaskIndex(*r.ActiveTaskID); i >= 0 {
		return &r.Tasks[i]
	}
	return nil
}

// TemplateSubtask is a checklist step defined on a template task.
type TemplateSubtask struct {
	ID   string `json:"id" yaml:"id,omitempty"`
	Text string `json:"text" yaml:"text"`
}

// TemplateTask is a task as defined by a routine template.
type TemplateTask struct {
	ID          string `json:"id" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	DurationMs  int64  `json:"durationMs" yaml:"-"`
	AutoAdvance bool   `json:"autoAdvance" yaml:"auto_advance"`

	LowIncluded  bool `json:"lowIncluded,omitempty" yaml:"low,omitempty"`
	FlowIncluded bool `json:"flowIncluded,omitempty" yaml:"flow,omitempty"`
	// Legacy aliases kept for stored templates written before the rename.
	LowSafe   bool `json:"lowSafe,omitempty" yaml:"low_safe,omitempty"`
	FlowExtra bool `json:"flowExtra,omitempty" yaml:"flow_extra,omitempty"`

	Subtasks []TemplateSubtask `json:"subtasks,omitempty" yaml:"subtasks,omitempty"`
}

// IncludedAtLow reports whether the task is shown at low pace.
func (t *TemplateTask) IncludedAtLow() bool {
	return t.LowIncluded || t.LowSafe
}

// FlowOnlyExtra reports whether the task is flagged as a flow extra.
func (t *TemplateTask) FlowOnlyExtra() bool {
	return t.FlowIncluded || t.FlowExtra
}

// Template is a reusable routine definition. The engine never mutates it.
type Template struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Tasks       []TemplateTask `json:"tasks"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// JournalEntry records a dispatched action for audit.
type JournalEntry struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
