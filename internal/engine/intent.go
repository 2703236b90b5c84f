package engine

import (
	"fmt"

	"github.com/fentz26/tempo/internal/models"
)

// IntentKind identifies an announcement for the audio and notification collaborators.
type IntentKind string

const (
	IntentAutoAdvanceWarning IntentKind = "auto_advance_warning"
	IntentAutoAdvance        IntentKind = "auto_advance"
	IntentTimeUp             IntentKind = "time_up"
	IntentMilestone          IntentKind = "milestone"
	IntentOvertime           IntentKind = "overtime"
	IntentTaskStarted        IntentKind = "task_started"
	IntentRoutineComplete    IntentKind = "routine_complete"
)

// Intent is a plain-text announcement.
type Intent struct {
	Kind   IntentKind `json:"kind"`
	TaskID string     `json:"task_id,omitempty"`
	Title  string     `json:"title"`
	Text   string     `json:"text"`
}

// IntentFor phrases a trigger against the run as it was when the trigger was
// evaluated.
func IntentFor(run models.RoutineRun, t Trigger) Intent {
	name := "this task"
	if i := run.TaskIndex(t.TaskID); i >= 0 {
		name = run.Tasks[i].Name
	}
	in := Intent{Kind: IntentKind(t.Kind), TaskID: t.TaskID, Title: run.TemplateName}

	switch t.Kind {
	case TriggerAutoAdvanceWarning:
		in.Text = fmt.Sprintf("One minute left on %s. Moving on automatically.", name)
	case TriggerAutoAdvance:
		if i := upNext(&run); i >= 0 {
			in.Text = fmt.Sprintf("Time's up on %s. Next up: %s.", name, run.Tasks[i].Name)
		} else {
			in.Text = fmt.Sprintf("Time's up on %s. That was the last task.", name)
		}
	case TriggerTimeUp:
		in.Text = fmt.Sprintf("Time's up for %s.", name)
	case TriggerMilestone:
		in.Text = fmt.Sprintf("%s into %s.", SpokenDuration(int64(t.Minute)*minuteMs), name)
	case TriggerOvertime:
		in.Text = fmt.Sprintf("%s over on %s.", SpokenDuration(int64(t.Minute)*minuteMs), name)
	}
	return in
}

// StartedIntent announces the run's active task, if any.
func StartedIntent(run models.RoutineRun) (Intent, bool) {
	t := run.ActiveTask()
	if t == nil {
		return Intent{}, false
	}
	return Intent{
		Kind:   IntentTaskStarted,
		TaskID: t.ID,
		Title:  run.TemplateName,
		Text:   fmt.Sprintf("Starting %s, %s.", t.Name, SpokenDuration(t.PlannedTotalMs())),
	}, true
}

// CompleteIntent announces the end of a completed run.
func CompleteIntent(run models.RoutineRun) Intent {
	return Intent{
		Kind:  IntentRoutineComplete,
		Title: run.TemplateName,
		Text:  "Routine complete. Nice work.",
	}
}

// upNext returns the pending task that would follow the active one, or -1.
func upNext(run *models.RoutineRun) int {
	return nextPending(run)
}

// SpokenDuration renders a duration for speech, e.g. "1 minute" or "2 minutes 30 seconds".
func SpokenDuration(ms int64) string {
	if ms < 0 {
		ms = -ms
	}
	secs := ms / 1000
	m, s := secs/60, secs%60
	switch {
	case m == 0:
		return plural(s, "second")
	case s == 0:
		return plural(m, "minute")
	default:
		return plural(m, "minute") + " " + plural(s, "second")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
