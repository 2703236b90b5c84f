package engine

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/fentz26/tempo/internal/models"
)

func TestStart(t *testing.T) {
	run := newTestRun(5*minute, 10*minute)
	run = Start(run, 1000)

	if run.Status != models.RunStatusRunning {
		t.Errorf("Status = %s, want running", run.Status)
	}
	if run.ActiveTaskID == nil || *run.ActiveTaskID != "t1" {
		t.Fatalf("ActiveTaskID = %v, want t1", run.ActiveTaskID)
	}
	a := taskByID(t, run, "t1")
	if *a.StartedAt != 1000 || *a.PlannedEndAt != 1000+5*minute {
		t.Errorf("timestamps = %d..%d", *a.StartedAt, *a.PlannedEndAt)
	}
	if run.StartedAt == nil || *run.StartedAt != 1000 {
		t.Error("run StartedAt not set")
	}
	mustValid(t, run)
}

func TestStart_Noops(t *testing.T) {
	empty := models.RoutineRun{ID: "r", Status: models.RunStatusNotStarted}
	if got := Start(empty, 0); !reflect.DeepEqual(got, empty) {
		t.Error("Start on run without pending tasks should be a no-op")
	}

	running := Start(newTestRun(minute), 0)
	if got := Start(running, 5000); !reflect.DeepEqual(got, running) {
		t.Error("Start on running run should be a no-op")
	}
}

func TestPauseResume_PreservesRemaining(t *testing.T) {
	run := Start(newTestRun(5*minute), 0)

	pausedAt := int64(100_000)
	run = Pause(run, pausedAt)
	if run.Status != models.RunStatusPaused || *run.PausedAt != pausedAt {
		t.Fatalf("pause failed: %+v", run)
	}
	before := ReadActive(&run, pausedAt).RemainingMs

	// Paused task timestamps are not touched.
	a := taskByID(t, run, "t1")
	if *a.StartedAt != 0 || *a.PlannedEndAt != 5*minute {
		t.Errorf("pause mutated task timestamps: %d..%d", *a.StartedAt, *a.PlannedEndAt)
	}

	for _, gap := range []int64{0, 1, 37_123, 3_600_000} {
		resumed := Resume(run, pausedAt+gap)
		if resumed.Status != models.RunStatusRunning || resumed.PausedAt != nil {
			t.Fatalf("resume failed: %+v", resumed)
		}
		r := ReadActive(&resumed, pausedAt+gap)
		if r.RemainingMs != before {
			t.Errorf("gap=%d: remaining = %d, want %d", gap, r.RemainingMs, before)
		}
		mustValid(t, resumed)
	}
}

func TestPauseResume_Noops(t *testing.T) {
	notStarted := newTestRun(minute)
	if got := Pause(notStarted, 10); !reflect.DeepEqual(got, notStarted) {
		t.Error("Pause on not-started run should be a no-op")
	}
	running := Start(notStarted, 0)
	if got := Resume(running, 10); !reflect.DeepEqual(got, running) {
		t.Error("Resume on running run should be a no-op")
	}
}

func TestExtendTask_RecomputesPlannedEnd(t *testing.T) {
	run := Start(newTestRun(300_000), 1000)
	if got := *taskByID(t, run, "t1").PlannedEndAt; got != 301_000 {
		t.Fatalf("PlannedEndAt = %d, want 301000", got)
	}

	run = ExtendTask(run, "t1", 60_000)

	a := taskByID(t, run, "t1")
	if *a.PlannedEndAt != 361_000 {
		t.Errorf("PlannedEndAt = %d, want 361000", *a.PlannedEndAt)
	}
	if a.ExtensionMs != 60_000 {
		t.Errorf("ExtensionMs = %d, want 60000", a.ExtensionMs)
	}
}

func TestExtendTask_NegativeClamped(t *testing.T) {
	run := Start(newTestRun(2*minute, minute), 0)

	run = ExtendTask(run, "t1", -minute)
	if got := *taskByID(t, run, "t1").PlannedEndAt; got != minute {
		t.Errorf("PlannedEndAt = %d, want %d", got, minute)
	}

	run = ExtendTask(run, "t1", -10*minute)
	a := taskByID(t, run, "t1")
	if a.ExtensionMs != -2*minute {
		t.Errorf("ExtensionMs = %d, want %d", a.ExtensionMs, -2*minute)
	}
	if *a.PlannedEndAt != *a.StartedAt {
		t.Errorf("PlannedEndAt = %d, want startedAt", *a.PlannedEndAt)
	}

	// Further negative deltas change nothing.
	if got := ExtendTask(run, "t1", -minute); !reflect.DeepEqual(got, run) {
		t.Error("extend below zero total should be a no-op")
	}
}

func TestExtendTask_PendingAndUnknown(t *testing.T) {
	run := Start(newTestRun(minute, minute), 0)

	run = ExtendTask(run, "t2", minute)
	b := taskByID(t, run, "t2")
	if b.ExtensionMs != minute || b.PlannedEndAt != nil {
		t.Errorf("pending extend = %+v", b)
	}

	run = AdvanceToNextTask(run, 5*minute)
	b = taskByID(t, run, "t2")
	if *b.PlannedEndAt != 5*minute+2*minute {
		t.Errorf("extension not honoured on activation: %d", *b.PlannedEndAt)
	}

	if got := ExtendTask(run, "nope", minute); !reflect.DeepEqual(got, run) {
		t.Error("extend of unknown task should be a no-op")
	}
}

func TestExtendTask_WhilePaused(t *testing.T) {
	run := Start(newTestRun(5*minute), 0)
	run = Pause(run, minute)
	run = ExtendTask(run, "t1", minute)

	if got := ReadActive(&run, 30*minute).RemainingMs; got != 5*minute {
		t.Errorf("paused remaining = %d, want %d", got, 5*minute)
	}
	run = Resume(run, 3*minute)
	if got := ReadActive(&run, 3*minute).RemainingMs; got != 5*minute {
		t.Errorf("remaining after resume = %d, want %d", got, 5*minute)
	}
}

func TestAdvance_QueueExhaustion(t *testing.T) {
	for n := 1; n <= 6; n++ {
		durations := make([]int64, n)
		for i := range durations {
			durations[i] = minute
		}
		run := Start(newTestRun(durations...), 0)
		for i := 0; i < n; i++ {
			if run.Status.Terminal() {
				t.Fatalf("n=%d: run terminal after %d advances", n, i)
			}
			run = AdvanceToNextTask(run, int64(i+1)*minute)
			mustValid(t, run)
		}
		if run.Status != models.RunStatusCompleted {
			t.Errorf("n=%d: Status = %s, want completed", n, run.Status)
		}
		if run.ActiveTaskID != nil {
			t.Errorf("n=%d: ActiveTaskID = %v, want nil", n, *run.ActiveTaskID)
		}
		if run.EndedAt == nil || *run.EndedAt != int64(n)*minute {
			t.Errorf("n=%d: EndedAt not set", n)
		}
	}
}

func TestAdvance_ActivatesNextInOrder(t *testing.T) {
	run := Start(newTestRun(minute, 2*minute, 3*minute), 0)
	run = MoveTask(run, "t3", PositionNext)
	run = AdvanceToNextTask(run, 90_000)

	if *run.ActiveTaskID != "t3" {
		t.Fatalf("ActiveTaskID = %s, want t3", *run.ActiveTaskID)
	}
	c := taskByID(t, run, "t3")
	if *c.StartedAt != 90_000 || *c.PlannedEndAt != 90_000+3*minute {
		t.Errorf("fresh timestamps = %d..%d", *c.StartedAt, *c.PlannedEndAt)
	}
	if taskByID(t, run, "t1").Status != models.TaskStatusCompleted {
		t.Error("previous task not completed")
	}
	mustValid(t, run)
}

func TestAdvance_WhilePausedStartsAtPausedAt(t *testing.T) {
	run := Start(newTestRun(minute, 4*minute), 0)
	run = Pause(run, 30_000)
	run = AdvanceToNextTask(run, 45_000)

	if run.Status != models.RunStatusPaused {
		t.Fatalf("Status = %s, want paused", run.Status)
	}
	if got := ReadActive(&run, 50_000).RemainingMs; got != 4*minute {
		t.Errorf("remaining while paused = %d, want %d", got, 4*minute)
	}
	run = Resume(run, 10*minute)
	if got := ReadActive(&run, 10*minute).RemainingMs; got != 4*minute {
		t.Errorf("remaining after resume = %d, want %d", got, 4*minute)
	}
}

func TestSkipTask(t *testing.T) {
	run := Start(newTestRun(minute, minute, minute), 0)

	run = SkipTask(run, "t2", 1000)
	if taskByID(t, run, "t2").Status != models.TaskStatusSkipped {
		t.Error("pending task not skipped")
	}
	if *run.ActiveTaskID != "t1" {
		t.Error("skipping a pending task changed the active task")
	}
	if got := queueIDs(run); !reflect.DeepEqual(got, []string{"t1", "t3"}) {
		t.Errorf("queue = %v", got)
	}
	mustValid(t, run)

	run = SkipTask(run, "t1", 2000)
	if *run.ActiveTaskID != "t3" {
		t.Errorf("ActiveTaskID = %s, want t3", *run.ActiveTaskID)
	}
	mustValid(t, run)

	run = SkipTask(run, "t3", 3000)
	if run.Status != models.RunStatusCompleted || run.ActiveTaskID != nil {
		t.Errorf("skip of last task should complete run, got %s", run.Status)
	}

	// Skips count toward exhaustion.
	if got := SkipTask(run, "t3", 4000); !reflect.DeepEqual(got, run) {
		t.Error("skip on completed run should be a no-op")
	}
}

func TestSkipTask_CompletedIsNoop(t *testing.T) {
	run := Start(newTestRun(minute, minute), 0)
	run = AdvanceToNextTask(run, minute)
	if got := SkipTask(run, "t1", 2*minute); !reflect.DeepEqual(got, run) {
		t.Error("skipping a completed task should be a no-op")
	}
}

func TestEnd(t *testing.T) {
	run := Start(newTestRun(minute, minute), 0)
	run = Pause(run, 1000)
	run = End(run, 5000)

	if run.Status != models.RunStatusAbandoned {
		t.Errorf("Status = %s, want abandoned", run.Status)
	}
	if run.ActiveTaskID != nil || run.PausedAt != nil {
		t.Error("end should clear active task and pause")
	}
	if *run.EndedAt != 5000 {
		t.Errorf("EndedAt = %d, want 5000", *run.EndedAt)
	}
	a := taskByID(t, run, "t1")
	if a.Status == models.TaskStatusCompleted {
		t.Error("end must not complete the in-progress task")
	}
	mustValid(t, run)
}

func TestTerminalRunsIgnoreTransitions(t *testing.T) {
	done := End(Start(newTestRun(minute, minute), 0), 1000)
	actions := []Action{
		{Kind: ActionStart},
		{Kind: ActionPause},
		{Kind: ActionResume},
		{Kind: ActionEnd},
		{Kind: ActionAdvance},
		{Kind: ActionSkip, TaskID: "t2"},
		{Kind: ActionExtend, TaskID: "t2", DeltaMs: minute},
		{Kind: ActionMove, TaskID: "t2", Position: PositionUp},
		{Kind: ActionAddQuickTask, TaskID: "q", Name: "Quick", DurationMs: minute},
		{Kind: ActionToggleAutoAdvance, TaskID: "t1"},
		{Kind: ActionMarkTimeUp, TaskID: "t1"},
	}
	for _, a := range actions {
		got, applied := Apply(done, a, 2000)
		if applied || !reflect.DeepEqual(got, done) {
			t.Errorf("%s applied on abandoned run", a.Kind)
		}
	}
}

func TestMoveTask(t *testing.T) {
	tests := []struct {
		name string
		id   string
		pos  Position
		want []string
	}{
		{"up", "t4", PositionUp, []string{"t1", "t2", "t4", "t3"}},
		{"down", "t2", PositionDown, []string{"t1", "t3", "t2", "t4"}},
		{"next", "t4", PositionNext, []string{"t1", "t4", "t2", "t3"}},
		{"end", "t2", PositionEnd, []string{"t1", "t3", "t4", "t2"}},
		{"index", "t4", IndexPosition(1), []string{"t1", "t2", "t4", "t3"}},
		{"index past tail", "t2", IndexPosition(99), []string{"t1", "t3", "t4", "t2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := Start(newTestRun(minute, minute, minute, minute), 0)
			run = MoveTask(run, tt.id, tt.pos)
			if got := queueIDs(run); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("queue = %v, want %v", got, tt.want)
			}
			mustValid(t, run)
		})
	}
}

func TestMoveTask_NotStartedRenumbersFromZero(t *testing.T) {
	run := newTestRun(minute, minute, minute)
	run = MoveTask(run, "t3", PositionNext)

	if got := queueIDs(run); !reflect.DeepEqual(got, []string{"t3", "t1", "t2"}) {
		t.Errorf("queue = %v", got)
	}
	if taskByID(t, run, "t3").Order != 0 {
		t.Error("moved task should take order 0 when nothing is active")
	}
	run = Start(run, 0)
	if *run.ActiveTaskID != "t3" {
		t.Errorf("Start picked %s, want t3", *run.ActiveTaskID)
	}
}

func TestMoveTask_Noops(t *testing.T) {
	run := Start(newTestRun(minute, minute, minute), 0)
	tests := []struct {
		name string
		id   string
		pos  Position
	}{
		{"active task", "t1", PositionEnd},
		{"first pending up", "t2", PositionUp},
		{"last pending down", "t3", PositionDown},
		{"already next", "t2", PositionNext},
		{"unknown task", "zz", PositionEnd},
		{"bad position", "t3", Position("sideways")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MoveTask(run, tt.id, tt.pos); !reflect.DeepEqual(got, run) {
				t.Errorf("MoveTask(%s, %s) changed the run", tt.id, tt.pos)
			}
		})
	}
}

func TestAddQuickTask(t *testing.T) {
	run := Start(newTestRun(minute, minute), 0)
	run = AddQuickTask(run, "q1", "Water plants", 2*minute)

	q := taskByID(t, run, "q1")
	if q.Status != models.TaskStatusPending || q.Order != 2 {
		t.Errorf("quick task = %+v", q)
	}
	mustValid(t, run)

	if got := AddQuickTask(run, "q1", "Again", minute); !reflect.DeepEqual(got, run) {
		t.Error("duplicate id should be a no-op")
	}
	if got := AddQuickTask(run, "q2", "  ", minute); !reflect.DeepEqual(got, run) {
		t.Error("blank name should be a no-op")
	}

	// Skipped tasks do not count toward the next order.
	run = SkipTask(run, "t2", 1000)
	run = AddQuickTask(run, "q2", "Feed cat", minute)
	if got := queueIDs(run); !reflect.DeepEqual(got, []string{"t1", "q1", "q2"}) {
		t.Errorf("queue = %v", got)
	}
	mustValid(t, run)
}

func TestToggleSubtask(t *testing.T) {
	tpl := models.Template{Tasks: []models.TemplateTask{{
		ID: "a", Name: "Tidy", DurationMs: minute,
		Subtasks: []models.TemplateSubtask{{ID: "s1", Text: "Desk"}},
	}}}
	run := Start(NewRun(tpl, models.PaceFlow, "r"), 0)

	run = ToggleSubtask(run, "a", "s1")
	if !taskByID(t, run, "a").Subtasks[0].Checked {
		t.Error("subtask not checked")
	}
	if run.Status != models.RunStatusRunning {
		t.Error("toggling a subtask changed run status")
	}
	run = ToggleSubtask(run, "a", "s1")
	if taskByID(t, run, "a").Subtasks[0].Checked {
		t.Error("subtask not unchecked")
	}
	if got := ToggleSubtask(run, "a", "missing"); !reflect.DeepEqual(got, run) {
		t.Error("unknown subtask should be a no-op")
	}
	if tpl.Tasks[0].Subtasks[0].Text != "Desk" {
		t.Error("template changed")
	}
}

func TestToggleAutoAdvance(t *testing.T) {
	run := newTestRun(minute)
	run = ToggleAutoAdvance(run, "t1")
	if !taskByID(t, run, "t1").AutoAdvance {
		t.Error("auto-advance not enabled")
	}
	run = ToggleAutoAdvance(run, "t1")
	if taskByID(t, run, "t1").AutoAdvance {
		t.Error("auto-advance not disabled")
	}
}

func TestTransitionsDoNotMutateInput(t *testing.T) {
	run := Start(newTestRun(minute, 2*minute, 3*minute), 0)
	snapshot := run.Clone()

	_ = Pause(run, 10)
	_ = ExtendTask(run, "t1", minute)
	_ = MoveTask(run, "t3", PositionNext)
	_ = AdvanceToNextTask(run, 20)
	_ = SkipTask(run, "t1", 30)
	_ = AddQuickTask(run, "q", "Quick", minute)
	_ = ToggleAutoAdvance(run, "t2")
	_ = MarkMilestone(run, "t1", 5)
	_ = End(run, 40)

	if !reflect.DeepEqual(run, snapshot) {
		t.Error("a transition mutated its input run")
	}
}

func TestApply_Unknown(t *testing.T) {
	run := newTestRun(minute)
	got, applied := Apply(run, Action{Kind: "teleport"}, 0)
	if applied || !reflect.DeepEqual(got, run) {
		t.Error("unknown action should be a no-op")
	}
	if ActionKind("teleport").Known() {
		t.Error("teleport should not be known")
	}
	if !ActionMove.Known() {
		t.Error("move should be known")
	}
}

// Random action sequences must never break the run invariants.
func TestInvariantsHoldForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	kinds := []ActionKind{
		ActionStart, ActionPause, ActionResume, ActionEnd, ActionAdvance, ActionSkip,
		ActionExtend, ActionMove, ActionAddQuickTask, ActionToggleAutoAdvance,
	}
	positions := []Position{PositionUp, PositionDown, PositionNext, PositionEnd, IndexPosition(0), IndexPosition(2)}

	for seq := 0; seq < 300; seq++ {
		run := newTestRun(minute, 2*minute, 3*minute, 4*minute)
		now := int64(0)
		for step := 0; step < 40; step++ {
			now += rng.Int63n(90_000)
			var id string
			if len(run.Tasks) > 0 {
				id = run.Tasks[rng.Intn(len(run.Tasks))].ID
			}
			a := Action{
				Kind:       kinds[rng.Intn(len(kinds))],
				TaskID:     id,
				DeltaMs:    rng.Int63n(4*minute) - 2*minute,
				Position:   positions[rng.Intn(len(positions))],
				Name:       "Quick",
				DurationMs: minute,
			}
			if a.Kind == ActionAddQuickTask {
				a.TaskID = fmt.Sprintf("q-%d-%d", seq, step)
			}
			run, _ = Apply(run, a, now)
			if err := Validate(run); err != nil {
				t.Fatalf("seq %d step %d after %s: %v", seq, step, a.Kind, err)
			}
		}
	}
}
