package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fentz26/tempo/internal/engine"
	"github.com/fentz26/tempo/internal/host"
	"github.com/fentz26/tempo/internal/models"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Control the live run",
}

var runStartCmd = &cobra.Command{
	Use:   "start [template-id]",
	Short: "Start a routine from a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunStart,
}

var runQuickCmd = &cobra.Command{
	Use:   "quick [name]",
	Short: "Start a single timer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRunQuick,
}

var runStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the live run",
	RunE:  runRunStatus,
}

var runDiscardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Forget the live run",
	RunE:  runRunDiscard,
}

var runJournalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show the actions applied to the live run",
	RunE:  runRunJournal,
}

var runExtendCmd = &cobra.Command{
	Use:   "extend [task]",
	Short: "Add (or with a negative value, give back) minutes on a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatchOnTask(args[0], func(id string) engine.Action {
			return engine.Action{Kind: engine.ActionExtend, TaskID: id, DeltaMs: minutesToMs(extendMinutes)}
		})
	},
}

var runMoveCmd = &cobra.Command{
	Use:   "move [task] [up|down|next|end|N]",
	Short: "Reorder a pending task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos := engine.Position(args[1])
		if !pos.Valid() {
			return fmt.Errorf("invalid position %q: want up, down, next, end or an index", args[1])
		}
		return dispatchOnTask(args[0], func(id string) engine.Action {
			return engine.Action{Kind: engine.ActionMove, TaskID: id, Position: pos}
		})
	},
}

var runAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Append a quick task to the live run",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(engine.Action{
			Kind:       engine.ActionAddQuickTask,
			Name:       strings.Join(args, " "),
			DurationMs: minutesToMs(addMinutes),
		})
	},
}

var runCheckCmd = &cobra.Command{
	Use:   "check [task] [subtask-id]",
	Short: "Toggle a subtask",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatchOnTask(args[0], func(id string) engine.Action {
			return engine.Action{Kind: engine.ActionToggleSubtask, TaskID: id, SubtaskID: args[1]}
		})
	},
}

var (
	runPace       string
	quickMinutes  float64
	addMinutes    float64
	extendMinutes float64
)

func init() {
	runCmd.AddCommand(runStartCmd, runQuickCmd, runStatusCmd, runDiscardCmd, runJournalCmd,
		runExtendCmd, runMoveCmd, runAddCmd, runCheckCmd)

	// Simple actions on the run as a whole.
	for _, c := range []struct {
		use, short string
		kind       engine.ActionKind
	}{
		{"pause", "Pause the running task", engine.ActionPause},
		{"resume", "Resume a paused run", engine.ActionResume},
		{"next", "Complete the active task and move on", engine.ActionAdvance},
		{"end", "End the run early", engine.ActionEnd},
	} {
		kind := c.kind
		runCmd.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return dispatch(engine.Action{Kind: kind})
			},
		})
	}

	// Actions on a single task.
	for _, c := range []struct {
		use, short string
		kind       engine.ActionKind
	}{
		{"skip [task]", "Skip a pending or the active task", engine.ActionSkip},
		{"auto [task]", "Toggle auto-advance on a task", engine.ActionToggleAutoAdvance},
	} {
		kind := c.kind
		runCmd.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return dispatchOnTask(args[0], func(id string) engine.Action {
					return engine.Action{Kind: kind, TaskID: id}
				})
			},
		})
	}

	runStartCmd.Flags().StringVar(&runPace, "pace", string(models.PaceSteady), "Pace: low, steady or flow")
	runQuickCmd.Flags().Float64Var(&quickMinutes, "minutes", 25, "Timer length in minutes")
	runAddCmd.Flags().Float64Var(&addMinutes, "minutes", 5, "Task length in minutes")
	runExtendCmd.Flags().Float64Var(&extendMinutes, "minutes", 1, "Minutes to add; negative gives time back")
}

func minutesToMs(m float64) int64 {
	return int64(m * float64(time.Minute/time.Millisecond))
}

func runRunStart(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/run", map[string]interface{}{
		"template_id": args[0],
		"pace":        runPace,
		"start":       true,
	})
	if err != nil {
		return err
	}
	return printSnapshot(resp)
}

func runRunQuick(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/run", map[string]interface{}{
		"name":        strings.Join(args, " "),
		"duration_ms": minutesToMs(quickMinutes),
		"start":       true,
	})
	if err != nil {
		return err
	}
	return printSnapshot(resp)
}

func runRunStatus(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/run")
	if isNotFound(err) {
		fmt.Println("No run in progress")
		return nil
	}
	if err != nil {
		return err
	}
	return printSnapshot(resp)
}

func runRunDiscard(cmd *cobra.Command, args []string) error {
	if _, err := apiDelete("/run"); err != nil {
		return err
	}
	fmt.Println("Run discarded")
	return nil
}

func runRunJournal(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/run/journal")
	if err != nil {
		return err
	}

	var entries []models.JournalEntry
	if err := json.Unmarshal(resp, &entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No journal entries")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTION\tOUTCOME\tINPUTS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", humanize.Time(e.Timestamp), e.Action, e.Outcome, truncateID(e.InputsHash))
	}
	w.Flush()
	return nil
}

// dispatch sends an action and prints the resulting run.
func dispatch(a engine.Action) error {
	resp, err := apiPost("/run/actions", a)
	if err != nil {
		return err
	}

	var out struct {
		Applied bool `json:"applied"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return err
	}
	if !out.Applied {
		fmt.Printf("%s: nothing to do\n", a.Kind)
	}
	return printSnapshot(resp)
}

// dispatchOnTask resolves a task reference against the live run, then dispatches.
func dispatchOnTask(ref string, build func(id string) engine.Action) error {
	resp, err := apiGet("/run")
	if err != nil {
		return err
	}
	var snap host.Snapshot
	if err := json.Unmarshal(resp, &snap); err != nil {
		return err
	}
	id, err := resolveTaskID(snap.Run, ref)
	if err != nil {
		return err
	}
	return dispatch(build(id))
}

// resolveTaskID accepts a task id, a unique id prefix, or the 1-based row
// number shown by "tempo run status".
func resolveTaskID(run models.RoutineRun, ref string) (string, error) {
	if run.TaskIndex(ref) >= 0 {
		return ref, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		rows := statusRows(run)
		if n < 1 || n > len(rows) {
			return "", fmt.Errorf("no task at row %d", n)
		}
		return rows[n-1].ID, nil
	}

	var matches []string
	for _, t := range run.Tasks {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no task matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q matches %d tasks", ref, len(matches))
	}
}

// statusRows orders tasks as the status table shows them: active, pending by
// order, then finished tasks.
func statusRows(run models.RoutineRun) []models.RunTask {
	rows := make([]models.RunTask, len(run.Tasks))
	copy(rows, run.Tasks)
	rank := func(t models.RunTask) int {
		switch t.Status {
		case models.TaskStatusActive:
			return 0
		case models.TaskStatusPending:
			return 1
		}
		return 2
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rank(rows[i]) != rank(rows[j]) {
			return rank(rows[i]) < rank(rows[j])
		}
		return rows[i].Order < rows[j].Order
	})
	return rows
}

func printSnapshot(data []byte) error {
	var snap host.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	run := snap.Run

	fmt.Printf("%s  [%s, %s pace]\n", run.TemplateName, run.Status, run.Pace)
	if run.StartedAt != nil {
		fmt.Printf("Started %s\n", humanize.Time(time.UnixMilli(*run.StartedAt)))
	}
	if active := run.ActiveTask(); active != nil && snap.Reading != nil {
		label := formatRemaining(snap.Reading)
		fmt.Printf("Now: %s, %s\n", active.Name, label)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tTASK\tSTATUS\tPLANNED\tAUTO\tSUBTASKS")
	for i, t := range statusRows(run) {
		auto := ""
		if t.AutoAdvance {
			auto = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, truncateID(t.ID), truncate(t.Name, 40), t.Status,
			time.Duration(t.PlannedTotalMs())*time.Millisecond, auto, subtaskSummary(t.Subtasks))
	}
	w.Flush()

	p := snap.Progress
	fmt.Printf("\n%d of %d done, %d skipped, %s left\n",
		p.Completed, p.Total, p.Skipped, time.Duration(p.RemainingPlannedMs)*time.Millisecond)
	return nil
}

func formatRemaining(r *engine.Reading) string {
	if r.IsOvertime {
		return fmt.Sprintf("%s over", (time.Duration(r.OvertimeMs) * time.Millisecond).Round(time.Second))
	}
	return fmt.Sprintf("%s left", (time.Duration(r.RemainingMs) * time.Millisecond).Round(time.Second))
}

func subtaskSummary(subtasks []models.Subtask) string {
	if len(subtasks) == 0 {
		return ""
	}
	checked := 0
	for _, st := range subtasks {
		if st.Checked {
			checked++
		}
	}
	return fmt.Sprintf("%d/%d", checked, len(subtasks))
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
