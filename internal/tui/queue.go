package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/tempo/internal/models"
)

var (
	statusPending   = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // Yellow
	statusActive    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")) // Cyan
	statusCompleted = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // Green
	statusSkipped   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // Grey
)

// defaultQuickAddMs is used when a quick-add entry has no duration.
const defaultQuickAddMs = 5 * 60_000

// queueRows returns the queued tasks (active first, then pending by order)
// followed by finished tasks in their historical order.
func queueRows(run models.RoutineRun) []models.RunTask {
	var queued, done []models.RunTask
	for _, t := range run.Tasks {
		if t.Status.Queued() {
			queued = append(queued, t)
		} else {
			done = append(done, t)
		}
	}
	sort.SliceStable(queued, func(i, j int) bool {
		if (queued[i].Status == models.TaskStatusActive) != (queued[j].Status == models.TaskStatusActive) {
			return queued[i].Status == models.TaskStatusActive
		}
		return queued[i].Order < queued[j].Order
	})
	sort.SliceStable(done, func(i, j int) bool { return done[i].Order < done[j].Order })
	return append(queued, done...)
}

func formatStatus(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusPending:
		return statusPending.Render("○ pending")
	case models.TaskStatusActive:
		return statusActive.Render("● active")
	case models.TaskStatusCompleted:
		return statusCompleted.Render("✓ done")
	case models.TaskStatusSkipped:
		return statusSkipped.Render("– skipped")
	default:
		return string(status)
	}
}

// formatClock renders milliseconds as m:ss, prefixed with + when overtime.
func formatClock(ms int64, overtime bool) string {
	if ms < 0 {
		ms = -ms
	}
	secs := ms / 1000
	s := fmt.Sprintf("%d:%02d", secs/60, secs%60)
	if overtime {
		return "+" + s
	}
	return s
}

// formatMinutes renders a planned duration for the queue, e.g. "5m" or "1m30s".
func formatMinutes(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d%time.Minute == 0 {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return d.Round(time.Second).String()
}

// parseQuickAdd splits "Call mum 10m" into a name and duration. A trailing
// bare number is minutes; without a duration the default applies.
func parseQuickAdd(input string) (string, int64, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return "", 0, fmt.Errorf("name required")
	}

	last := fields[len(fields)-1]
	if len(fields) > 1 {
		if n, err := strconv.Atoi(last); err == nil && n >= 0 {
			return strings.Join(fields[:len(fields)-1], " "), int64(n) * 60_000, nil
		}
		if d, err := time.ParseDuration(last); err == nil {
			if d < 0 {
				return "", 0, fmt.Errorf("duration must not be negative")
			}
			return strings.Join(fields[:len(fields)-1], " "), d.Milliseconds(), nil
		}
	}
	return strings.Join(fields, " "), defaultQuickAddMs, nil
}

func (a *App) renderQueue(rows []models.RunTask, height int) string {
	if len(rows) == 0 {
		return "\n  No tasks in this run.\n"
	}

	var lines []string
	for i, t := range rows {
		auto := ""
		if t.AutoAdvance {
			auto = " ↻"
		}
		planned := formatMinutes(t.PlannedTotalMs())
		if i == a.selectedIdx {
			lines = append(lines, selectedStyle.Render(fmt.Sprintf("▶ %-10s %s  %s%s", t.Status, t.Name, planned, auto)))
		} else {
			lines = append(lines, taskItemStyle.Render(fmt.Sprintf("  %s  %s  %s%s", formatStatus(t.Status), t.Name, planned, auto)))
		}
	}

	// Limit visible lines
	if height > 0 && len(lines) > height {
		start := a.selectedIdx - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}

	return strings.Join(lines, "\n")
}
