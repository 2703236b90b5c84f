// Package tui provides the interactive terminal UI for Tempo.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/tempo/internal/engine"
	"github.com/fentz26/tempo/internal/models"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")
	cyanColor    = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	taskItemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	clockStyle    = lipgloss.NewStyle().Bold(true).Foreground(cyanColor)
	pausedStyle   = lipgloss.NewStyle().Bold(true).Foreground(warningColor)
	overtimeStyle = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	onlineStyle   = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	offlineStyle  = lipgloss.NewStyle().Foreground(errorColor)
)

const (
	modeRun       = "run"
	modeTemplates = "templates"
	modeAdd       = "add"

	extendStepMs = 60_000
	pollInterval = time.Second
)

// App is the main TUI application model.
type App struct {
	client       *Client
	snap         *Snapshot
	templates    []models.Template
	selectedIdx  int
	templateIdx  int
	input        textinput.Model
	bar          progress.Model
	width        int
	height       int
	mode         string
	message      string
	daemonOnline bool

	// now returns the local clock in epoch milliseconds.
	now func() int64
}

// New creates a new TUI application.
func New(apiAddr string) *App {
	ti := textinput.New()
	ti.Placeholder = "Task name and duration, e.g. Call mum 10m"
	ti.CharLimit = 128
	ti.Width = 60

	return &App{
		client: NewClient(apiAddr),
		input:  ti,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		mode:   modeRun,
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.fetchRun(),
		a.checkDaemon(),
		a.tickCmd(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.mode {
		case modeAdd:
			return a.updateAdd(msg)
		case modeTemplates:
			return a, a.updateTemplates(msg)
		default:
			return a, a.updateRun(msg)
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 8
		a.bar.Width = min(60, max(10, msg.Width-20))

	case tickMsg:
		return a, tea.Batch(a.fetchRun(), a.tickCmd())

	case runLoadedMsg:
		a.daemonOnline = true
		a.snap = msg.snap
		a.clampSelection()

	case templatesLoadedMsg:
		a.templates = msg.templates
		if a.templateIdx >= len(a.templates) {
			a.templateIdx = max(0, len(a.templates)-1)
		}

	case daemonStatusMsg:
		a.daemonOnline = msg.online

	case commandResultMsg:
		a.message = msg.message
		return a, a.fetchRun()

	case errMsg:
		a.message = "Error: " + msg.err.Error()
	}

	return a, nil
}

func (a *App) updateRun(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "r":
		return a.fetchRun()
	case "t":
		a.mode = modeTemplates
		return a.fetchTemplates()
	}

	if a.snap == nil {
		if msg.String() == "a" {
			a.openAdd()
		}
		return nil
	}

	run := a.snap.Run
	if run.Status.Terminal() {
		if msg.String() == "d" {
			return a.discard()
		}
		return nil
	}

	selected := a.selectedTask()
	switch msg.String() {
	case "up", "k":
		if a.selectedIdx > 0 {
			a.selectedIdx--
		}
	case "down", "j":
		if a.selectedIdx < len(queueRows(run))-1 {
			a.selectedIdx++
		}
	case " ":
		switch run.Status {
		case models.RunStatusNotStarted:
			return a.dispatch(engine.Action{Kind: engine.ActionStart})
		case models.RunStatusRunning:
			return a.dispatch(engine.Action{Kind: engine.ActionPause})
		case models.RunStatusPaused:
			return a.dispatch(engine.Action{Kind: engine.ActionResume})
		}
	case "n":
		return a.dispatch(engine.Action{Kind: engine.ActionAdvance})
	case "e":
		return a.dispatch(engine.Action{Kind: engine.ActionEnd})
	case "a":
		a.openAdd()
	}

	if selected == nil {
		return nil
	}
	switch msg.String() {
	case "s":
		return a.dispatch(engine.Action{Kind: engine.ActionSkip, TaskID: selected.ID})
	case "+", "=":
		return a.dispatch(engine.Action{Kind: engine.ActionExtend, TaskID: selected.ID, DeltaMs: extendStepMs})
	case "-":
		return a.dispatch(engine.Action{Kind: engine.ActionExtend, TaskID: selected.ID, DeltaMs: -extendStepMs})
	case "A":
		return a.dispatch(engine.Action{Kind: engine.ActionToggleAutoAdvance, TaskID: selected.ID})
	case "K":
		return a.move(selected.ID, engine.PositionUp)
	case "J":
		return a.move(selected.ID, engine.PositionDown)
	case "N":
		return a.move(selected.ID, engine.PositionNext)
	case "E":
		return a.move(selected.ID, engine.PositionEnd)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i := int(msg.String()[0] - '1')
		if i < len(selected.Subtasks) {
			return a.dispatch(engine.Action{Kind: engine.ActionToggleSubtask, TaskID: selected.ID, SubtaskID: selected.Subtasks[i].ID})
		}
	}
	return nil
}

// move keeps the selection on the moved task once the run reloads.
func (a *App) move(id string, pos engine.Position) tea.Cmd {
	switch pos {
	case engine.PositionUp:
		if a.selectedIdx > 0 {
			a.selectedIdx--
		}
	case engine.PositionDown:
		a.selectedIdx++
	}
	return a.dispatch(engine.Action{Kind: engine.ActionMove, TaskID: id, Position: pos})
}

func (a *App) updateTemplates(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q":
		a.mode = modeRun
		return nil
	case "up", "k":
		if a.templateIdx > 0 {
			a.templateIdx--
		}
	case "down", "j":
		if a.templateIdx < len(a.templates)-1 {
			a.templateIdx++
		}
	case "enter", "l", "s", "f":
		if len(a.templates) == 0 {
			return nil
		}
		pace := models.PaceSteady
		switch msg.String() {
		case "l":
			pace = models.PaceLow
		case "f":
			pace = models.PaceFlow
		}
		tpl := a.templates[a.templateIdx]
		a.mode = modeRun
		return a.begin(tpl, pace)
	}
	return nil
}

func (a *App) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.closeAdd()
		return a, nil
	case "enter":
		value := a.input.Value()
		a.closeAdd()
		return a, a.quickAdd(value)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) openAdd() {
	a.mode = modeAdd
	a.input.SetValue("")
	a.input.Focus()
}

func (a *App) closeAdd() {
	a.mode = modeRun
	a.input.Blur()
}

func (a *App) selectedTask() *models.RunTask {
	if a.snap == nil {
		return nil
	}
	rows := queueRows(a.snap.Run)
	if a.selectedIdx < 0 || a.selectedIdx >= len(rows) {
		return nil
	}
	t := rows[a.selectedIdx]
	return &t
}

func (a *App) clampSelection() {
	n := 0
	if a.snap != nil {
		n = len(queueRows(a.snap.Run))
	}
	if a.selectedIdx >= n {
		a.selectedIdx = max(0, n-1)
	}
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	// Header with daemon status
	daemonStatus := onlineStyle.Render("● DAEMON")
	if !a.daemonOnline {
		daemonStatus = offlineStyle.Render("○ DAEMON")
	}
	header := titleStyle.Render("⏱ TEMPO") + "  " + daemonStatus
	if a.snap != nil {
		header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(a.snap.Run.TemplateName)
		header += "  " + lipgloss.NewStyle().Foreground(mutedColor).Render(fmt.Sprintf("[%s pace]", a.snap.Run.Pace))
	}
	b.WriteString(header + "\n\n")

	switch a.mode {
	case modeTemplates:
		b.WriteString(a.renderTemplates())
	default:
		b.WriteString(a.renderRun())
	}

	if a.mode == modeAdd {
		b.WriteString("\n" + inputBoxStyle.Render(a.input.View()) + "\n")
	}

	if a.message != "" {
		b.WriteString("\n" + statusBarStyle.Render(a.message) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(a.helpLine()))
	return b.String()
}

func (a *App) renderRun() string {
	if a.snap == nil {
		return "\n  No run in progress. Press t to pick a routine or a to start a quick timer.\n"
	}

	var b strings.Builder
	run := a.snap.Run
	now := a.now()

	if task := run.ActiveTask(); task != nil {
		// Remaining time is computed locally so the clock moves between polls.
		r := engine.ReadActive(&run, now)
		b.WriteString(panelStyle.Render(a.renderActive(run, task, r)) + "\n\n")
	} else {
		b.WriteString("  " + runStatusLabel(run.Status) + "\n\n")
	}

	height := a.height - 16
	b.WriteString(a.renderQueue(queueRows(run), height) + "\n")

	s := engine.Progress(run, now)
	b.WriteString("\n  " + lipgloss.NewStyle().Foreground(mutedColor).Render(
		fmt.Sprintf("%d done · %d skipped · %d left · %s planned", s.Completed, s.Skipped, s.Remaining, formatMinutes(s.RemainingPlannedMs))) + "\n")
	return b.String()
}

func (a *App) renderActive(run models.RoutineRun, task *models.RunTask, r *engine.Reading) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(task.Name) + "\n")

	if r == nil {
		return b.String()
	}
	clock := clockStyle
	switch {
	case run.Status == models.RunStatusPaused:
		clock = pausedStyle
	case r.IsOvertime:
		clock = overtimeStyle
	}
	label := formatClock(r.RemainingMs, r.IsOvertime)
	if run.Status == models.RunStatusPaused {
		label += "  paused"
	}
	b.WriteString(clock.Render(label) + "\n")

	percent := 1.0
	if r.TotalPlannedMs > 0 {
		percent = float64(r.ElapsedMs) / float64(r.TotalPlannedMs)
	}
	b.WriteString(a.bar.ViewAs(clamp01(percent)) + "\n")

	for i, st := range task.Subtasks {
		box := "[ ]"
		if st.Checked {
			box = "[x]"
		}
		b.WriteString(fmt.Sprintf("%d %s %s\n", i+1, box, st.Text))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) renderTemplates() string {
	if len(a.templates) == 0 {
		return "\n  No routines yet. Import one with: tempo template import <file.yaml>\n"
	}

	var lines []string
	for i, tpl := range a.templates {
		var total int64
		for _, t := range tpl.Tasks {
			total += t.DurationMs
		}
		text := fmt.Sprintf("%s  (%d tasks, %s)", tpl.Name, len(tpl.Tasks), formatMinutes(total))
		if i == a.templateIdx {
			lines = append(lines, selectedStyle.Render("▶ "+text))
		} else {
			lines = append(lines, taskItemStyle.Render("  "+text))
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func (a *App) helpLine() string {
	switch a.mode {
	case modeTemplates:
		return "↑/↓ select • enter steady • l low • f flow • esc back"
	case modeAdd:
		return "enter add • esc cancel"
	}
	if a.snap == nil {
		return "t routines • a quick timer • q quit"
	}
	if a.snap.Run.Status.Terminal() {
		return "d dismiss • t routines • q quit"
	}
	return "space start/pause • n next • s skip • +/- 1m • K/J/N/E move • A auto • 1-9 check • a add • e end • q quit"
}

func runStatusLabel(s models.RunStatus) string {
	switch s {
	case models.RunStatusNotStarted:
		return "Ready. Press space to start."
	case models.RunStatusCompleted:
		return lipgloss.NewStyle().Foreground(successColor).Bold(true).Render("Routine complete.")
	case models.RunStatusAbandoned:
		return lipgloss.NewStyle().Foreground(mutedColor).Render("Routine ended early.")
	}
	return string(s)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// --- Commands ---

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}

type runLoadedMsg struct {
	snap *Snapshot
}

type templatesLoadedMsg struct {
	templates []models.Template
}

type daemonStatusMsg struct {
	online bool
}

type tickMsg time.Time

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) fetchRun() tea.Cmd {
	return func() tea.Msg {
		snap, err := a.client.Current()
		if err != nil {
			return daemonStatusMsg{online: false}
		}
		return runLoadedMsg{snap}
	}
}

func (a *App) fetchTemplates() tea.Cmd {
	return func() tea.Msg {
		templates, err := a.client.ListTemplates()
		if err != nil {
			return errMsg{err}
		}
		return templatesLoadedMsg{templates}
	}
}

func (a *App) checkDaemon() tea.Cmd {
	return func() tea.Msg {
		return daemonStatusMsg{online: a.client.CheckHealth()}
	}
}

func (a *App) dispatch(action engine.Action) tea.Cmd {
	return func() tea.Msg {
		applied, err := a.client.Dispatch(action)
		if err != nil {
			return errMsg{err}
		}
		if !applied {
			return commandResultMsg{fmt.Sprintf("%s: nothing to do", action.Kind)}
		}
		return commandResultMsg{""}
	}
}

func (a *App) begin(tpl models.Template, pace models.Pace) tea.Cmd {
	return func() tea.Msg {
		if err := a.client.Begin(tpl.ID, pace); err != nil {
			return errMsg{err}
		}
		return commandResultMsg{fmt.Sprintf("✓ Started %s at %s pace", tpl.Name, pace)}
	}
}

func (a *App) quickAdd(input string) tea.Cmd {
	name, durationMs, err := parseQuickAdd(input)
	if err != nil {
		return func() tea.Msg { return errMsg{err} }
	}
	if a.snap == nil || a.snap.Run.Status.Terminal() {
		return func() tea.Msg {
			if err := a.client.BeginAdHoc(name, durationMs); err != nil {
				return errMsg{err}
			}
			return commandResultMsg{fmt.Sprintf("✓ Timer started: %s", name)}
		}
	}
	return a.dispatch(engine.Action{Kind: engine.ActionAddQuickTask, Name: name, DurationMs: durationMs})
}

func (a *App) discard() tea.Cmd {
	return func() tea.Msg {
		if err := a.client.Discard(); err != nil {
			return errMsg{err}
		}
		return commandResultMsg{"Run dismissed"}
	}
}
