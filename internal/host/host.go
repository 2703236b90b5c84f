// Package host owns the single live routine run: it serializes transitions,
// ticks the timer, relays announcements and persists every change.
package host

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fentz26/tempo/internal/audit"
	"github.com/fentz26/tempo/internal/engine"
	"github.com/fentz26/tempo/internal/logger"
	"github.com/fentz26/tempo/internal/models"
	"github.com/fentz26/tempo/internal/notify"
	"github.com/fentz26/tempo/internal/store"
	"github.com/google/uuid"
)

// Announcer consumes spoken announcement text.
type Announcer interface {
	Enqueue(text string)
	Flush() int
}

// Snapshot is the live run together with its timer reading at capture time.
type Snapshot struct {
	Run      models.RoutineRun `json:"run"`
	Reading  *engine.Reading   `json:"reading"`
	Progress engine.Summary    `json:"progress"`
	Now      int64             `json:"now"`
}

// Host manages the lifecycle of the live run.
type Host struct {
	store     *store.Store
	journal   *audit.JournalWriter
	announcer Announcer
	notifier  notify.Notifier
	config    *Config
	log       *logger.Logger

	// now returns the current time in epoch milliseconds.
	now func() int64

	// Run state
	mu   sync.Mutex
	run  *models.RoutineRun
	tick engine.TickState

	subsMu sync.Mutex
	subs   map[chan Event]struct{}

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new host. A nil announcer or notifier disables that output.
func New(s *store.Store, j *audit.JournalWriter, a Announcer, n notify.Notifier, cfg *Config, log *logger.Logger) *Host {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if n == nil {
		n = notify.NoopNotifier{}
	}
	if log == nil {
		log = logger.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := *cfg

	return &Host{
		store:     s,
		journal:   j,
		announcer: a,
		notifier:  n,
		config:    &c,
		log:       log,
		now:       func() int64 { return time.Now().UnixMilli() },
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetClock replaces the wall clock. It must be called before Start.
func (h *Host) SetClock(now func() int64) {
	h.now = now
}

// SetIntervals changes the milestone and overtime intervals. Markers already
// set are kept; the new intervals apply from the next tick.
func (h *Host) SetIntervals(milestoneMin, overtimeMin int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.config.MilestoneIntervalMin = milestoneMin
	h.config.OvertimeIntervalMin = overtimeMin
}

// Start restores the last stored run and begins the tick loop.
func (h *Host) Start() error {
	if err := h.restore(); err != nil {
		return err
	}
	h.wg.Add(1)
	go h.tickLoop()
	h.log.Info("host started", "tick_interval", h.config.TickInterval.String())
	return nil
}

// Stop gracefully stops the tick loop.
func (h *Host) Stop() {
	h.cancel()
	h.wg.Wait()
	h.closeSubscribers()
	h.log.Info("host stopped")
}

func (h *Host) restore() error {
	run, err := h.store.LatestRun()
	if err != nil {
		return fmt.Errorf("restore run: %w", err)
	}
	if run == nil {
		return nil
	}
	if err := engine.Validate(*run); err != nil {
		h.log.Warn("restored run is inconsistent", "run_id", run.ID, "error", err)
	}

	h.mu.Lock()
	h.run = run
	h.tick = engine.TickState{}
	h.mu.Unlock()

	h.log.Info("restored run", "run_id", run.ID, "status", string(run.Status))
	return nil
}

// tickLoop re-reads the timer until the host is stopped.
func (h *Host) tickLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.Tick()
		}
	}
}

// Begin materializes a run from a stored template. The run is persisted in
// notStarted status; an empty pace means steady.
func (h *Host) Begin(templateID string, pace models.Pace) (*Snapshot, error) {
	if pace == "" {
		pace = models.PaceSteady
	}
	if !pace.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPace, pace)
	}

	tpl, err := h.store.GetTemplate(templateID)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrTemplateNotFound
	}

	run := engine.NewRun(*tpl, pace, uuid.New().String())
	if len(run.Tasks) == 0 {
		return nil, fmt.Errorf("%w: no tasks at %s pace", ErrInvalidTemplate, pace)
	}
	return h.begin(run)
}

// BeginAdHoc creates a single-task run for a one-off timer.
func (h *Host) BeginAdHoc(name string, durationMs int64) (*Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" || durationMs < 0 {
		return nil, ErrInvalidTask
	}
	run := engine.NewAdHocRun(uuid.New().String(), uuid.New().String(), name, durationMs)
	return h.begin(run)
}

func (h *Host) begin(run models.RoutineRun) (*Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.run != nil && !h.run.Status.Terminal() {
		return nil, ErrRunInProgress
	}
	if h.run != nil {
		if err := h.store.DeleteRun(h.run.ID); err != nil {
			return nil, fmt.Errorf("replace finished run: %w", err)
		}
	}

	if err := h.store.SaveRun(run); err != nil {
		return nil, err
	}
	h.run = &run
	h.tick = engine.TickState{}
	h.record(run.ID, "create", map[string]interface{}{
		"template_id": run.TemplateID,
		"pace":        run.Pace,
	}, true, run.TemplateName)

	h.log.Info("run created", "run_id", run.ID, "template", run.TemplateName, "tasks", len(run.Tasks))
	snap := h.snapshotLocked(h.now())
	h.publish(Event{Type: EventSnapshot, Snapshot: snap})
	return snap, nil
}

// Dispatch applies a user action to the live run. Actions that do not apply
// are recorded as no-ops and leave the run unchanged; applied reports which.
func (h *Host) Dispatch(a engine.Action) (*Snapshot, bool, error) {
	if !a.Kind.Known() {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}

	h.mu.Lock()
	if h.run == nil {
		h.mu.Unlock()
		return nil, false, ErrNoRun
	}
	if a.Kind == engine.ActionAddQuickTask && a.TaskID == "" {
		a.TaskID = uuid.New().String()
	}

	now := h.now()
	prev := *h.run
	next, applied := engine.Apply(prev, a, now)
	h.record(prev.ID, string(a.Kind), a, applied, "")

	var intents []engine.Intent
	if applied {
		if err := h.store.SaveRun(next); err != nil {
			// The in-memory run stays authoritative; the next transition retries the write.
			h.log.Error("persist run failed", "run_id", next.ID, "error", err)
		}
		h.run = &next
		intents = lifecycleIntents(prev, next)
		if a.Kind == engine.ActionEnd && h.announcer != nil {
			if n := h.announcer.Flush(); n > 0 {
				h.log.Debug("dropped queued announcements", "count", n)
			}
		}
	}
	snap := h.snapshotLocked(now)
	if applied {
		h.publish(Event{Type: EventSnapshot, Snapshot: snap})
	}
	h.mu.Unlock()

	h.log.Debug("dispatched", "action", string(a.Kind), "run_id", prev.ID, "outcome", audit.Outcome(applied))
	h.relay(snap.Run.ID, intents)
	return snap, applied, nil
}

// Tick evaluates announcement triggers for the running run and applies each
// decision. It is called by the tick loop and may be called directly.
func (h *Host) Tick() {
	h.mu.Lock()
	if h.run == nil || h.run.Status != models.RunStatusRunning {
		h.mu.Unlock()
		return
	}

	now := h.now()
	run := *h.run
	var activeID string
	if t := run.ActiveTask(); t != nil {
		activeID = t.ID
	}
	reading := engine.ReadActive(&run, now)
	triggers := engine.Evaluate(run, h.tick, reading, h.config.Announce())
	h.tick = h.tick.Observe(activeID, reading)

	var intents []engine.Intent
	changed := false
	for _, trig := range triggers {
		intent := engine.IntentFor(run, trig)
		next, applied := engine.ApplyTrigger(run, trig, now)
		h.record(run.ID, string(trig.Kind), trig, applied, "")
		if !applied {
			continue
		}
		intents = append(intents, intent)
		if trig.Kind == engine.TriggerAutoAdvance {
			intents = append(intents, lifecycleIntents(run, next)...)
		}
		run = next
		changed = true
	}

	if changed {
		if err := h.store.SaveRun(run); err != nil {
			h.log.Error("persist run failed", "run_id", run.ID, "error", err)
		}
		h.run = &run
		h.publish(Event{Type: EventSnapshot, Snapshot: h.snapshotLocked(now)})
	}
	h.mu.Unlock()

	h.relay(run.ID, intents)
}

// Discard forgets the live run and removes it from the store.
func (h *Host) Discard() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.run == nil {
		return ErrNoRun
	}
	id := h.run.ID
	if err := h.store.DeleteRun(id); err != nil {
		return err
	}
	if h.announcer != nil {
		h.announcer.Flush()
	}
	h.run = nil
	h.tick = engine.TickState{}
	h.publish(Event{Type: EventDiscarded})
	h.log.Info("run discarded", "run_id", id)
	return nil
}

// Current returns a copy of the live run and its timer reading.
func (h *Host) Current() (*Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.run == nil {
		return nil, ErrNoRun
	}
	return h.snapshotLocked(h.now()), nil
}

// Journal returns the journal of the live run.
func (h *Host) Journal() ([]models.JournalEntry, error) {
	h.mu.Lock()
	if h.run == nil {
		h.mu.Unlock()
		return nil, ErrNoRun
	}
	id := h.run.ID
	h.mu.Unlock()
	return h.store.ListJournal(id)
}

func (h *Host) snapshotLocked(now int64) *Snapshot {
	run := h.run.Clone()
	return &Snapshot{
		Run:      run,
		Reading:  engine.ReadActive(&run, now),
		Progress: engine.Progress(run, now),
		Now:      now,
	}
}

func (h *Host) record(runID, action string, inputs interface{}, applied bool, details string) {
	if h.journal == nil {
		return
	}
	if _, err := h.journal.Record(runID, action, inputs, audit.Outcome(applied), details); err != nil {
		h.log.Warn("journal write failed", "run_id", runID, "action", action, "error", err)
	}
}

// relay hands intents to the announcer and the notifier. Notification
// failures are logged and otherwise ignored.
func (h *Host) relay(runID string, intents []engine.Intent) {
	for _, in := range intents {
		if h.announcer != nil {
			h.announcer.Enqueue(in.Text)
		}
		n := notify.Notification{
			Title:   in.Title,
			Message: in.Text,
			Level:   levelFor(in.Kind),
			RunID:   runID,
		}
		if err := h.notifier.Send(n); err != nil {
			h.log.Warn("notification failed", "kind", string(in.Kind), "error", err)
		}
	}
}

func levelFor(k engine.IntentKind) notify.Level {
	switch k {
	case engine.IntentRoutineComplete:
		return notify.LevelSuccess
	case engine.IntentTimeUp, engine.IntentOvertime, engine.IntentAutoAdvanceWarning:
		return notify.LevelWarning
	default:
		return notify.LevelInfo
	}
}

// lifecycleIntents announces a newly started task and the end of a completed run.
func lifecycleIntents(prev, next models.RoutineRun) []engine.Intent {
	var out []engine.Intent
	if next.Status == models.RunStatusCompleted && prev.Status != models.RunStatusCompleted {
		return append(out, engine.CompleteIntent(next))
	}
	if activeID(next) != "" && activeID(next) != activeID(prev) {
		if in, ok := engine.StartedIntent(next); ok {
			out = append(out, in)
		}
	}
	return out
}

func activeID(run models.RoutineRun) string {
	if run.ActiveTaskID == nil {
		return ""
	}
	return *run.ActiveTaskID
}
