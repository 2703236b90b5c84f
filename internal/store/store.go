// Package store provides SQLite-backed persistence for Tempo.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/tempo/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store provides access to the Tempo SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		tasks TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		template_id TEXT,
		status TEXT NOT NULL,
		state TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journal (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_updated_at ON runs(updated_at);
	CREATE INDEX IF NOT EXISTS idx_journal_run_id ON journal(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Template Operations ---

// CreateTemplate inserts a new template. Task ids are assigned where missing.
func (s *Store) CreateTemplate(name, description string, tasks []models.TemplateTask) (*models.Template, error) {
	now := time.Now().UTC()
	tpl := &models.Template{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Tasks:       withTaskIDs(tasks),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tasksJSON, err := json.Marshal(tpl.Tasks)
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO templates (id, name, description, tasks, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		tpl.ID, tpl.Name, tpl.Description, string(tasksJSON), tpl.CreatedAt, tpl.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	return tpl, nil
}

// withTaskIDs returns a copy of tasks with ids filled in.
func withTaskIDs(tasks []models.TemplateTask) []models.TemplateTask {
	out := make([]models.TemplateTask, len(tasks))
	copy(out, tasks)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = uuid.New().String()
		}
	}
	return out
}

// GetTemplate retrieves a template by ID.
func (s *Store) GetTemplate(id string) (*models.Template, error) {
	tpl := &models.Template{}
	var description sql.NullString
	var tasksJSON string

	err := s.db.QueryRow(
		`SELECT id, name, description, tasks, created_at, updated_at FROM templates WHERE id = ?`,
		id,
	).Scan(&tpl.ID, &tpl.Name, &description, &tasksJSON, &tpl.CreatedAt, &tpl.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query template: %w", err)
	}
	if description.Valid {
		tpl.Description = description.String
	}
	if err := json.Unmarshal([]byte(tasksJSON), &tpl.Tasks); err != nil {
		return nil, fmt.Errorf("unmarshal tasks: %w", err)
	}
	return tpl, nil
}

// ListTemplates returns all templates, most recently updated first.
func (s *Store) ListTemplates() ([]models.Template, error) {
	rows, err := s.db.Query(
		`SELECT id, name, description, tasks, created_at, updated_at FROM templates ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		var tpl models.Template
		var description sql.NullString
		var tasksJSON string
		if err := rows.Scan(&tpl.ID, &tpl.Name, &description, &tasksJSON, &tpl.CreatedAt, &tpl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		if description.Valid {
			tpl.Description = description.String
		}
		if err := json.Unmarshal([]byte(tasksJSON), &tpl.Tasks); err != nil {
			return nil, fmt.Errorf("unmarshal tasks for %s: %w", tpl.ID, err)
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

// DeleteTemplate removes a template. Runs created from it are unaffected.
func (s *Store) DeleteTemplate(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- Run Operations ---

// SaveRun stores the run, replacing any previously stored state for its ID.
func (s *Store) SaveRun(run models.RoutineRun) error {
	state, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (id, template_id, status, state, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			state = excluded.state,
			updated_at = excluded.updated_at
	`,
		run.ID, run.TemplateID, string(run.Status), string(state), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// GetRun retrieves a stored run by ID.
func (s *Store) GetRun(id string) (*models.RoutineRun, error) {
	var state string
	err := s.db.QueryRow(`SELECT state FROM runs WHERE id = ?`, id).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	return decodeRun(state)
}

// LatestRun returns the most recently saved run, or nil when none is stored.
func (s *Store) LatestRun() (*models.RoutineRun, error) {
	var state string
	err := s.db.QueryRow(`SELECT state FROM runs ORDER BY updated_at DESC, rowid DESC LIMIT 1`).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	return decodeRun(state)
}

// DeleteRun removes a stored run and its journal.
func (s *Store) DeleteRun(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM journal WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("delete journal: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return tx.Commit()
}

func decodeRun(state string) (*models.RoutineRun, error) {
	var run models.RoutineRun
	if err := json.Unmarshal([]byte(state), &run); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	return &run, nil
}

// --- Journal Operations ---

// WriteJournal appends a journal entry for a dispatched action.
func (s *Store) WriteJournal(runID, action, inputsHash, outcome, details string) (*models.JournalEntry, error) {
	entry := &models.JournalEntry{
		ID:         uuid.New().String(),
		RunID:      runID,
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO journal (id, run_id, action, inputs_hash, outcome, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.RunID, entry.Action, entry.InputsHash, entry.Outcome, entry.Details, entry.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert journal entry: %w", err)
	}
	return entry, nil
}

// ListJournal returns the journal of a run in insertion order.
func (s *Store) ListJournal(runID string) ([]models.JournalEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, action, inputs_hash, outcome, details, timestamp FROM journal WHERE run_id = ? ORDER BY timestamp ASC, rowid ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Action, &e.InputsHash, &e.Outcome, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if details.Valid {
			e.Details = details.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
