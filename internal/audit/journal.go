// Package audit records dispatched run actions in the journal.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/tempo/internal/models"
	"github.com/fentz26/tempo/internal/store"
)

// Outcomes recorded for a dispatched action.
const (
	OutcomeApplied = "applied"
	OutcomeNoop    = "noop"
)

// JournalWriter writes journal entries for run actions.
type JournalWriter struct {
	store *store.Store
}

// NewJournalWriter creates a new journal writer.
func NewJournalWriter(s *store.Store) *JournalWriter {
	return &JournalWriter{store: s}
}

// Record writes a journal entry for an action dispatched against a run.
func (w *JournalWriter) Record(runID, action string, inputs interface{}, outcome, details string) (*models.JournalEntry, error) {
	return w.store.WriteJournal(runID, action, HashInputs(inputs), outcome, details)
}

// Outcome maps whether a transition applied to the recorded outcome.
func Outcome(applied bool) string {
	if applied {
		return OutcomeApplied
	}
	return OutcomeNoop
}

// HashInputs returns a SHA256 hash of the JSON encoding of inputs.
func HashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
