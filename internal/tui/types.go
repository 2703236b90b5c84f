package tui

import (
	"github.com/fentz26/tempo/internal/engine"
	"github.com/fentz26/tempo/internal/models"
)

// Snapshot mirrors the daemon's GET /run payload.
type Snapshot struct {
	Run      models.RoutineRun `json:"run"`
	Reading  *engine.Reading   `json:"reading"`
	Progress engine.Summary    `json:"progress"`
	Now      int64             `json:"now"`
}

// HealthResponse mirrors the daemon's GET /health payload.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
