package controlplane

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fentz26/tempo/internal/engine"
	"github.com/fentz26/tempo/internal/host"
	"github.com/fentz26/tempo/internal/logger"
	"github.com/fentz26/tempo/internal/models"
	"github.com/fentz26/tempo/internal/store"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Server provides the HTTP API for Tempo.
type Server struct {
	service *Service
	store   *store.Store
	addr    string
	log     *logger.Logger
	server  *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(service *Service, st *store.Store, addr string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		service: service,
		store:   st,
		addr:    addr,
		log:     log,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Run endpoints
	mux.HandleFunc("/run", s.handleRun)
	mux.HandleFunc("/run/actions", s.handleActions)
	mux.HandleFunc("/run/journal", s.handleJournal)
	mux.HandleFunc("/run/stream", s.handleStream)

	// Template endpoints
	mux.HandleFunc("/templates", s.handleTemplates)
	mux.HandleFunc("/templates/", s.handleTemplateByID)

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.log.Info("starting tempo daemon", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := HealthResponse{
		OK:      true,
		DB:      "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		health.OK = false
		health.DB = err.Error()
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, health)
}

// handleRun handles GET, POST and DELETE /run
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getRun(w, r)
	case http.MethodPost:
		s.beginRun(w, r)
	case http.MethodDelete:
		s.discardRun(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleTemplates handles POST /templates and GET /templates
func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createTemplate(w, r)
	case http.MethodGet:
		s.listTemplates(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleTemplateByID handles /templates/{id}
func (s *Server) handleTemplateByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/templates/"), "/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "template id required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getTemplate(w, r, id)
	case http.MethodDelete:
		s.deleteTemplate(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// --- Run Handlers ---

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.CurrentRun()
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// BeginRunRequest starts a run from a template, or a single timer when
// TemplateID is empty.
type BeginRunRequest struct {
	TemplateID string      `json:"template_id,omitempty"`
	Pace       models.Pace `json:"pace,omitempty"`
	Name       string      `json:"name,omitempty"`
	DurationMs int64       `json:"duration_ms,omitempty"`
	// Start dispatches a start action right after creation.
	Start bool `json:"start,omitempty"`
}

func (s *Server) beginRun(w http.ResponseWriter, r *http.Request) {
	var req BeginRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	snap, err := s.service.BeginRun(req.TemplateID, req.Pace, req.Name, req.DurationMs)
	if err != nil {
		s.fail(w, err)
		return
	}
	if req.Start {
		if snap, _, err = s.service.Dispatch(engine.Action{Kind: engine.ActionStart}); err != nil {
			s.fail(w, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) discardRun(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DiscardRun(); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "discarded"})
}

// ActionResponse is the payload of POST /run/actions.
type ActionResponse struct {
	Applied bool `json:"applied"`
	*host.Snapshot
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var action engine.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	snap, applied, err := s.service.Dispatch(action)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ActionResponse{Applied: applied, Snapshot: snap})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries, err := s.service.Journal()
	if err != nil {
		s.fail(w, err)
		return
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- Template Handlers ---

type createTemplateRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Tasks       []models.TemplateTask `json:"tasks"`
}

func (s *Server) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	tpl, err := s.service.CreateTemplate(req.Name, req.Description, req.Tasks)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.service.ListTemplates()
	if err != nil {
		s.fail(w, err)
		return
	}
	if templates == nil {
		templates = []models.Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request, id string) {
	tpl, err := s.service.GetTemplate(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (s *Server) deleteTemplate(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.service.DeleteTemplate(id); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// fail writes err with the status it maps to. Unexpected errors are logged.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
