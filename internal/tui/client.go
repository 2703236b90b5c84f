package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fentz26/tempo/internal/engine"
	"github.com/fentz26/tempo/internal/models"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the Tempo API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// Current fetches the live run. It returns nil without error when there is none.
func (c *Client) Current() (*Snapshot, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/run")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 400 {
		return nil, apiError(resp)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Dispatch sends an action and reports whether it applied.
func (c *Client) Dispatch(a engine.Action) (bool, error) {
	var out struct {
		Applied bool `json:"applied"`
	}
	if err := c.post("/run/actions", a, &out); err != nil {
		return false, err
	}
	return out.Applied, nil
}

// Begin creates and starts a run from a template.
func (c *Client) Begin(templateID string, pace models.Pace) error {
	return c.post("/run", map[string]interface{}{
		"template_id": templateID,
		"pace":        pace,
		"start":       true,
	}, nil)
}

// BeginAdHoc creates and starts a single-task run.
func (c *Client) BeginAdHoc(name string, durationMs int64) error {
	return c.post("/run", map[string]interface{}{
		"name":        name,
		"duration_ms": durationMs,
		"start":       true,
	}, nil)
}

// Discard forgets the live run.
func (c *Client) Discard() error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/run", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	return nil
}

// ListTemplates fetches all templates.
func (c *Client) ListTemplates() ([]models.Template, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/templates")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apiError(resp)
	}

	var templates []models.Template
	if err := json.NewDecoder(resp.Body).Decode(&templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// CheckHealth reports whether the daemon answers.
func (c *Client) CheckHealth() bool {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false
	}
	return resp.StatusCode == http.StatusOK && health.OK
}

func (c *Client) post(path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("API error (%d): %s", resp.StatusCode, bytes.TrimSpace(body))
}
