package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fentz26/tempo/internal/controlplane"
)

// DefaultClientTimeout bounds every CLI request to the daemon.
const DefaultClientTimeout = 10 * time.Second

var apiClient = &http.Client{
	Timeout: DefaultClientTimeout,
}

// apiError is a non-2xx answer from the daemon.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("daemon returned %d: %s", e.Status, e.Message)
}

// isNotFound reports whether err is a 404 from the daemon.
func isNotFound(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

func apiGet(path string) ([]byte, error) {
	return apiDo(http.MethodGet, path, nil)
}

func apiPost(path string, data interface{}) ([]byte, error) {
	return apiDo(http.MethodPost, path, data)
}

func apiDelete(path string) ([]byte, error) {
	return apiDo(http.MethodDelete, path, nil)
}

// apiDo sends a JSON request to the daemon and returns the raw response body.
func apiDo(method, path string, data interface{}) ([]byte, error) {
	var body io.Reader
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, apiAddr+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := apiClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot reach daemon at %s (start it with: tempo daemon): %w", apiAddr, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &apiError{Status: resp.StatusCode, Message: string(bytes.TrimSpace(out))}
	}
	return out, nil
}

// daemonHealth queries /health with a short timeout. The payload is returned
// with the error when the daemon answers but reports itself unhealthy.
func daemonHealth(timeout time.Duration) (*controlplane.HealthResponse, error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(apiAddr + "/health")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var health controlplane.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !health.OK {
		return &health, fmt.Errorf("daemon unhealthy: db %s", health.DB)
	}
	return &health, nil
}
