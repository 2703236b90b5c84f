package controlplane

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/tempo/internal/engine"
	"github.com/fentz26/tempo/internal/host"
	"github.com/fentz26/tempo/internal/models"
	"github.com/gorilla/websocket"
)

func TestStreamPushesRunChanges(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	if _, err := s.service.BeginRun("", "", "Tea", 60000); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/run/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	read := func() host.Event {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var e host.Event
		if err := conn.ReadJSON(&e); err != nil {
			t.Fatalf("ReadJSON failed: %v", err)
		}
		return e
	}

	e := read()
	if e.Type != host.EventSnapshot || e.Snapshot.Run.Status != models.RunStatusNotStarted {
		t.Fatalf("unexpected initial event: %+v", e)
	}

	if _, _, err := s.service.Dispatch(engine.Action{Kind: engine.ActionStart}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	e = read()
	if e.Type != host.EventSnapshot || e.Snapshot.Run.Status != models.RunStatusRunning {
		t.Errorf("unexpected event after start: %+v", e)
	}
	if e.Snapshot.Reading == nil || e.Snapshot.Reading.RemainingMs != 60000 {
		t.Errorf("unexpected reading: %+v", e.Snapshot.Reading)
	}

	if err := s.service.DiscardRun(); err != nil {
		t.Fatalf("DiscardRun failed: %v", err)
	}
	if e = read(); e.Type != host.EventDiscarded {
		t.Errorf("expected discarded event, got %+v", e)
	}
}

func TestStreamRejectsForeignOrigin(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/run/stream"
	header := http.Header{"Origin": []string{"https://example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %+v", resp)
	}
}

func TestLocalOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"http://127.0.0.1:7474", true},
		{"http://[::1]:7474", true},
		{"https://example.com", false},
		{"http://192.168.1.10", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/run/stream", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := localOrigin(r); got != tt.want {
			t.Errorf("localOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
