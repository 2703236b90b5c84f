package notify

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
)

type mockNotifier struct {
	name  string
	calls *[]string
	err   error
}

func (m *mockNotifier) Send(n Notification) error {
	*m.calls = append(*m.calls, m.name)
	return m.err
}

func TestMultiNotifier(t *testing.T) {
	var called []string

	mock1 := &mockNotifier{name: "mock1", calls: &called, err: errors.New("boom")}
	mock2 := &mockNotifier{name: "mock2", calls: &called}

	multi := NewMultiNotifier(mock1, mock2)
	err := multi.Send(Notification{Title: "Test"})

	if len(called) != 2 || called[0] != "mock1" || called[1] != "mock2" {
		t.Errorf("Expected both notifiers in order, got %v", called)
	}
	if err == nil || err.Error() != "boom" {
		t.Errorf("Expected last error to surface, got %v", err)
	}
}

func TestWebhookNotifier_Send(t *testing.T) {
	var got WebhookMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL)
	err := notifier.Send(Notification{
		Title:   "Routine complete",
		Message: "Morning finished",
		Level:   LevelSuccess,
		RunID:   "run-1",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got.Text != "Routine complete" || len(got.Attachments) != 1 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got.Attachments[0].Color != "good" || got.Attachments[0].Title != "run-1" {
		t.Errorf("unexpected attachment: %+v", got.Attachments[0])
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if err := NewWebhookNotifier(server.URL).Send(Notification{Title: "x"}); err == nil {
		t.Error("Expected error for non-200 status")
	}
	if err := NewWebhookNotifier("").Send(Notification{Title: "x"}); err != nil {
		t.Errorf("Disabled webhook should not error: %v", err)
	}
}

func TestDesktopNotifier(t *testing.T) {
	var invoked []string
	d := NewDesktopNotifier(true)
	d.run = func(name string, args ...string) error {
		invoked = append(invoked, name+" "+strings.Join(args, " "))
		return nil
	}

	if err := d.Send(Notification{Title: `Say "hi"`, Message: "Task started"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	switch runtime.GOOS {
	case "darwin":
		if len(invoked) != 1 || !strings.Contains(invoked[0], `\"hi\"`) {
			t.Errorf("unexpected invocation: %v", invoked)
		}
	case "linux":
		if len(invoked) != 1 || !strings.HasPrefix(invoked[0], "notify-send") {
			t.Errorf("unexpected invocation: %v", invoked)
		}
	}

	invoked = nil
	d.enabled = false
	d.Send(Notification{Title: "x"})
	if len(invoked) != 0 {
		t.Error("Disabled notifier should not run commands")
	}
}

func TestIconForLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelSuccess, "dialog-positive"},
		{LevelWarning, "dialog-warning"},
		{LevelInfo, "dialog-information"},
	}

	for _, tt := range tests {
		if got := IconForLevel(tt.level); got != tt.want {
			t.Errorf("IconForLevel(%v) = %s, want %s", tt.level, got, tt.want)
		}
	}
}
