package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookNotifier posts Slack-compatible messages to an incoming webhook
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// WebhookMessage represents a webhook payload
type WebhookMessage struct {
	Text        string              `json:"text"`
	Attachments []WebhookAttachment `json:"attachments,omitempty"`
}

// WebhookAttachment represents a message attachment
type WebhookAttachment struct {
	Color  string `json:"color"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
	Footer string `json:"footer,omitempty"`
}

// NewWebhookNotifier creates a new webhook notifier. An empty url disables it.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Color returns the attachment color for a notification level
func Color(l Level) string {
	switch l {
	case LevelSuccess:
		return "good"
	case LevelWarning:
		return "warning"
	default:
		return "#439FE0"
	}
}

// Send posts the notification to the webhook
func (w *WebhookNotifier) Send(n Notification) error {
	if w.url == "" {
		return nil
	}

	msg := WebhookMessage{
		Text: n.Title,
		Attachments: []WebhookAttachment{{
			Color:  Color(n.Level),
			Title:  n.RunID,
			Text:   n.Message,
			Footer: "Tempo",
		}},
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
