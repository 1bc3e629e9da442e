package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	webhookTimeout   = 10 * time.Second
	webhookUserAgent = "setup-scanner"
	maxErrorBody     = 256
)

// webhookEvent is the JSON body posted for every alert.
type webhookEvent struct {
	Source  string         `json:"source"`
	Level   AlertLevel     `json:"level"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Key     string         `json:"key,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
	TS      string         `json:"ts"`
}

// WebhookNotifier posts alerts as JSON to an HTTP endpoint. Any 2xx status
// is success.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier for url.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: &http.Client{Timeout: webhookTimeout}}
}

func newWebhookEvent(alert Alert) webhookEvent {
	ts := alert.TS
	if ts.IsZero() {
		ts = time.Now()
	}
	return webhookEvent{
		Source:  webhookUserAgent,
		Level:   alert.Level,
		Title:   alert.Title,
		Message: alert.Message,
		Key:     alert.Key,
		Fields:  alert.Fields,
		TS:      ts.UTC().Format(time.RFC3339Nano),
	}
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(newWebhookEvent(alert))
	if err != nil {
		return deliveryError("webhook", "marshal", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return deliveryError("webhook", "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", webhookUserAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return deliveryError("webhook", "send", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return deliveryError("webhook", "send",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}
	io.Copy(io.Discard, resp.Body)

	log.Printf("[webhook] delivered %s (%s)", alert.Title, alert.Key)
	return nil
}
