package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"simplist/pkg/config"
)

const defaultWebhookTimeout = 10 * time.Second

// Webhook posts notifications as JSON to a configured endpoint. The external
// service behind the URL owns the actual delivery (mail, chat, whatever).
type Webhook struct {
	url    string
	bearer string
	client *http.Client
}

// NewWebhook builds the webhook backend from config.
func NewWebhook(cfg config.WebhookConfig) *Webhook {
	timeout := defaultWebhookTimeout
	if cfg.TimeoutMs > 0 {
		timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	return &Webhook{
		url:    cfg.URL,
		bearer: cfg.Bearer,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookBody struct {
	Recipients string          `json:"recipients"`
	Entry      json.RawMessage `json:"entry"`
}

func (w *Webhook) Send(ctx context.Context, recipients string, payload []byte) error {
	if w.url == "" {
		return fmt.Errorf("webhook url not configured")
	}
	body, err := json.Marshal(webhookBody{Recipients: recipients, Entry: payload})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+w.bearer)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
