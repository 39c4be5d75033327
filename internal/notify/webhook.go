package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "audiorefresh/1.0"

// WebhookPublisher POSTs each event as JSON to a fixed URL
type WebhookPublisher struct {
	endpoint string
	client   *http.Client
}

// NewWebhookPublisher builds a webhook publisher. An empty endpoint yields
// a NoopPublisher.
func NewWebhookPublisher(endpoint string, timeout time.Duration) Publisher {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return NoopPublisher{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookPublisher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (w *WebhookPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", string(event.Type))

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
