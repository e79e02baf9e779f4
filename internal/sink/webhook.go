package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"whatsapp-cloud-relay/internal/config"
	"whatsapp-cloud-relay/pkg/logger"
)

// WebhookSink delivers trigger events to an internal automation endpoint via
// HTTP POST. One attempt per event; the automation side owns redelivery.
type WebhookSink struct {
	httpClient *http.Client
	url        string
	logger     *logger.Logger
}

// NewWebhookSink creates an HTTP webhook trigger sink
func NewWebhookSink(cfg *config.SinkConfig, log *logger.Logger) *WebhookSink {
	return &WebhookSink{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		url:    cfg.WebhookURL,
		logger: log,
	}
}

// Trigger performs the HTTP POST to the automation webhook
func (s *WebhookSink) Trigger(ctx context.Context, event MessageEvent) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "whatsapp-cloud-relay/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	s.logger.WithDeliveryID(event.DeliveryID).Debug("Trigger event delivered", "url", s.url)
	return nil
}

// Close is a no-op; the HTTP client holds no connection state worth draining
func (s *WebhookSink) Close() error {
	return nil
}
