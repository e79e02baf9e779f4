package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"whatsapp-cloud-relay/internal/config"
	"whatsapp-cloud-relay/internal/model"
	"whatsapp-cloud-relay/pkg/logger"
)

// WhatsAppService issues outbound calls to the Meta Cloud API: text message
// sends and read receipts. It holds no session state; credentials come from
// the injected configuration and are checked per operation.
type WhatsAppService struct {
	httpClient *http.Client
	config     *config.WhatsAppConfig
	logger     *logger.Logger
}

// NewWhatsAppService creates a new WhatsApp Cloud API service
func NewWhatsAppService(cfg *config.WhatsAppConfig, log *logger.Logger) *WhatsAppService {
	return &WhatsAppService{
		httpClient: &http.Client{
			Timeout: cfg.SendTimeout,
		},
		config: cfg,
		logger: log,
	}
}

// HasCredentials reports whether both the access token and the phone number
// ID are configured.
func (s *WhatsAppService) HasCredentials() bool {
	return s.config.AccessToken != "" && s.config.PhoneNumberID != ""
}

// SendText sends a text message and returns the provider-assigned message ID.
// Fails with ErrMissingCredentials before any network call when credentials
// are incomplete, *TransportError on network failure and *ProviderError on a
// non-success provider response.
func (s *WhatsAppService) SendText(ctx context.Context, recipient, text string) (string, error) {
	if !s.HasCredentials() {
		s.logger.Error("Cannot send message: access token or phone number ID missing")
		return "", ErrMissingCredentials
	}

	payload := model.SendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               recipient,
		Type:             "text",
		Text: model.SendText{
			PreviewURL: false,
			Body:       text,
		},
	}

	s.logger.Info("Sending message", "to", recipient)

	body, err := s.post(ctx, payload)
	if err != nil {
		return "", err
	}

	var result model.SendMessageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &ProviderError{StatusCode: http.StatusOK, Message: "malformed send response"}
	}
	if len(result.Messages) == 0 {
		return "", &ProviderError{StatusCode: http.StatusOK, Message: "send response carried no message ID"}
	}

	messageID := result.Messages[0].ID
	s.logger.WithMessageID(messageID).Info("Message sent successfully")
	return messageID, nil
}

// MarkRead marks an incoming message as read (double blue tick on the
// sender's side). Missing credentials make it a no-op: marking read is
// best-effort and must never block ingestion.
func (s *WhatsAppService) MarkRead(ctx context.Context, messageID string) error {
	if !s.HasCredentials() {
		return nil
	}

	payload := model.MarkReadRequest{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
	}

	if _, err := s.post(ctx, payload); err != nil {
		return err
	}

	s.logger.WithMessageID(messageID).Debug("Message marked as read")
	return nil
}

// post issues one authenticated POST to the messages endpoint and normalizes
// the failure modes. Returns the raw response body on success.
func (s *WhatsAppService) post(ctx context.Context, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := s.messagesURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    providerMessage(body),
		}
	}

	return body, nil
}

// messagesURL builds the Cloud API messages endpoint for the configured
// phone number
func (s *WhatsAppService) messagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", s.config.GraphBaseURL, s.config.APIVersion, s.config.PhoneNumberID)
}

// providerMessage extracts the provider's own error message from an error
// body, falling back to a generic one.
func providerMessage(body []byte) string {
	var graphErr model.GraphErrorResponse
	if err := json.Unmarshal(body, &graphErr); err == nil && graphErr.Error.Message != "" {
		return graphErr.Error.Message
	}
	return "unknown API error"
}
