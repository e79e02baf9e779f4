package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"whatsapp-cloud-relay/internal/service"
	"whatsapp-cloud-relay/pkg/logger"
)

// WebhookHandler handles the provider-facing /webhook endpoint: subscription
// verification on GET and event deliveries on POST
type WebhookHandler struct {
	verifier   *service.Verifier
	dispatcher *service.Dispatcher
	appSecret  string
	logger     *logger.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(verifier *service.Verifier, dispatcher *service.Dispatcher, appSecret string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		dispatcher: dispatcher,
		appSecret:  appSecret,
		logger:     log,
	}
}

// Handle routes /webhook by method
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleVerification(w, r)
	case http.MethodPost:
		h.handleEvent(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleVerification responds to the provider's verification challenge:
// GET /webhook?hub.mode=subscribe&hub.verify_token=TOKEN&hub.challenge=CHALLENGE
//
// Handshake failures must be visible to the subscription setup, so unlike
// POST deliveries they map to real error statuses.
func (h *WebhookHandler) handleVerification(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Webhook verification requested", "remote_addr", r.RemoteAddr)

	query := r.URL.Query()
	reply, err := h.verifier.Verify(
		query.Get("hub.mode"),
		query.Get("hub.verify_token"),
		query.Get("hub.challenge"),
	)
	if err != nil {
		if errors.Is(err, service.ErrVerifyTokenNotConfigured) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, reply)
}

// handleEvent processes one POST event delivery. Whatever happens inside
// dispatch, the provider gets a 200 with an ack string; anything else causes
// a redelivery storm.
func (h *WebhookHandler) handleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	// Validate HMAC signature if app secret is configured. A bad signature
	// is a forgery, not a malformed event, so it is rejected before dispatch.
	if h.appSecret != "" {
		if !h.validSignature(body, r.Header.Get("X-Hub-Signature-256")) {
			h.logger.Warn("Webhook delivery with invalid signature", "remote_addr", r.RemoteAddr)
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	result := h.dispatcher.Dispatch(r.Context(), body)

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, string(result))
}

// validSignature checks the sha256= HMAC header against the raw body
func (h *WebhookHandler) validSignature(body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(sig), []byte(expected))
}
