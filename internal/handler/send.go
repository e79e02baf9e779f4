package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"whatsapp-cloud-relay/internal/model"
	"whatsapp-cloud-relay/internal/service"
	"whatsapp-cloud-relay/pkg/logger"
)

// SendHandler handles outbound message send requests from automation callers
type SendHandler struct {
	whatsapp *service.WhatsAppService
	logger   *logger.Logger
}

// NewSendHandler creates a new send handler
func NewSendHandler(wa *service.WhatsAppService, log *logger.Logger) *SendHandler {
	return &SendHandler{
		whatsapp: wa,
		logger:   log,
	}
}

// SendMessage handles POST /api/v1/send
func (h *SendHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "ERR_METHOD_NOT_ALLOWED", "Only POST is allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.APISendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "ERR_INVALID_BODY", "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.To) == "" || req.Text == "" {
		h.sendError(w, "ERR_MISSING_FIELDS", "Fields 'to' and 'text' are required", http.StatusBadRequest)
		return
	}

	messageID, err := h.whatsapp.SendText(r.Context(), req.To, req.Text)
	if err != nil {
		h.sendFailure(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, model.APIResponse{
		Status: "success",
		Data: &model.APISendData{
			MessageID: messageID,
			To:        req.To,
			Timestamp: time.Now(),
		},
	})
}

// sendFailure maps the send error taxonomy to HTTP statuses: credential
// problems are the operator's to fix (500), provider and transport failures
// are upstream (502).
func (h *SendHandler) sendFailure(w http.ResponseWriter, err error) {
	var providerErr *service.ProviderError
	var transportErr *service.TransportError

	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		h.sendError(w, "ERR_MISSING_CREDENTIALS", err.Error(), http.StatusInternalServerError)
	case errors.As(err, &providerErr):
		h.sendError(w, "ERR_PROVIDER", providerErr.Message, http.StatusBadGateway)
	case errors.As(err, &transportErr):
		h.sendError(w, "ERR_TRANSPORT", transportErr.Error(), http.StatusBadGateway)
	default:
		h.sendError(w, "ERR_INTERNAL", err.Error(), http.StatusInternalServerError)
	}
}

// sendError sends an error response in JSON format
func (h *SendHandler) sendError(w http.ResponseWriter, code, message string, statusCode int) {
	h.sendJSON(w, statusCode, model.APIResponse{
		Status:  "error",
		Message: message,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}

func (h *SendHandler) sendJSON(w http.ResponseWriter, statusCode int, response model.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}
