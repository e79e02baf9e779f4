package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"whatsapp-cloud-relay/internal/config"
	"whatsapp-cloud-relay/internal/service"
	"whatsapp-cloud-relay/pkg/logger"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	whatsapp  *service.WhatsAppService
	config    *config.Config
	logger    *logger.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(wa *service.WhatsAppService, cfg *config.Config, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		whatsapp:  wa,
		config:    cfg,
		logger:    log,
		startTime: time.Now(),
	}
}

// CheckHealth handles GET /health. Configuration is reported as booleans
// only, never values.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)

	response := map[string]interface{}{
		"status": "healthy",
		"whatsapp": map[string]interface{}{
			"credentials_configured":  h.whatsapp.HasCredentials(),
			"verify_token_configured": h.config.WhatsApp.VerifyToken != "",
			"app_secret_configured":   h.config.Security.AppSecret != "",
		},
		"sink": map[string]interface{}{
			"mode": h.config.Sink.Mode,
		},
		"webhook_url": h.config.WebhookURL(),
		"uptime":      uptime.String(),
		"timestamp":   time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
