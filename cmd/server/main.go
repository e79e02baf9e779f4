package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"whatsapp-cloud-relay/internal/config"
	"whatsapp-cloud-relay/internal/handler"
	"whatsapp-cloud-relay/internal/middleware"
	"whatsapp-cloud-relay/internal/repository"
	"whatsapp-cloud-relay/internal/service"
	"whatsapp-cloud-relay/internal/sink"
	"whatsapp-cloud-relay/pkg/logger"
)

func main() {
	// Create .env from .env.example if not exists
	if err := ensureEnvFile(); err != nil {
		log.Printf("Warning: Failed to create .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Starting WhatsApp Cloud API relay service")

	// Initialize WhatsApp Cloud API service
	whatsappService := service.NewWhatsAppService(&cfg.WhatsApp, appLogger)
	if !whatsappService.HasCredentials() {
		appLogger.Warn("Access token or phone number ID not configured; outbound sends and read receipts are disabled until they are set")
	}

	// Initialize delivery dedup repository
	if err := os.MkdirAll(filepath.Dir(cfg.Dedup.DBPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}
	deliveryRepo, err := repository.NewDeliveryRepository(cfg.Dedup.DBPath, cfg.Dedup.TTL)
	if err != nil {
		appLogger.Error("Failed to initialize delivery repository", "error", err)
		log.Fatalf("Failed to initialize delivery repository: %v", err)
	}
	defer deliveryRepo.Close()
	go cleanupExpiredPeriodically(deliveryRepo, appLogger)

	// Initialize trigger sink
	triggerSink, err := newTriggerSink(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize trigger sink", "error", err, "mode", cfg.Sink.Mode)
		log.Fatalf("Failed to initialize trigger sink: %v", err)
	}
	defer triggerSink.Close()

	// Initialize services
	verifier := service.NewVerifier(&cfg.WhatsApp, appLogger)
	dispatcher := service.NewDispatcher(whatsappService, deliveryRepo, triggerSink, appLogger)

	// Initialize handlers
	webhookHandler := handler.NewWebhookHandler(verifier, dispatcher, cfg.Security.AppSecret, appLogger)
	sendHandler := handler.NewSendHandler(whatsappService, appLogger)
	healthHandler := handler.NewHealthHandler(whatsappService, cfg, appLogger)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.Security.APIKey, appLogger)

	// Setup HTTP routes
	mux := http.NewServeMux()

	// Provider-facing routes (Meta authenticates via verify token / signature)
	mux.HandleFunc("/webhook", webhookHandler.Handle)
	mux.HandleFunc("/health", healthHandler.CheckHealth)

	// Protected routes
	mux.HandleFunc("/api/v1/send", authMiddleware.Authenticate(sendHandler.SendMessage))

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("HTTP server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server error", "error", err)
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	appLogger.Info("WhatsApp Cloud API relay started successfully",
		"address", addr,
		"sink_mode", cfg.Sink.Mode,
		"callback_url", cfg.WebhookURL(),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server stopped gracefully")
}

// newTriggerSink builds the trigger sink selected by SINK_MODE
func newTriggerSink(cfg *config.Config, appLogger *logger.Logger) (sink.TriggerSink, error) {
	switch cfg.Sink.Mode {
	case config.SinkModeWebhook:
		return sink.NewWebhookSink(&cfg.Sink, appLogger), nil
	case config.SinkModeAMQP:
		return sink.NewAMQPSink(&cfg.Sink, appLogger)
	case config.SinkModeWebSocket:
		return sink.NewWebSocketSink(&cfg.Sink, appLogger)
	case config.SinkModeLog:
		return sink.NewLogSink(appLogger), nil
	default:
		return nil, fmt.Errorf("unknown sink mode %q", cfg.Sink.Mode)
	}
}

// cleanupExpiredPeriodically runs dedup store cleanup every hour
func cleanupExpiredPeriodically(repo *repository.DeliveryRepository, appLogger *logger.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		count, err := repo.CleanupExpired()
		if err != nil {
			appLogger.Error("Failed to cleanup expired deliveries", "error", err)
		} else if count > 0 {
			appLogger.Info("Cleaned up expired deliveries", "count", count)
		}
	}
}

// ensureEnvFile creates .env from .env.example if .env doesn't exist
func ensureEnvFile() error {
	// Check if .env already exists
	if _, err := os.Stat(".env"); err == nil {
		return nil // .env already exists
	}

	// Check if .env.example exists
	if _, err := os.Stat(".env.example"); os.IsNotExist(err) {
		return fmt.Errorf(".env.example not found")
	}

	// Copy .env.example to .env
	source, err := os.Open(".env.example")
	if err != nil {
		return fmt.Errorf("failed to open .env.example: %w", err)
	}
	defer source.Close()

	destination, err := os.Create(".env")
	if err != nil {
		return fmt.Errorf("failed to create .env: %w", err)
	}
	defer destination.Close()

	_, err = io.Copy(destination, source)
	if err != nil {
		return fmt.Errorf("failed to copy .env.example to .env: %w", err)
	}

	log.Println("Created .env file from .env.example")
	return nil
}
