package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	WhatsApp WhatsAppConfig
	Security SecurityConfig
	Sink     SinkConfig
	Dedup    DedupConfig
	LogLevel string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          string
	Host          string
	PublicBaseURL string
}

// WhatsAppConfig holds Meta Cloud API configuration
type WhatsAppConfig struct {
	VerifyToken   string
	AccessToken   string
	PhoneNumberID string
	GraphBaseURL  string
	APIVersion    string
	SendTimeout   time.Duration
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	APIKey    string
	AppSecret string
}

// SinkConfig holds trigger sink configuration
type SinkConfig struct {
	Mode       string
	WebhookURL string
	Timeout    time.Duration
	AMQPURL    string
	Exchange   string
	RoutingKey string
	WSURL      string
	WSToken    string
}

// DedupConfig holds delivery deduplication configuration
type DedupConfig struct {
	DBPath string
	TTL    time.Duration
}

// Sink mode values accepted in SINK_MODE
const (
	SinkModeWebhook   = "webhook"
	SinkModeAMQP      = "amqp"
	SinkModeWebSocket = "websocket"
	SinkModeLog       = "log"
)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "8080"),
			Host:          getEnv("HOST", "0.0.0.0"),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		},
		WhatsApp: WhatsAppConfig{
			VerifyToken:   getEnv("VERIFY_TOKEN", ""),
			AccessToken:   getEnv("ACCESS_TOKEN", ""),
			PhoneNumberID: getEnv("PHONE_NUMBER_ID", ""),
			GraphBaseURL:  strings.TrimRight(getEnv("GRAPH_API_BASE_URL", "https://graph.facebook.com"), "/"),
			APIVersion:    getEnv("GRAPH_API_VERSION", "v19.0"),
			SendTimeout:   parseDuration(getEnv("SEND_TIMEOUT", "15s"), 15*time.Second),
		},
		Security: SecurityConfig{
			APIKey:    getEnv("API_KEY", ""),
			AppSecret: getEnv("APP_SECRET", ""),
		},
		Sink: SinkConfig{
			Mode:       strings.ToLower(getEnv("SINK_MODE", SinkModeWebhook)),
			WebhookURL: getEnv("SINK_WEBHOOK_URL", ""),
			Timeout:    parseDuration(getEnv("SINK_TIMEOUT", "10s"), 10*time.Second),
			AMQPURL:    getEnv("SINK_AMQP_URL", ""),
			Exchange:   getEnv("SINK_AMQP_EXCHANGE", "automation.events"),
			RoutingKey: getEnv("SINK_AMQP_ROUTING_KEY", "whatsapp.message.received"),
			WSURL:      getEnv("SINK_WS_URL", ""),
			WSToken:    getEnv("SINK_WS_TOKEN", ""),
		},
		Dedup: DedupConfig{
			DBPath: getEnv("DEDUP_DB_PATH", "./db/deliveries.db"),
			TTL:    parseDuration(getEnv("DEDUP_TTL", "24h"), 24*time.Hour),
		},
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks that the selected sink mode has the settings it needs.
// The WhatsApp credentials are deliberately NOT required here: the webhook
// side must run without them, and operations that need one fail fast at use.
func (c *Config) validate() error {
	switch c.Sink.Mode {
	case SinkModeWebhook:
		if c.Sink.WebhookURL == "" {
			return fmt.Errorf("SINK_WEBHOOK_URL is required when SINK_MODE=webhook")
		}
	case SinkModeAMQP:
		if c.Sink.AMQPURL == "" {
			return fmt.Errorf("SINK_AMQP_URL is required when SINK_MODE=amqp")
		}
	case SinkModeWebSocket:
		if c.Sink.WSURL == "" {
			return fmt.Errorf("SINK_WS_URL is required when SINK_MODE=websocket")
		}
	case SinkModeLog:
		// nothing to validate
	default:
		return fmt.Errorf("unknown SINK_MODE %q", c.Sink.Mode)
	}
	return nil
}

// WebhookURL returns the full public callback URL for the Meta developer
// portal. Empty when PUBLIC_BASE_URL is not configured.
func (c *Config) WebhookURL() string {
	if c.Server.PublicBaseURL == "" {
		return ""
	}
	return c.Server.PublicBaseURL + "/webhook"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseDuration parses string to time.Duration with default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
