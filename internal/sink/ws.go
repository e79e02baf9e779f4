package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"whatsapp-cloud-relay/internal/config"
	"whatsapp-cloud-relay/pkg/logger"
)

// WebSocketSink pushes trigger events over a persistent WebSocket connection
// to an automation gateway. Writes are serialized with a mutex.
type WebSocketSink struct {
	url    string
	token  string
	logger *logger.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebSocketSink creates the sink and establishes the initial connection
func NewWebSocketSink(cfg *config.SinkConfig, log *logger.Logger) (*WebSocketSink, error) {
	s := &WebSocketSink{
		url:    cfg.WSURL,
		token:  cfg.WSToken,
		logger: log,
	}
	if err := s.connect(); err != nil {
		return nil, err
	}
	return s, nil
}

// connect dials the gateway. Caller must not hold the mutex.
func (s *WebSocketSink) connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked()
}

func (s *WebSocketSink) connectLocked() error {
	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.Dial(s.url, header)
	if err != nil {
		return fmt.Errorf("failed to connect to gateway: %w", err)
	}

	s.conn = conn
	s.logger.Info("Connected to automation gateway", "url", s.url)
	return nil
}

// Trigger writes the event as a text frame, reconnecting once on a stale
// connection
func (s *WebSocketSink) Trigger(ctx context.Context, event MessageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		if err := s.connectLocked(); err != nil {
			return err
		}
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(deadline)
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		// Connection is likely dead; drop it and retry the write once on a
		// fresh one.
		s.conn.Close()
		s.conn = nil
		if err := s.connectLocked(); err != nil {
			return err
		}
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return fmt.Errorf("failed to write message: %w", err)
		}
	}

	return nil
}

// Close closes the WebSocket connection
func (s *WebSocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
