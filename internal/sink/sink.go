package sink

import (
	"context"
	"time"

	"whatsapp-cloud-relay/pkg/logger"
)

// MessageEvent is the data handed to the automation trigger for one received
// message
type MessageEvent struct {
	MessageText  string    `json:"message_text"`
	SenderNumber string    `json:"sender_number"`
	MessageID    string    `json:"message_id,omitempty"`
	DeliveryID   string    `json:"delivery_id,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
}

// TriggerSink forwards extracted message data to the automation-rule engine.
// Implementations must be safe for concurrent use; delivery is single-attempt
// and the dispatcher treats a failure as log-only.
type TriggerSink interface {
	Trigger(ctx context.Context, event MessageEvent) error
	Close() error
}

// LogSink is a sink for local development that only logs the event
type LogSink struct {
	logger *logger.Logger
}

// NewLogSink creates a log-only trigger sink
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

// Trigger logs the event and succeeds
func (s *LogSink) Trigger(ctx context.Context, event MessageEvent) error {
	s.logger.Info("Trigger event (log sink)",
		"sender_number", event.SenderNumber,
		"message_id", event.MessageID,
		"message_text", event.MessageText,
	)
	return nil
}

// Close is a no-op
func (s *LogSink) Close() error {
	return nil
}
