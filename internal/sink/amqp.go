package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"whatsapp-cloud-relay/internal/config"
	"whatsapp-cloud-relay/pkg/logger"
)

const amqpEventType = "whatsapp.message.received.v1"

// amqpEnvelope is the published message shape: event metadata plus the
// trigger payload
type amqpEnvelope struct {
	Meta amqpMeta     `json:"meta"`
	Data MessageEvent `json:"data"`
}

type amqpMeta struct {
	ID            string    `json:"id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Time          time.Time `json:"time"`
	Type          string    `json:"type"`
}

// AMQPSink publishes trigger events to a RabbitMQ topic exchange
type AMQPSink struct {
	conn       *amqp091.Connection
	exchange   string
	routingKey string
	logger     *logger.Logger
}

// NewAMQPSink connects to RabbitMQ and declares the target exchange
func NewAMQPSink(cfg *config.SinkConfig, log *logger.Logger) (*AMQPSink, error) {
	conn, err := amqp091.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(
		cfg.Exchange, "topic", true, false, false, false, nil,
	); err != nil {
		conn.Close()
		return nil, err
	}

	return &AMQPSink{
		conn:       conn,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     log,
	}, nil
}

// Trigger publishes the event on a fresh channel
func (s *AMQPSink) Trigger(ctx context.Context, event MessageEvent) error {
	ch, err := s.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	envelope := amqpEnvelope{
		Meta: amqpMeta{
			ID:            uuid.NewString(),
			CorrelationID: event.DeliveryID,
			Time:          time.Now(),
			Type:          amqpEventType,
		},
		Data: event,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(
		ctx, s.exchange, s.routingKey, false, false,
		amqp091.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp091.Persistent,
			MessageId:     envelope.Meta.ID,
			CorrelationId: event.DeliveryID,
			Timestamp:     time.Now(),
			Body:          body,
		},
	)
	if err == nil {
		s.logger.WithDeliveryID(event.DeliveryID).Debug("Trigger event published",
			"exchange", s.exchange,
			"routing_key", s.routingKey,
		)
	}
	return err
}

// Close closes the AMQP connection
func (s *AMQPSink) Close() error {
	return s.conn.Close()
}
