package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"whatsapp-cloud-relay/internal/model"
	"whatsapp-cloud-relay/internal/sink"
	"whatsapp-cloud-relay/pkg/logger"
)

// DispatchResult is the acknowledgment body returned to the provider. Every
// POST delivery maps to one of these; the provider retries the whole delivery
// on anything other than a 200, so dispatch never surfaces an error.
type DispatchResult string

const (
	// ResultIgnored acknowledges a payload for another product
	ResultIgnored DispatchResult = "Ignored"
	// ResultEventReceived acknowledges a WhatsApp delivery, with or without
	// a message inside
	ResultEventReceived DispatchResult = "EVENT_RECEIVED"
	// ResultOK acknowledges a delivery that failed to process, so the
	// provider does not redeliver it
	ResultOK DispatchResult = "OK"
)

// readReceiptTimeout bounds the detached read-receipt call; the request
// context is gone by the time it runs.
const readReceiptTimeout = 10 * time.Second

// ReadReceipter marks an incoming message as read
type ReadReceipter interface {
	MarkRead(ctx context.Context, messageID string) error
}

// DeliveryStore records processed message IDs for redelivery suppression
type DeliveryStore interface {
	MarkSeen(messageID, sender string) (bool, error)
}

// Dispatcher processes inbound webhook event deliveries: envelope check,
// message extraction, dedup, read receipt, trigger forwarding
type Dispatcher struct {
	receipter ReadReceipter
	store     DeliveryStore
	sink      sink.TriggerSink
	logger    *logger.Logger
}

// NewDispatcher creates a new inbound event dispatcher
func NewDispatcher(receipter ReadReceipter, store DeliveryStore, triggerSink sink.TriggerSink, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		receipter: receipter,
		store:     store,
		sink:      triggerSink,
		logger:    log,
	}
}

// Dispatch handles one POST webhook delivery body and returns the
// acknowledgment to send back. It never fails: a body that cannot be
// processed is acknowledged as ResultOK.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) DispatchResult {
	var payload model.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		d.logger.Error("Failed to parse webhook body, acknowledging anyway", "error", err)
		return ResultOK
	}

	if payload.Object != "whatsapp_business_account" {
		d.logger.Info("Ignored non-whatsapp webhook payload", "object", payload.Object)
		return ResultIgnored
	}

	msg := payload.FirstMessage()
	if msg == nil {
		// Status updates and other message-less deliveries land here.
		d.logger.Debug("Webhook delivery carried no message")
		return ResultEventReceived
	}

	deliveryID := uuid.NewString()
	log := d.logger.WithDeliveryID(deliveryID).WithMessageID(msg.MessageID)
	log.Info("Received message", "from", msg.SenderNumber)

	seen, err := d.store.MarkSeen(msg.MessageID, msg.SenderNumber)
	if err != nil {
		// Dedup is an optimization; a store failure must not drop the event.
		log.Error("Delivery store failure, treating message as unseen", "error", err)
	}
	if seen {
		log.Info("Duplicate delivery, acknowledging without re-triggering")
		return ResultEventReceived
	}

	// Mark as read immediately, detached: the ack must not wait for it and
	// its outcome must not affect the result.
	go d.markReadAsync(msg.MessageID, log)

	event := sink.MessageEvent{
		MessageText:  msg.Text,
		SenderNumber: msg.SenderNumber,
		MessageID:    msg.MessageID,
		DeliveryID:   deliveryID,
		ReceivedAt:   time.Now(),
	}
	if err := d.sink.Trigger(ctx, event); err != nil {
		log.Error("Failed to forward message to trigger sink", "error", err)
	}

	return ResultEventReceived
}

// markReadAsync is the best-effort wrapper around MarkRead: own timeout, all
// failures logged and dropped
func (d *Dispatcher) markReadAsync(messageID string, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), readReceiptTimeout)
	defer cancel()

	if err := d.receipter.MarkRead(ctx, messageID); err != nil {
		log.Warn("Failed to mark message as read", "error", err)
	}
}
