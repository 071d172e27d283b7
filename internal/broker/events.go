package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"ledger-service/internal/models"
	"ledger-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing ledger domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishSaleRecorded publishes a SaleRecorded event
func (ep *EventPublisher) PublishSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error {
	return ep.producer.PublishEvent(ctx, userKey(event.UserID), event)
}

// PublishPaymentRecorded publishes a PaymentRecorded event
func (ep *EventPublisher) PublishPaymentRecorded(ctx context.Context, event *models.PaymentRecordedEvent) error {
	return ep.producer.PublishEvent(ctx, userKey(event.UserID), event)
}

// PublishTransactionDeleted publishes a TransactionDeleted event
func (ep *EventPublisher) PublishTransactionDeleted(ctx context.Context, event *models.TransactionDeletedEvent) error {
	return ep.producer.PublishEvent(ctx, userKey(event.UserID), event)
}

// PublishLowStock publishes a LowStock event
func (ep *EventPublisher) PublishLowStock(ctx context.Context, event *models.LowStockEvent) error {
	return ep.producer.PublishEvent(ctx, userKey(event.UserID), event)
}

func userKey(userID string) string {
	return fmt.Sprintf("user-%s", userID)
}

// EventHandler routes consumed messages to registered handlers
type EventHandler struct {
	onLedgerEvent func(ctx context.Context, base models.BaseEvent, userID string) error
	onLowStock    func(ctx context.Context, event *models.LowStockEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnLedgerEvent registers a handler invoked for every sale/payment/delete
// event (anything that changes derived ledger state)
func (eh *EventHandler) OnLedgerEvent(handler func(ctx context.Context, base models.BaseEvent, userID string) error) {
	eh.onLedgerEvent = handler
}

// OnLowStock registers a handler for LowStock events
func (eh *EventHandler) OnLowStock(handler func(ctx context.Context, event *models.LowStockEvent) error) {
	eh.onLowStock = handler
}

// userScopedEvent extracts the owner of any ledger event payload
type userScopedEvent struct {
	models.BaseEvent
	UserID string `json:"user_id"`
}

// HandleMessage routes messages to the appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var scoped userScopedEvent
	if err := json.Unmarshal(msg.Value, &scoped); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	util.GetLogger().Debug("Handling event",
		zap.String("type", scoped.EventType),
		zap.String("id", scoped.EventID))

	switch scoped.EventType {
	case models.EventTypeSaleRecorded, models.EventTypePaymentRecorded, models.EventTypeTransactionDeleted:
		if eh.onLedgerEvent != nil {
			return eh.onLedgerEvent(ctx, scoped.BaseEvent, scoped.UserID)
		}

	case models.EventTypeLowStock:
		if eh.onLowStock != nil {
			var event models.LowStockEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal LowStock event: %w", err)
			}
			return eh.onLowStock(ctx, &event)
		}

	default:
		util.GetLogger().Warn("Unknown event type", zap.String("type", scoped.EventType))
	}

	return nil
}
