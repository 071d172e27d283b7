package worker

import (
	"context"

	"ledger-service/internal/broker"
	"ledger-service/internal/models"
	"ledger-service/internal/redisclient"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// LedgerWorker consumes ledger events: it invalidates cached derived views
// for the affected user and surfaces low-stock alerts. Effects are
// idempotent via the processed_events table.
type LedgerWorker struct {
	consumer *broker.Consumer
	store    *store.Store
	cache    *redisclient.Client
	handler  *broker.EventHandler
	logger   *zap.Logger
}

// NewLedgerWorker creates a new ledger worker
func NewLedgerWorker(consumer *broker.Consumer, st *store.Store, cache *redisclient.Client) *LedgerWorker {
	w := &LedgerWorker{
		consumer: consumer,
		store:    st,
		cache:    cache,
		logger:   util.GetLogger(),
	}

	handler := broker.NewEventHandler()
	handler.OnLedgerEvent(w.handleLedgerEvent)
	handler.OnLowStock(w.handleLowStock)
	w.handler = handler

	return w
}

// Start starts the worker
func (w *LedgerWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting ledger worker")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *LedgerWorker) Stop() error {
	w.logger.Info("Stopping ledger worker")
	return w.consumer.Close()
}

func (w *LedgerWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	return w.handler.HandleMessage(ctx, msg)
}

func (w *LedgerWorker) handleLedgerEvent(ctx context.Context, base models.BaseEvent, userID string) error {
	processed, err := w.store.IsEventProcessed(ctx, base.EventID)
	if err != nil {
		return err
	}
	if processed {
		w.logger.Debug("Skipping already processed event", zap.String("event_id", base.EventID))
		return nil
	}

	if w.cache != nil {
		if err := w.cache.InvalidateStats(ctx, userID); err != nil {
			w.logger.Warn("Failed to invalidate stats cache",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}

	return w.store.MarkEventProcessed(ctx, base.EventID, base.EventType)
}

func (w *LedgerWorker) handleLowStock(ctx context.Context, event *models.LowStockEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	w.logger.Warn("Item at or below low stock threshold",
		zap.String("user_id", event.UserID),
		zap.String("item_id", event.ItemID),
		zap.String("item_name", event.ItemName),
		zap.Int("quantity", event.Quantity),
		zap.Int("threshold", event.Threshold))

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}
