package worker

import (
	"context"

	"order-agent/internal/broker"
	"order-agent/internal/service"
	"order-agent/internal/util"

	"go.uber.org/zap"
)

// OrderArchiveWorker consumes finalized orders and archives them
type OrderArchiveWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewOrderArchiveWorker creates a new archive worker
func NewOrderArchiveWorker(consumer *broker.Consumer, orders *service.OrderService) *OrderArchiveWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderFinalized(orders.ArchiveOrder)

	return &OrderArchiveWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start blocks consuming events until ctx is cancelled
func (w *OrderArchiveWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting order archive worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *OrderArchiveWorker) Stop() error {
	w.logger.Info("Stopping order archive worker")
	return w.consumer.Close()
}
