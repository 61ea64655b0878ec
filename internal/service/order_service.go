package service

import (
	"context"
	"fmt"
	"time"

	"order-agent/internal/models"
	"order-agent/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService publishes finalized orders and archives them when the
// event comes back from the broker
type OrderService struct {
	repo      OrderRepository
	publisher OrderPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service. Either dependency may be
// nil when the corresponding backend is disabled.
func NewOrderService(repo OrderRepository, publisher OrderPublisher) *OrderService {
	return &OrderService{
		repo:      repo,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// PublishFinalized emits an ORDER_FINALIZED event for the order. Without a
// publisher the order is archived directly.
func (s *OrderService) PublishFinalized(ctx context.Context, order models.Order) error {
	ctx, span := util.StartSpan(ctx, "OrderService.PublishFinalized")
	defer span.End()

	event := &models.OrderFinalizedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderFinalized,
			Timestamp: time.Now(),
		},
		Order: order,
	}

	if s.publisher == nil {
		return s.ArchiveOrder(ctx, event)
	}

	if err := s.publisher.PublishOrderFinalized(ctx, event); err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}

// ArchiveOrder stores a finalized order once per event
func (s *OrderService) ArchiveOrder(ctx context.Context, event *models.OrderFinalizedEvent) error {
	ctx, span := util.StartSpan(ctx, "OrderService.ArchiveOrder")
	defer span.End()

	if s.repo == nil {
		return nil
	}

	processed, err := s.repo.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		s.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	order := event.Order
	if err := s.repo.CreateOrder(ctx, &order); err != nil {
		util.OrdersArchiveFailedTotal.Inc()
		return fmt.Errorf("failed to archive order: %w", err)
	}

	if err := s.repo.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		s.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	s.logger.Info("Order archived",
		zap.String("reference", order.Reference),
		zap.Int64("order_id", order.ID))
	return nil
}

// GetOrder retrieves an archived order by reference
func (s *OrderService) GetOrder(ctx context.Context, reference string) (*models.Order, error) {
	if s.repo == nil {
		return nil, ErrArchiveDisabled
	}
	order, err := s.repo.GetOrderByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListCustomerOrders returns a customer's archived orders, newest first
func (s *OrderService) ListCustomerOrders(ctx context.Context, customerID string) ([]models.Order, error) {
	if s.repo == nil {
		return nil, ErrArchiveDisabled
	}
	orders, err := s.repo.GetOrdersByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer orders: %w", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}
