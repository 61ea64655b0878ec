package store

import (
	"context"
	"database/sql"
	"errors"

	"order-agent/internal/models"
)

// CreateOrder archives a finalized order. Re-archiving the same reference
// keeps the first row and returns its id.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (
			reference, customer_id, customer_name, product_id, product_name,
			unit_price, quantity, total_amount, latitude, longitude,
			location_name, location_address, payment_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, COALESCE($14, NOW()))
		ON CONFLICT (reference) DO UPDATE SET reference = EXCLUDED.reference
		RETURNING id, created_at`

	var createdAt sql.NullTime
	if !order.CreatedAt.IsZero() {
		createdAt = sql.NullTime{Time: order.CreatedAt, Valid: true}
	}

	return s.db.QueryRowxContext(ctx, query,
		order.Reference, order.CustomerID, order.CustomerName, order.ProductID, order.ProductName,
		order.UnitPrice, order.Quantity, order.TotalAmount, order.Latitude, order.Longitude,
		order.LocationName, order.LocationAddress, order.PaymentMethod, createdAt,
	).Scan(&order.ID, &order.CreatedAt)
}

// GetOrderByReference retrieves an order by its public reference. It
// returns nil when no order matches.
func (s *Store) GetOrderByReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE reference = $1", reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByCustomer retrieves a customer's orders, newest first
func (s *Store) GetOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE customer_id = $1 ORDER BY created_at DESC", customerID)
	return orders, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
