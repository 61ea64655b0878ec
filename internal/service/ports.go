package service

import (
	"context"

	"order-agent/internal/models"
)

// Dispatcher delivers outbound messages to a customer or operator
type Dispatcher interface {
	SendText(ctx context.Context, to, body string) error
	SendImage(ctx context.Context, to, url, caption string) error
	SendButtons(ctx context.Context, to, body string, buttons []models.Button) error
}

// AnswerGenerator produces a short answer about a product. It is given the
// product facts, the last exchange and the new question.
type AnswerGenerator interface {
	Answer(ctx context.Context, product *models.Product, last *models.Turn, question string) (string, error)
}

// SessionStore loads and saves conversation sessions by user id. Load
// returns (nil, nil) when the user has no session yet.
type SessionStore interface {
	Load(ctx context.Context, userID string) (*models.Session, error)
	Save(ctx context.Context, userID string, session *models.Session) error
}

// OrderPublisher announces finalized orders
type OrderPublisher interface {
	PublishOrderFinalized(ctx context.Context, event *models.OrderFinalizedEvent) error
}

// OrderRepository archives finalized orders
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByReference(ctx context.Context, reference string) (*models.Order, error)
	GetOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// noSessions is the no-persistence mode: every event starts from an empty session
type noSessions struct{}

func (noSessions) Load(context.Context, string) (*models.Session, error) { return nil, nil }
func (noSessions) Save(context.Context, string, *models.Session) error   { return nil }
