package service

import (
	"context"
	"testing"

	"order-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() models.Order {
	return models.Order{
		Reference:     testRefUUID,
		CustomerID:    customerID,
		ProductID:     "crema-manos",
		ProductName:   "Crema de Manos Botanika Karité",
		UnitPrice:     38000,
		Quantity:      2,
		TotalAmount:   76000,
		PaymentMethod: string(models.PaymentCashOnDelivery),
	}
}

func TestPublishFinalized(t *testing.T) {
	repo := newFakeRepo()
	publisher := &fakePublisher{}
	svc := NewOrderService(repo, publisher)

	err := svc.PublishFinalized(context.Background(), testOrder())

	require.NoError(t, err)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.EventTypeOrderFinalized, publisher.events[0].EventType)
	assert.Equal(t, testRefUUID, publisher.events[0].Order.Reference)
	assert.Empty(t, repo.orders, "archiving happens when the event is consumed")
}

func TestPublishFinalizedError(t *testing.T) {
	svc := NewOrderService(nil, &fakePublisher{err: errDown})

	err := svc.PublishFinalized(context.Background(), testOrder())

	assert.ErrorIs(t, err, errDown)
}

func TestPublishFinalizedWithoutBrokerArchivesDirectly(t *testing.T) {
	repo := newFakeRepo()
	svc := NewOrderService(repo, nil)

	require.NoError(t, svc.PublishFinalized(context.Background(), testOrder()))

	stored, ok := repo.orders[testRefUUID]
	require.True(t, ok)
	assert.Equal(t, int64(76000), stored.TotalAmount)
	assert.Len(t, repo.processed, 1)
}

func TestArchiveOrderIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewOrderService(repo, nil)
	ctx := context.Background()

	event := &models.OrderFinalizedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-1", EventType: models.EventTypeOrderFinalized},
		Order:     testOrder(),
	}

	require.NoError(t, svc.ArchiveOrder(ctx, event))
	require.NoError(t, svc.ArchiveOrder(ctx, event))

	assert.Equal(t, int64(1), repo.nextID, "order is created once")
	assert.True(t, repo.processed["evt-1"])
}

func TestArchiveOrderFailureLeavesEventUnprocessed(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errDown
	svc := NewOrderService(repo, nil)

	event := &models.OrderFinalizedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-2", EventType: models.EventTypeOrderFinalized},
		Order:     testOrder(),
	}

	err := svc.ArchiveOrder(context.Background(), event)

	assert.ErrorIs(t, err, errDown)
	assert.False(t, repo.processed["evt-2"])
}

func TestGetOrder(t *testing.T) {
	ctx := context.Background()

	_, err := NewOrderService(nil, nil).GetOrder(ctx, testRefUUID)
	assert.ErrorIs(t, err, ErrArchiveDisabled)

	repo := newFakeRepo()
	svc := NewOrderService(repo, nil)

	_, err = svc.GetOrder(ctx, "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	order := testOrder()
	require.NoError(t, repo.CreateOrder(ctx, &order))

	found, err := svc.GetOrder(ctx, testRefUUID)
	require.NoError(t, err)
	assert.Equal(t, "crema-manos", found.ProductID)
}

func TestListCustomerOrders(t *testing.T) {
	ctx := context.Background()

	_, err := NewOrderService(nil, nil).ListCustomerOrders(ctx, customerID)
	assert.ErrorIs(t, err, ErrArchiveDisabled)

	repo := newFakeRepo()
	svc := NewOrderService(repo, nil)

	orders, err := svc.ListCustomerOrders(ctx, customerID)
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	first := testOrder()
	second := testOrder()
	second.Reference = "ref-2"
	other := testOrder()
	other.Reference = "ref-3"
	other.CustomerID = "573005550000"
	for _, o := range []*models.Order{&first, &second, &other} {
		require.NoError(t, repo.CreateOrder(ctx, o))
	}

	orders, err = svc.ListCustomerOrders(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ref-2", orders[0].Reference, "newest first")
	assert.Equal(t, testRefUUID, orders[1].Reference)
}
