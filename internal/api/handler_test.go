package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"order-agent/internal/models"
	"order-agent/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConversation struct {
	events []models.InboundEvent
}

func (r *recordingConversation) HandleEvent(_ context.Context, ev models.InboundEvent) models.Session {
	r.events = append(r.events, ev)
	return *models.NewSession()
}

type memDedup struct {
	seen map[string]bool
	err  error
}

func (d *memDedup) MarkMessageSeen(_ context.Context, id string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

type memOrders struct {
	orders map[string]*models.Order
}

func (m *memOrders) CreateOrder(_ context.Context, o *models.Order) error {
	m.orders[o.Reference] = o
	return nil
}

func (m *memOrders) GetOrderByReference(_ context.Context, ref string) (*models.Order, error) {
	return m.orders[ref], nil
}

func (m *memOrders) GetOrdersByCustomer(_ context.Context, customerID string) ([]models.Order, error) {
	var orders []models.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (m *memOrders) IsEventProcessed(context.Context, string) (bool, error) { return false, nil }

func (m *memOrders) MarkEventProcessed(context.Context, string, string) error { return nil }

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h.SetupRoutes(router)
	return router
}

func perform(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const textPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{"changes": [{"field": "messages", "value": {
    "contacts": [{"profile": {"name": "Laura"}, "wa_id": "573001112233"}],
    "messages": [
      {"from": "573001112233", "id": "wamid.1", "type": "text", "text": {"body": "hola"}},
      {"from": "573001112233", "id": "wamid.2", "type": "text", "text": {"body": "¿Para qué sirve la crema de manos?"}}
    ]
  }}]}]
}`

func TestHealth(t *testing.T) {
	router := newTestRouter(NewHandler(&recordingConversation{}, service.NewOrderService(nil, nil), "secret"))

	w := perform(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestReadiness(t *testing.T) {
	h := NewHandler(&recordingConversation{}, service.NewOrderService(nil, nil), "secret")
	h.AddReadinessCheck("redis", func(context.Context) error { return nil })
	router := newTestRouter(h)

	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/ready", "").Code)

	h.AddReadinessCheck("postgres", func(context.Context) error { return errors.New("connection refused") })
	w := perform(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestVerifyWebhook(t *testing.T) {
	router := newTestRouter(NewHandler(&recordingConversation{}, service.NewOrderService(nil, nil), "secret"))

	w := perform(router, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=424242", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "424242", w.Body.String())

	w = perform(router, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=424242", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReceiveWebhook(t *testing.T) {
	conv := &recordingConversation{}
	router := newTestRouter(NewHandler(conv, service.NewOrderService(nil, nil), "secret"))

	w := perform(router, http.MethodPost, "/webhook", textPayload)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, conv.events, 2)
	assert.Equal(t, "hola", conv.events[0].Text)
	assert.Equal(t, "Laura", conv.events[0].CustomerName)
	assert.Equal(t, "wamid.2", conv.events[1].MessageID)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["processed"])
}

func TestReceiveWebhookSkipsRedelivery(t *testing.T) {
	conv := &recordingConversation{}
	h := NewHandler(conv, service.NewOrderService(nil, nil), "secret").
		WithDeduplicator(&memDedup{seen: map[string]bool{}})
	router := newTestRouter(h)

	perform(router, http.MethodPost, "/webhook", textPayload)
	w := perform(router, http.MethodPost, "/webhook", textPayload)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, conv.events, 2, "second delivery is a no-op")
}

func TestReceiveWebhookDedupFailureStillProcesses(t *testing.T) {
	conv := &recordingConversation{}
	h := NewHandler(conv, service.NewOrderService(nil, nil), "secret").
		WithDeduplicator(&memDedup{err: errors.New("redis down")})
	router := newTestRouter(h)

	perform(router, http.MethodPost, "/webhook", textPayload)

	assert.Len(t, conv.events, 2)
}

func TestReceiveWebhookMalformed(t *testing.T) {
	conv := &recordingConversation{}
	router := newTestRouter(NewHandler(conv, service.NewOrderService(nil, nil), "secret"))

	w := perform(router, http.MethodPost, "/webhook", `{"entry": [`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
	assert.Empty(t, conv.events)
}

func TestGetOrder(t *testing.T) {
	repo := &memOrders{orders: map[string]*models.Order{
		"ref-1": {Reference: "ref-1", ProductID: "crema-manos", Quantity: 2, TotalAmount: 76000},
	}}
	router := newTestRouter(NewHandler(&recordingConversation{}, service.NewOrderService(repo, nil), "secret"))

	w := perform(router, http.MethodGet, "/api/v1/orders/ref-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_amount":76000`)

	w = perform(router, http.MethodGet, "/api/v1/orders/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderArchiveDisabled(t *testing.T) {
	router := newTestRouter(NewHandler(&recordingConversation{}, service.NewOrderService(nil, nil), "secret"))

	w := perform(router, http.MethodGet, "/api/v1/orders/ref-1", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetCustomerOrders(t *testing.T) {
	repo := &memOrders{orders: map[string]*models.Order{
		"ref-1": {Reference: "ref-1", CustomerID: "573001112233", ProductID: "crema-manos", Quantity: 2},
		"ref-2": {Reference: "ref-2", CustomerID: "573005550000", ProductID: "jabon-avena", Quantity: 1},
	}}
	router := newTestRouter(NewHandler(&recordingConversation{}, service.NewOrderService(repo, nil), "secret"))

	w := perform(router, http.MethodGet, "/api/v1/customers/573001112233/orders", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Orders []models.Order `json:"orders"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Orders, 1)
	assert.Equal(t, "ref-1", body.Orders[0].Reference)

	w = perform(router, http.MethodGet, "/api/v1/customers/nobody/orders", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"orders":[]`)
}

func TestGetCustomerOrdersArchiveDisabled(t *testing.T) {
	router := newTestRouter(NewHandler(&recordingConversation{}, service.NewOrderService(nil, nil), "secret"))

	w := perform(router, http.MethodGet, "/api/v1/customers/573001112233/orders", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
